package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seo-optimizer/seoengine/config"
	"github.com/seo-optimizer/seoengine/stats"
)

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "hello", req.Messages[0].Content)

		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"world"}}]}`)
	}))
	defer server.Close()

	g := NewOpenAI("sk-test", "", server.URL+"/v1/", server.Client())
	text, err := g.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", text)
}

func TestOpenAIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		code   int
	}{
		{"non-2xx status", http.StatusUnauthorized, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized},
		{"error payload", http.StatusOK, `{"error":{"message":"quota exceeded","type":"insufficient_quota"}}`, 0},
		{"no choices", http.StatusOK, `{"choices":[]}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			_, err := NewOpenAI("k", "", server.URL, server.Client()).Generate(context.Background(), "p")
			var perr *ProviderError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, "openai", perr.Provider)
			assert.Equal(t, tt.code, perr.StatusCode)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "not json")
		}))
		defer server.Close()

		_, err := NewOpenAI("k", "", server.URL, server.Client()).Generate(context.Background(), "p")
		assert.Error(t, err)
	})
}

func TestGeminiGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-pro:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))
		assert.Empty(t, r.URL.RawQuery)

		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "prompt", req.Contents[0].Parts[0].Text)

		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"part one, "},{"text":"part two"}]}}]}`)
	}))
	defer server.Close()

	text, err := NewGemini("g-key", "", server.URL, server.Client()).Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "part one, part two", text)
}

func TestGeminiNoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer server.Close()

	_, err := NewGemini("k", "", server.URL, server.Client()).Generate(context.Background(), "p")
	var perr *ProviderError
	assert.ErrorAs(t, err, &perr)
}

func TestRequestErrorsDoNotLeakAPIKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable := server.URL
	server.Close()

	const key = "SECRET-KEY-123"
	generators := []Generator{
		NewGemini(key, "", unreachable, nil),
		NewOpenAI(key, "", unreachable, nil),
		NewHuggingFace(key, "", unreachable, nil),
	}
	for _, g := range generators {
		t.Run(g.Name(), func(t *testing.T) {
			_, err := g.Generate(context.Background(), "p")
			require.Error(t, err)
			assert.NotContains(t, err.Error(), key)
			assert.NotContains(t, err.Error(), unreachable)
		})
	}
}

func TestHuggingFaceGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/meta-llama/Llama-2-7b-chat-hf", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))

		var req huggingFaceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "p", req.Inputs)
		assert.False(t, req.Parameters.ReturnFullText)

		io.WriteString(w, `[{"generated_text":"generated"}]`)
	}))
	defer server.Close()

	text, err := NewHuggingFace("hf-key", "", server.URL, server.Client()).Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "generated", text)
}

func TestHuggingFaceLoadingModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":"Model is currently loading"}`)
	}))
	defer server.Close()

	_, err := NewHuggingFace("k", "", server.URL, server.Client()).Generate(context.Background(), "p")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Contains(t, perr.Error(), "currently loading")
}

func TestGenerateHonoursContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewOpenAI("k", "", server.URL, server.Client()).Generate(ctx, "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeInvoker struct {
	input  *bedrockruntime.InvokeModelInput
	output string
	err    error
}

func (f *fakeInvoker) InvokeModel(_ context.Context, in *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.output)}, nil
}

func TestBedrockGenerate(t *testing.T) {
	invoker := &fakeInvoker{output: `{"content":[{"type":"text","text":"{\"title\":"},{"type":"text","text":"\"x\"}"}],"stop_reason":"end_turn"}`}
	b := NewBedrockWithClient(invoker, "")

	text, err := b.Generate(context.Background(), "meta tags please")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, text)

	require.NotNil(t, invoker.input)
	assert.Equal(t, defaultBedrockModel, aws.ToString(invoker.input.ModelId))

	var req bedrockRequest
	require.NoError(t, json.Unmarshal(invoker.input.Body, &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	assert.Equal(t, "meta tags please", req.Messages[0].Content[0].Text)
}

func TestBedrockInvokeError(t *testing.T) {
	b := NewBedrockWithClient(&fakeInvoker{err: errors.New("throttled")}, "model")
	_, err := b.Generate(context.Background(), "p")
	assert.ErrorContains(t, err, "throttled")
}

func TestNewSelectsProvider(t *testing.T) {
	tests := map[string]string{
		"none":        "none",
		"":            "none",
		"openai":      "openai",
		"gemini":      "gemini",
		"huggingface": "huggingface",
	}
	for provider, want := range tests {
		g, err := New(context.Background(), config.GenerationConfig{Provider: provider, APIKey: "k", TimeoutSeconds: 5})
		require.NoError(t, err)
		assert.Equal(t, want, g.Name())
	}

	_, err := New(context.Background(), config.GenerationConfig{Provider: "llama"})
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrUnavailable)
}

// countingGenerator answers with a fixed text and counts calls
type countingGenerator struct {
	text  string
	err   error
	calls atomic.Int32
}

func (g *countingGenerator) Name() string { return "counting" }

func (g *countingGenerator) Generate(context.Context, string) (string, error) {
	g.calls.Add(1)
	return g.text, g.err
}

func TestCachedMemory(t *testing.T) {
	usage, err := stats.NewStorage(t.TempDir())
	require.NoError(t, err)
	defer usage.Shutdown()

	next := &countingGenerator{text: "cached text"}
	g := NewCached(next, NewMemoryCache(time.Minute), usage, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		text, err := g.Generate(ctx, "same prompt")
		require.NoError(t, err)
		assert.Equal(t, "cached text", text)
	}
	_, err = g.Generate(ctx, "other prompt")
	require.NoError(t, err)

	assert.Equal(t, int32(2), next.calls.Load())
	current := usage.GetCurrentStats()
	assert.Equal(t, 2, current.GenerationCacheHits)
	assert.Equal(t, 2, current.GenerationCacheMisses)
	assert.Equal(t, "counting", g.Name())
}

func TestCachedSkipsFailuresAndEmptyText(t *testing.T) {
	cache := NewMemoryCache(time.Minute)

	failing := &countingGenerator{err: errors.New("boom")}
	g := NewCached(failing, cache, nil, nil)
	_, err := g.Generate(context.Background(), "p")
	assert.Error(t, err)
	_, err = g.Generate(context.Background(), "p")
	assert.Error(t, err)
	assert.Equal(t, int32(2), failing.calls.Load())

	empty := &countingGenerator{}
	g = NewCached(empty, cache, nil, nil)
	_, _ = g.Generate(context.Background(), "p")
	_, _ = g.Generate(context.Background(), "p")
	assert.Equal(t, int32(2), empty.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	cache, err := NewRedisCache(ctx, config.RedisConfig{Address: mr.Addr()}, time.Minute)
	require.NoError(t, err)
	defer cache.Close()

	_, found, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	next := &countingGenerator{text: "from provider"}
	g := NewCached(next, cache, nil, nil)

	text, err := g.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "from provider", text)

	key := redisKeyPrefix + generateCacheKey("counting", "prompt")
	stored, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, "from provider", stored)
	assert.Equal(t, time.Minute, mr.TTL(key))

	text, err = g.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "from provider", text)
	assert.Equal(t, int32(1), next.calls.Load())

	mr.FastForward(2 * time.Minute)
	_, err = g.Generate(ctx, "prompt")
	require.NoError(t, err)
	assert.Equal(t, int32(2), next.calls.Load())
}

func TestRedisCacheUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), config.RedisConfig{Address: addr}, time.Minute)
	assert.Error(t, err)
}

func TestNewCache(t *testing.T) {
	c, err := NewCache(context.Background(), config.CacheConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = NewCache(context.Background(), config.CacheConfig{Type: "memory", TTLSeconds: 60})
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	_, err = NewCache(context.Background(), config.CacheConfig{Type: "disk"})
	assert.Error(t, err)
}

func TestGenerateCacheKeyDependsOnProvider(t *testing.T) {
	assert.NotEqual(t, generateCacheKey("openai", "p"), generateCacheKey("gemini", "p"))
	assert.Equal(t, generateCacheKey("openai", "p"), generateCacheKey("openai", "p"))
	assert.Len(t, generateCacheKey("openai", "p"), 32)
}
