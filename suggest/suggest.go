// Package suggest proposes keywords and meta tags for blog posts. It asks
// the configured text generator once per call and falls back to
// deterministic suggestions whenever the answer is unusable.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seoengine/generation"
	"github.com/seo-optimizer/seoengine/stats"
)

// DefaultKeywordCount is used when a caller asks for zero or fewer keywords
const DefaultKeywordCount = 10

// KeywordSuggestion is a proposed keyword with rough market indicators
type KeywordSuggestion struct {
	Keyword      string  `json:"keyword"`
	SearchVolume string  `json:"searchVolume"`
	Difficulty   string  `json:"difficulty"`
	Relevance    float64 `json:"relevance"`
}

// MetaTagSuggestion holds proposed SEO title, description and keywords
type MetaTagSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// errMalformed marks a generator answer that could not be used
var errMalformed = errors.New("malformed generation payload")

// Suggester produces suggestions. It keeps no state between calls and is
// safe for concurrent use.
type Suggester struct {
	gen      generation.Generator
	log      logrus.FieldLogger
	usage    *stats.Storage
	sanitize *bluemonday.Policy
}

// New creates a Suggester. A nil generator behaves like an unavailable one;
// usage may be nil.
func New(gen generation.Generator, log logrus.FieldLogger, usage *stats.Storage) *Suggester {
	if gen == nil {
		gen = generation.Unavailable{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Suggester{
		gen:      gen,
		log:      log,
		usage:    usage,
		sanitize: bluemonday.StrictPolicy(),
	}
}

// SuggestKeywords returns up to count keyword ideas for topic. It never
// fails: generation errors yield FallbackKeywords.
func (s *Suggester) SuggestKeywords(ctx context.Context, topic string, count int) []KeywordSuggestion {
	if count <= 0 {
		count = DefaultKeywordCount
	}
	s.usage.Increment(stats.KeywordSuggestions, 1)

	keywords, err := s.generateKeywords(ctx, topic, count)
	if err != nil {
		s.fallback("suggest_keywords", err)
		return FallbackKeywords(topic, count)
	}
	return keywords
}

func (s *Suggester) generateKeywords(ctx context.Context, topic string, count int) ([]KeywordSuggestion, error) {
	prompt, err := renderKeywordPrompt(topic, count)
	if err != nil {
		return nil, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed []KeywordSuggestion
	if err := json.Unmarshal([]byte(extractJSON(text)), &parsed); err != nil {
		return nil, errors.Join(errMalformed, err)
	}

	keywords := make([]KeywordSuggestion, 0, len(parsed))
	for _, k := range parsed {
		k.Keyword = s.clean(k.Keyword)
		if k.Keyword == "" {
			continue
		}
		k.SearchVolume = s.clean(k.SearchVolume)
		k.Difficulty = s.clean(k.Difficulty)
		keywords = append(keywords, k)
	}
	if len(keywords) == 0 {
		return nil, errMalformed
	}
	if len(keywords) > count {
		keywords = keywords[:count]
	}
	return keywords, nil
}

type metaPayload struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Keywords    json.RawMessage `json:"keywords"`
	Error       json.RawMessage `json:"error"`
}

// SuggestMetaTags proposes meta tags for a post. It never fails: fields the
// generator leaves empty are filled from the post, and generation errors
// yield FallbackMetaTags.
func (s *Suggester) SuggestMetaTags(ctx context.Context, title, content string) MetaTagSuggestion {
	s.usage.Increment(stats.MetaTagSuggestions, 1)

	meta, err := s.generateMetaTags(ctx, title, content)
	if err != nil {
		s.fallback("suggest_meta_tags", err)
		return FallbackMetaTags(title, content)
	}
	return meta
}

func (s *Suggester) generateMetaTags(ctx context.Context, title, content string) (MetaTagSuggestion, error) {
	prompt, err := renderMetaPrompt(title, content)
	if err != nil {
		return MetaTagSuggestion{}, err
	}
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return MetaTagSuggestion{}, err
	}

	var payload metaPayload
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		return MetaTagSuggestion{}, errors.Join(errMalformed, err)
	}
	if len(payload.Error) > 0 && string(payload.Error) != "null" {
		return MetaTagSuggestion{}, errors.Join(errMalformed, errors.New(string(payload.Error)))
	}

	meta := MetaTagSuggestion{
		Title:       s.clean(payload.Title),
		Description: s.clean(payload.Description),
	}
	if meta.Title == "" {
		meta.Title = DefaultTitle(title)
	}
	if meta.Description == "" {
		meta.Description = DefaultDescription(content)
	}

	var keywords []string
	if err := json.Unmarshal(payload.Keywords, &keywords); err == nil && keywords != nil {
		meta.Keywords = make([]string, 0, len(keywords))
		for _, k := range keywords {
			if k = s.clean(k); k != "" {
				meta.Keywords = append(meta.Keywords, k)
			}
		}
	} else {
		meta.Keywords = ExtractKeywords(title, content)
	}
	return meta, nil
}

// generate makes the single generation attempt of a suggestion call
func (s *Suggester) generate(ctx context.Context, prompt string) (string, error) {
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errMalformed
	}
	return text, nil
}

func (s *Suggester) fallback(operation string, err error) {
	s.usage.Increment(stats.SuggestionFallbacks, 1)
	s.log.WithFields(logrus.Fields{
		"operation": operation,
		"provider":  s.gen.Name(),
		"error":     err.Error(),
	}).Warn("text generation failed, using fallback suggestions")
}

// maxUnescapeRounds bounds how many layers of entity encoding are peeled
// off before sanitising
const maxUnescapeRounds = 3

// clean strips any markup from generated text and decodes entities.
// Entities are decoded before sanitising so encoded tags are removed too.
func (s *Suggester) clean(text string) string {
	for i := 0; i < maxUnescapeRounds; i++ {
		decoded := html.UnescapeString(text)
		if decoded == text {
			break
		}
		text = decoded
	}
	sanitized := s.sanitize.Sanitize(text)
	if strings.Contains(html.UnescapeString(sanitized), "<") {
		// still encoded markup left; keep the escaped form
		return strings.TrimSpace(sanitized)
	}
	return strings.TrimSpace(html.UnescapeString(sanitized))
}

var (
	jsonFenceRe  = regexp.MustCompile("```json\\n([\\s\\S]*?)\\n```")
	plainFenceRe = regexp.MustCompile("```\\n([\\s\\S]*?)\\n```")
)

// extractJSON returns the body of the first ```json fence, else the first
// plain fence, else the text unchanged.
func extractJSON(text string) string {
	if m := jsonFenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := plainFenceRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}
