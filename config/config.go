package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Generation GenerationConfig `yaml:"generation"`
	Stats      StatsConfig      `yaml:"stats"`
	Site       SiteConfig       `yaml:"site"`
}

type ServerConfig struct {
	Port      int             `yaml:"port"`
	GinMode   string          `yaml:"gin_mode"`
	BaseURL   string          `yaml:"base_url"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig is a per-client token bucket
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json | text
	File       string `yaml:"file"`   // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// StoreConfig selects the blog-post store
type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | sqlite | postgres
	DSN    string `yaml:"dsn"`
}

// GenerationConfig selects the text-generation provider used for suggestions
type GenerationConfig struct {
	Provider       string      `yaml:"provider"` // none | openai | gemini | huggingface | bedrock
	Model          string      `yaml:"model"`
	APIKey         string      `yaml:"api_key"`
	BaseURL        string      `yaml:"base_url"`
	TimeoutSeconds int         `yaml:"timeout_seconds"`
	Region         string      `yaml:"region"`
	Cache          CacheConfig `yaml:"cache"`
}

// Timeout returns the HTTP client timeout for provider calls
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type CacheConfig struct {
	Type       string      `yaml:"type"` // none | memory | redis
	TTLSeconds int         `yaml:"ttl_seconds"`
	Redis      RedisConfig `yaml:"redis"`
}

// TTL returns how long generated texts stay cached
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StatsConfig struct {
	DataDir string `yaml:"data_dir"`
}

// SiteConfig describes the public site the sitemap and structured data refer to
type SiteConfig struct {
	Name              string   `yaml:"name"`
	ImportantPages    []string `yaml:"important_pages"`
	ReportConcurrency int      `yaml:"report_concurrency"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML configuration file and applies defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8082
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	if c.Server.RateLimit.RPS == 0 {
		c.Server.RateLimit.RPS = 2
	}
	if c.Server.RateLimit.Burst == 0 {
		c.Server.RateLimit.Burst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "none"
	}
	if c.Generation.TimeoutSeconds == 0 {
		c.Generation.TimeoutSeconds = 60
	}
	if c.Generation.Region == "" {
		c.Generation.Region = "us-east-1"
	}
	if c.Generation.Cache.Type == "" {
		c.Generation.Cache.Type = "memory"
	}
	if c.Generation.Cache.TTLSeconds == 0 {
		c.Generation.Cache.TTLSeconds = 3600
	}
	if c.Stats.DataDir == "" {
		c.Stats.DataDir = "data"
	}
	if c.Site.Name == "" {
		c.Site.Name = "Jarvis AI Instagram Agent"
	}
	if c.Site.ImportantPages == nil {
		c.Site.ImportantPages = []string{"/features", "/pricing", "/about", "/contact"}
	}
	if c.Site.ReportConcurrency == 0 {
		c.Site.ReportConcurrency = 4
	}
}

// LoadFromEnv loads .env.development, then .env, then the YAML file at path
// (a missing file means defaults), and finally applies environment overrides.
func LoadFromEnv(path string) (*Config, error) {
	// godotenv never overrides variables that are already set, so the
	// development file wins over .env
	_ = godotenv.Load(".env.development")
	_ = godotenv.Load()

	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		loaded, err := Load(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			cfg = Default()
		case err != nil:
			return nil, err
		default:
			cfg = loaded
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("GIN_MODE"); v != "" {
		c.Server.GinMode = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		c.Server.RateLimit.RPS = rps
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		c.Generation.Provider = v
	}
	if v := os.Getenv("AI_MODEL"); v != "" {
		c.Generation.Model = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Generation.Region = v
	}
	if v := os.Getenv("GENERATION_CACHE"); v != "" {
		c.Generation.Cache.Type = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Generation.Cache.Redis.Address = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Generation.Cache.Redis.Password = v
	}
	if v := os.Getenv("STATS_DATA_DIR"); v != "" {
		c.Stats.DataDir = v
	}

	c.applyProviderKeys()
	return nil
}

var providerKeyEnv = map[string]string{
	"openai":      "OPENAI_API_KEY",
	"gemini":      "GOOGLE_GEMINI_API_KEY",
	"huggingface": "HUGGINGFACE_API_KEY",
}

// applyProviderKeys picks up the provider API key from its environment
// variable. With no provider configured, the first provider that has a key
// becomes active, in the order openai, gemini, huggingface.
func (c *Config) applyProviderKeys() {
	if c.Generation.Provider == "none" && c.Generation.APIKey == "" {
		for _, p := range []string{"openai", "gemini", "huggingface"} {
			if os.Getenv(providerKeyEnv[p]) != "" {
				c.Generation.Provider = p
				break
			}
		}
	}

	if env, ok := providerKeyEnv[c.Generation.Provider]; ok {
		if key := os.Getenv(env); key != "" {
			c.Generation.APIKey = key
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 1 {
		return errors.New("rate limit needs a non-negative rps and a burst of at least 1")
	}
	if c.Server.BaseURL != "" && !strings.HasPrefix(c.Server.BaseURL, "http://") && !strings.HasPrefix(c.Server.BaseURL, "https://") {
		return fmt.Errorf("base url %q must start with http:// or https://", c.Server.BaseURL)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("dsn cannot be empty when using the %s store", c.Store.Driver)
		}
	default:
		return fmt.Errorf("store driver must be 'memory', 'sqlite' or 'postgres', got %q", c.Store.Driver)
	}

	switch c.Generation.Provider {
	case "none", "bedrock":
	case "openai", "gemini", "huggingface":
		if c.Generation.APIKey == "" {
			return fmt.Errorf("api key cannot be empty for the %s provider", c.Generation.Provider)
		}
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}

	switch c.Generation.Cache.Type {
	case "none", "memory":
	case "redis":
		if c.Generation.Cache.Redis.Address == "" {
			return errors.New("redis address cannot be empty when using redis cache")
		}
	default:
		return fmt.Errorf("cache type must be 'none', 'memory' or 'redis', got %q", c.Generation.Cache.Type)
	}

	if c.Site.ReportConcurrency < 1 {
		return errors.New("report concurrency must be at least 1")
	}

	return nil
}
