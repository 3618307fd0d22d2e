package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// EnvPrefix is prepended to every variable name, e.g. ITINERARY_SERVICE_HTTP_PORT.
const EnvPrefix = "ITINERARY_SERVICE"

// Config holds the configuration for the itinerary service.
type Config struct {
	// Build target selects high-level environment: local or cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// Derived or override drivers
	DBDriver    string `envconfig:"DB_DRIVER" default:"auto"`
	VectorStore string `envconfig:"VECTOR_STORE" default:"none"`
	LimiterKind string `envconfig:"LIMITER" default:"auto"`

	HTTPPort int    `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Provider selection
	Provider         string  `envconfig:"AI_PROVIDER" default:"gemini"`
	FallbackProvider string  `envconfig:"AI_FALLBACK_PROVIDER" default:"openai"`
	ProviderRPS      float64 `envconfig:"PROVIDER_RPS" default:"0"`

	OpenAIAPIKey         string  `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL        string  `envconfig:"OPENAI_BASE_URL" default:""`
	OpenAIModel          string  `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITemperature    float64 `envconfig:"OPENAI_TEMPERATURE" default:"0.4"`
	OpenAIMaxTokens      int64   `envconfig:"OPENAI_MAX_TOKENS" default:"4000"`
	OpenAIEmbeddingModel string  `envconfig:"OPENAI_EMBEDDING_MODEL" default:"text-embedding-3-small"`

	GeminiAPIKey      string  `envconfig:"GEMINI_API_KEY" default:""`
	GeminiBaseURL     string  `envconfig:"GEMINI_BASE_URL" default:"https://generativelanguage.googleapis.com"`
	GeminiModel       string  `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
	GeminiTemperature float64 `envconfig:"GEMINI_TEMPERATURE" default:"0.4"`
	GeminiMaxTokens   int64   `envconfig:"GEMINI_MAX_TOKENS" default:"4000"`

	// Tool calling (openai backend only)
	EnableTools       bool `envconfig:"ENABLE_TOOLS" default:"false"`
	MaxToolIterations int  `envconfig:"MAX_TOOL_ITERATIONS" default:"3"`

	// Retrieval
	EnableRetrieval   bool   `envconfig:"ENABLE_RETRIEVAL" default:"true"`
	EmbedProvider     string `envconfig:"EMBED_PROVIDER" default:"openai"`
	EmbedModel        string `envconfig:"EMBED_MODEL" default:"nomic-embed-text"`
	OllamaURL         string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`
	WeaviateURL       string `envconfig:"WEAVIATE_URL" default:"localhost:8082"`
	RAGTopK           int    `envconfig:"RAG_TOP_K" default:"12"`
	RAGMaxChunkLength int    `envconfig:"RAG_MAX_CHUNK_LENGTH" default:"500"`

	// Guards
	RateLimitPerHour int    `envconfig:"AI_RATE_LIMIT_PER_HOUR" default:"30"`
	DailyTokenQuota  int64  `envconfig:"AI_DAILY_TOKEN_QUOTA_PER_USER" default:"500000"`
	RedisURL         string `envconfig:"REDIS_URL" default:""`

	StrictValidation bool `envconfig:"STRICT_VALIDATION" default:"false"`

	// Usage ledger storage
	SQLitePath      string `envconfig:"SQLITE_PATH" default:"./data/usage.db"`
	PostgresDSN     string `envconfig:"POSTGRES_DSN" default:""`
	SpannerDatabase string `envconfig:"SPANNER_DATABASE" default:""` // projects/<p>/instances/<i>/databases/<d>

	// Health checks
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
}

// ResolveDefaults validates enums and derives DBDriver and LimiterKind when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB, defaultLimiter string

	switch c.BuildTarget {
	case "local":
		defaultDB, defaultLimiter = "sqlite", "memory"
	case "cloud":
		defaultDB, defaultLimiter = "postgres", "redis"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	if c.LimiterKind == "" || c.LimiterKind == "auto" {
		c.LimiterKind = defaultLimiter
	}
	if c.VectorStore == "" {
		c.VectorStore = "none"
	}

	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"DB_DRIVER", c.DBDriver, []string{"sqlite", "postgres", "spanner", "memory"}},
		{"LIMITER", c.LimiterKind, []string{"memory", "redis"}},
		{"VECTOR_STORE", c.VectorStore, []string{"none", "memory", "weaviate", "postgres"}},
		{"EMBED_PROVIDER", c.EmbedProvider, []string{"openai", "ollama"}},
		{"AI_PROVIDER", c.Provider, []string{"openai", "gemini", "mock"}},
	}
	for _, ch := range checks {
		if !contains(ch.allowed, ch.value) {
			return fmt.Errorf("unsupported %s: %s", ch.name, ch.value)
		}
	}
	if c.FallbackProvider != "" && !contains([]string{"openai", "gemini", "mock"}, c.FallbackProvider) {
		return fmt.Errorf("unsupported AI_FALLBACK_PROVIDER: %s", c.FallbackProvider)
	}

	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when DB_DRIVER=postgres")
	}
	if c.DBDriver == "spanner" && c.SpannerDatabase == "" {
		return fmt.Errorf("SPANNER_DATABASE is required when DB_DRIVER=spanner")
	}
	if c.VectorStore == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required when VECTOR_STORE=postgres")
	}
	if c.LimiterKind == "redis" && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required when LIMITER=redis")
	}
	if c.RateLimitPerHour < 1 {
		return fmt.Errorf("AI_RATE_LIMIT_PER_HOUR must be positive, got %d", c.RateLimitPerHour)
	}
	if c.RAGTopK < 1 {
		return fmt.Errorf("RAG_TOP_K must be positive, got %d", c.RAGTopK)
	}
	if c.MaxToolIterations < 0 {
		c.MaxToolIterations = 0
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// LoadDotEnv loads the first .env file found in the working directory or
// the user config directory. Existing environment variables win.
func LoadDotEnv() {
	for _, path := range dotEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func dotEnvPaths() []string {
	paths := []string{".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "itinerary-service", ".env"))
	}
	return paths
}

// New creates a new Config by parsing environment variables.
// Example: ITINERARY_SERVICE_HTTP_PORT, ITINERARY_SERVICE_AI_PROVIDER
func New() (*Config, error) {
	LoadDotEnv()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("limiter", cfg.LimiterKind).
		Str("vector_store", cfg.VectorStore).
		Int("port", cfg.HTTPPort).
		Str("provider", cfg.Provider).
		Str("fallback_provider", cfg.FallbackProvider).
		Bool("openai_key_present", cfg.OpenAIAPIKey != "").
		Bool("gemini_key_present", cfg.GeminiAPIKey != "").
		Str("embed_provider", cfg.EmbedProvider).
		Bool("retrieval", cfg.EnableRetrieval).
		Bool("tools", cfg.EnableTools).
		Bool("strict_validation", cfg.StrictValidation).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a deterministic in-memory config.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:          "local",
		DBDriver:             "memory",
		VectorStore:          "none",
		LimiterKind:          "memory",
		HTTPPort:             8080,
		LogLevel:             "debug",
		Provider:             "mock",
		FallbackProvider:     "",
		OpenAIModel:          "gpt-4o-mini",
		OpenAITemperature:    0.4,
		OpenAIMaxTokens:      4000,
		OpenAIEmbeddingModel: "text-embedding-3-small",
		GeminiBaseURL:        "https://generativelanguage.googleapis.com",
		GeminiModel:          "gemini-2.5-flash",
		GeminiTemperature:    0.4,
		GeminiMaxTokens:      4000,
		MaxToolIterations:    3,
		EnableRetrieval:      false,
		EmbedProvider:        "ollama",
		EmbedModel:           "nomic-embed-text",
		OllamaURL:            "http://localhost:11434",
		WeaviateURL:          "localhost:8082",
		RAGTopK:              12,
		RAGMaxChunkLength:    500,
		RateLimitPerHour:     30,
		DailyTokenQuota:      500000,
		SQLitePath:           ":memory:",

		HealthIntervalSeconds:     30,
		HealthProbeTimeoutSeconds: 2,
	}
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// HealthInterval returns the polling interval for component health checks.
func (c *Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

// HealthProbeTimeout bounds a single health probe.
func (c *Config) HealthProbeTimeout() time.Duration {
	return time.Duration(c.HealthProbeTimeoutSeconds) * time.Second
}

// Providers returns the ordered provider list: primary, then fallback when distinct.
func (c *Config) Providers() []string {
	out := []string{c.Provider}
	if c.FallbackProvider != "" && c.FallbackProvider != c.Provider {
		out = append(out, c.FallbackProvider)
	}
	return out
}
