package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Analysis provider identifiers accepted by ANALYSIS_PROVIDER.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NASA NeoWs asteroid lookups.
	NASAAPIKey    string
	NASABaseURL   string
	NASATimeout   time.Duration
	NASACacheSize int

	// Narrative generation. An empty key for the selected provider disables it
	// and every report uses the deterministic fallback.
	AnalysisProvider string
	AnalysisTimeout  time.Duration
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string

	// Optional Mapbox geocoding for naming impact sites and place search.
	MapboxEnabled   bool
	MapboxToken     string
	MapboxBaseURL   string
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Report event stream.
	KafkaEnabled     bool
	KafkaBrokers     []string
	KafkaReportTopic string

	TracingEnabled bool
}

// AnalysisEnabled reports whether a narrative provider is configured with credentials.
func (c *Config) AnalysisEnabled() bool {
	switch c.AnalysisProvider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

func defaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("NASA_API_KEY", "DEMO_KEY")
	v.SetDefault("NASA_BASE_URL", "https://api.nasa.gov/neo/rest/v1")
	v.SetDefault("NASA_TIMEOUT", "10s")
	v.SetDefault("NASA_CACHE_SIZE", 256)

	v.SetDefault("ANALYSIS_PROVIDER", ProviderGemini)
	v.SetDefault("ANALYSIS_TIMEOUT", "30s")
	v.SetDefault("GEMINI_MODEL", "gemini-pro-latest")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")

	v.SetDefault("MAPBOX_ENABLED", false)
	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com/geocoding/v5/mapbox.places")
	v.SetDefault("MAPBOX_TIMEOUT", "5s")
	v.SetDefault("MAPBOX_CACHE_SIZE", 1000)

	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_REPORT_TOPIC", "impact-reports")

	v.SetDefault("TRACING_ENABLED", false)
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration through v, so callers can bind command-line
// flags to the same keys first. Bound flags that were set take precedence
// over the environment.
func LoadFrom(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	defaults(v)

	shutdownTimeout, err := parseDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	nasaTimeout, err := parseDuration(v, "NASA_TIMEOUT")
	if err != nil {
		return nil, err
	}
	analysisTimeout, err := parseDuration(v, "ANALYSIS_TIMEOUT")
	if err != nil {
		return nil, err
	}

	mapboxTimeout, err := parseDuration(v, "MAPBOX_TIMEOUT")
	if err != nil {
		return nil, err
	}

	cacheSize := v.GetInt("NASA_CACHE_SIZE")
	if cacheSize <= 0 {
		return nil, errors.New("NASA_CACHE_SIZE must be a positive integer")
	}
	mapboxCacheSize := v.GetInt("MAPBOX_CACHE_SIZE")
	if mapboxCacheSize <= 0 {
		return nil, errors.New("MAPBOX_CACHE_SIZE must be a positive integer")
	}

	cfg := &Config{
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		LogLevel:        strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:       strings.ToLower(v.GetString("LOG_FORMAT")),
		ShutdownTimeout: shutdownTimeout,

		NASAAPIKey:    v.GetString("NASA_API_KEY"),
		NASABaseURL:   strings.TrimRight(v.GetString("NASA_BASE_URL"), "/"),
		NASATimeout:   nasaTimeout,
		NASACacheSize: cacheSize,

		AnalysisProvider: strings.ToLower(v.GetString("ANALYSIS_PROVIDER")),
		AnalysisTimeout:  analysisTimeout,
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		GeminiBaseURL:    strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:    strings.TrimRight(v.GetString("OPENAI_BASE_URL"), "/"),
		OpenAIModel:      v.GetString("OPENAI_MODEL"),

		MapboxEnabled:   v.GetBool("MAPBOX_ENABLED"),
		MapboxToken:     v.GetString("MAPBOX_TOKEN"),
		MapboxBaseURL:   strings.TrimRight(v.GetString("MAPBOX_BASE_URL"), "/"),
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,

		KafkaEnabled:     v.GetBool("KAFKA_ENABLED"),
		KafkaBrokers:     parseBrokers(v.GetString("KAFKA_BROKERS")),
		KafkaReportTopic: v.GetString("KAFKA_REPORT_TOPIC"),

		TracingEnabled: v.GetBool("TRACING_ENABLED"),
	}

	switch cfg.AnalysisProvider {
	case ProviderGemini, ProviderOpenAI, ProviderNone:
	default:
		return nil, fmt.Errorf("invalid ANALYSIS_PROVIDER %q: want gemini, openai, or none", cfg.AnalysisProvider)
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_TOKEN is required when MAPBOX_ENABLED is true")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
