package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testGeminiKey = "gm-test-key"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "DEMO_KEY", cfg.NASAAPIKey)
	assert.Equal(t, "https://api.nasa.gov/neo/rest/v1", cfg.NASABaseURL)
	assert.Equal(t, 10*time.Second, cfg.NASATimeout)
	assert.Equal(t, 256, cfg.NASACacheSize)
	assert.Equal(t, ProviderGemini, cfg.AnalysisProvider)
	assert.Equal(t, 30*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "gemini-pro-latest", cfg.GeminiModel)
	assert.Empty(t, cfg.GeminiAPIKey)
	assert.False(t, cfg.AnalysisEnabled())
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "impact-reports", cfg.KafkaReportTopic)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("NASA_API_KEY", "nasa-key")
	t.Setenv("NASA_BASE_URL", "http://neows.local/")
	t.Setenv("NASA_TIMEOUT", "2s")
	t.Setenv("NASA_CACHE_SIZE", "50")
	t.Setenv("ANALYSIS_PROVIDER", "openai")
	t.Setenv("ANALYSIS_TIMEOUT", "5s")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "https://api.cerebras.ai/v1")
	t.Setenv("OPENAI_MODEL", "llama3.1-8b")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_REPORT_TOPIC", "custom-reports")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "nasa-key", cfg.NASAAPIKey)
	assert.Equal(t, "http://neows.local", cfg.NASABaseURL)
	assert.Equal(t, 2*time.Second, cfg.NASATimeout)
	assert.Equal(t, 50, cfg.NASACacheSize)
	assert.Equal(t, ProviderOpenAI, cfg.AnalysisProvider)
	assert.Equal(t, 5*time.Second, cfg.AnalysisTimeout)
	assert.Equal(t, "https://api.cerebras.ai/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "llama3.1-8b", cfg.OpenAIModel)
	assert.True(t, cfg.AnalysisEnabled())
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-reports", cfg.KafkaReportTopic)
	assert.True(t, cfg.TracingEnabled)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidNASATimeout(t *testing.T) {
	t.Setenv("NASA_TIMEOUT", "bad")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NASA_TIMEOUT")
}

func TestLoad_InvalidAnalysisTimeout(t *testing.T) {
	t.Setenv("ANALYSIS_TIMEOUT", "0s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_TIMEOUT")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("NASA_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NASA_CACHE_SIZE")
}

func TestLoad_UnknownAnalysisProvider(t *testing.T) {
	t.Setenv("ANALYSIS_PROVIDER", "claude")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYSIS_PROVIDER")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_MapboxEnabledWithoutToken(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAPBOX_TOKEN")
}

func TestLoad_Mapbox(t *testing.T) {
	t.Setenv("MAPBOX_ENABLED", "true")
	t.Setenv("MAPBOX_TOKEN", "pk.test")
	t.Setenv("MAPBOX_TIMEOUT", "2s")
	t.Setenv("MAPBOX_CACHE_SIZE", "10")
	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, "pk.test", cfg.MapboxToken)
	assert.Equal(t, 2*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 10, cfg.MapboxCacheSize)
}

func TestLoad_GeminiKeyEnablesAnalysis(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", testGeminiKey)
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.AnalysisEnabled())
}

func TestLoad_ProviderNoneDisablesAnalysis(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", testGeminiKey)
	t.Setenv("ANALYSIS_PROVIDER", "none")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.AnalysisEnabled())
}

func TestLoadFrom_ExplicitValueOverridesEnv(t *testing.T) {
	t.Setenv("NASA_API_KEY", "from-env")
	v := viper.New()
	v.Set("NASA_API_KEY", "from-flag")
	v.Set("ANALYSIS_PROVIDER", "OpenAI")

	cfg, err := LoadFrom(v)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.NASAAPIKey)
	assert.Equal(t, ProviderOpenAI, cfg.AnalysisProvider)
}
