// Package analysis selects the narrative provider named by configuration.
package analysis

import (
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/chat"
	"github.com/couchcryptid/meteor-impact-service/internal/adapter/gemini"
	"github.com/couchcryptid/meteor-impact-service/internal/config"
	"github.com/couchcryptid/meteor-impact-service/internal/domain"
)

// FromConfig returns the configured provider, or nil when analysis is
// disabled or the selected provider has no API key. A nil provider makes
// every report use the fallback narrative.
func FromConfig(cfg *config.Config) domain.AnalysisProvider {
	if !cfg.AnalysisEnabled() {
		return nil
	}
	switch cfg.AnalysisProvider {
	case config.ProviderGemini:
		return gemini.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.AnalysisTimeout)
	case config.ProviderOpenAI:
		return chat.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.AnalysisTimeout)
	default:
		return nil
	}
}
