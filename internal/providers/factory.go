package providers

import (
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/config"
)

// NewGateway registers the openai and gemini backends, plus the mock backend
// when it is selected, each paced by cfg.ProviderRPS.
func NewGateway(cfg *config.Config, log zerolog.Logger) *Registry {
	r := NewRegistry()
	r.Register(Paced(NewOpenAI(OpenAIConfig{
		APIKey:            cfg.OpenAIAPIKey,
		BaseURL:           cfg.OpenAIBaseURL,
		Model:             cfg.OpenAIModel,
		Temperature:       cfg.OpenAITemperature,
		MaxTokens:         cfg.OpenAIMaxTokens,
		EnableTools:       cfg.EnableTools,
		MaxToolIterations: cfg.MaxToolIterations,
	}, log), cfg.ProviderRPS))
	r.Register(Paced(NewGemini(GeminiConfig{
		APIKey:      cfg.GeminiAPIKey,
		BaseURL:     cfg.GeminiBaseURL,
		Model:       cfg.GeminiModel,
		Temperature: cfg.GeminiTemperature,
		MaxTokens:   cfg.GeminiMaxTokens,
	}), cfg.ProviderRPS))
	if cfg.Provider == MockName || cfg.FallbackProvider == MockName {
		r.Register(NewMock())
	}
	log.Debug().Strs("providers", r.Names()).Msg("Provider gateway ready")
	return r
}
