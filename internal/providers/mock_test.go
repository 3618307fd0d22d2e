package providers

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/prompts"
	"github.com/tripplanner/itinerary-service/internal/schema"
)

func TestMock_SizedToRequest(t *testing.T) {
	req := model.TripRequest{Destination: "Kyoto", TravelDays: 4, Budget: 900, TravelStyle: model.StyleModerate, Interests: []string{"temples"}}
	resp, err := NewMock().Call(context.Background(), prompts.SystemPrompt(), prompts.BuildUserMessage(req, ""))
	require.NoError(t, err)
	res := schema.ValidateStrict(resp.Content, req)
	require.True(t, res.OK, res.Error)
	assert.Len(t, res.Output.Itinerary, 4)
	assert.Positive(t, resp.InputTokens)
	assert.Equal(t, MockName, resp.Provider)
}

func TestMock_DefaultsToOneDay(t *testing.T) {
	resp, err := NewMock().Call(context.Background(), "", "no duration here")
	require.NoError(t, err)
	res := schema.Validate(resp.Content)
	require.True(t, res.OK)
	assert.Len(t, res.Output.Itinerary, 1)
}

func TestNewGateway(t *testing.T) {
	cfg := config.NewForTesting()
	r := NewGateway(cfg, zerolog.Nop())
	assert.Contains(t, r.Names(), MockName)
	assert.Contains(t, r.Names(), OpenAIName)
	assert.Contains(t, r.Names(), GeminiName)

	cfg.Provider, cfg.FallbackProvider = "gemini", "openai"
	assert.NotContains(t, NewGateway(cfg, zerolog.Nop()).Names(), MockName)
}
