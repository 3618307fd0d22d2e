// Package openai embeds text with the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrMissingKey is returned when no API key is configured.
var ErrMissingKey = errors.New("openai embeddings: api key missing")

type Provider struct {
	client openai.Client
	model  string
	hasKey bool
}

// New builds a provider. An empty baseURL uses the SDK default.
func New(apiKey, baseURL, model string) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &Provider{client: openai.NewClient(opts...), model: model, hasKey: apiKey != ""}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if !p.hasKey {
		return nil, ErrMissingKey
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(p.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, errors.New("openai embeddings: no embedding returned")
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}

// HealthPing reports a missing key without spending a request.
func (p *Provider) HealthPing(ctx context.Context) error {
	if !p.hasKey {
		return ErrMissingKey
	}
	_, err := p.Embed(ctx, "health-check")
	return err
}
