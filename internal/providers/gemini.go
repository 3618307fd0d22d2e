package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tripplanner/itinerary-service/internal/schema"
)

const GeminiName = "gemini"

const jsonOnlySuffix = "\n\nIMPORTANT: Return ONLY valid JSON, no markdown or explanations."

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
}

// Gemini calls the generateContent REST endpoint.
type Gemini struct {
	cfg    GeminiConfig
	client *resty.Client
}

func NewGemini(cfg GeminiConfig) *Gemini {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(120 * time.Second)
	return &Gemini{cfg: cfg, client: c}
}

func (g *Gemini) Name() string { return GeminiName }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int64   `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	UsageMetadata *struct {
		PromptTokenCount     int64 `json:"promptTokenCount"`
		CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) Call(ctx context.Context, systemPrompt, userMessage string) (*Response, error) {
	if g.cfg.APIKey == "" {
		return nil, newError(GeminiName, KindMissingCredentials, errors.New("GEMINI_API_KEY is not configured"))
	}
	body := generateRequest{
		Contents: []geminiContent{{
			Role:  "user",
			Parts: []geminiPart{{Text: systemPrompt + "\n\n" + userMessage + jsonOnlySuffix}},
		}},
		GenerationConfig: generationConfig{
			Temperature:      g.cfg.Temperature,
			MaxOutputTokens:  g.cfg.MaxTokens,
			ResponseMimeType: "application/json",
		},
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("key", g.cfg.APIKey).
		SetBody(&body).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", g.cfg.Model))
	if err != nil {
		return nil, newError(GeminiName, KindCallFailed, err)
	}
	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil && resp.StatusCode() == http.StatusOK {
		return nil, newError(GeminiName, KindCallFailed, fmt.Errorf("decode response: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		msg := resp.Status()
		if gr.Error != nil && gr.Error.Message != "" {
			msg = gr.Error.Message
		}
		return nil, newError(GeminiName, KindCallFailed, fmt.Errorf("status %d: %s", resp.StatusCode(), msg))
	}

	var text strings.Builder
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			text.WriteString(p.Text)
		}
	}
	content := schema.StripCodeFence(text.String())
	if content == "" {
		return nil, newError(GeminiName, KindEmptyResponse, errors.New("no content in Gemini response"))
	}
	out := &Response{Content: content, Provider: GeminiName, Model: g.cfg.Model}
	if gr.UsageMetadata != nil {
		out.InputTokens = gr.UsageMetadata.PromptTokenCount
		out.OutputTokens = gr.UsageMetadata.CandidatesTokenCount
	}
	return out, nil
}
