package providers

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/tools"
)

const OpenAIName = "openai"

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int64
	// Tool calling is off unless EnableTools is set.
	EnableTools       bool
	MaxToolIterations int
}

type OpenAI struct {
	cfg    OpenAIConfig
	client openai.Client
	log    zerolog.Logger
}

func NewOpenAI(cfg OpenAIConfig, log zerolog.Logger, extra ...option.RequestOption) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	opts = append(opts, extra...)
	return &OpenAI{
		cfg:    cfg,
		client: openai.NewClient(opts...),
		log:    log.With().Str("provider", OpenAIName).Logger(),
	}
}

func (o *OpenAI) Name() string { return OpenAIName }

func (o *OpenAI) Call(ctx context.Context, systemPrompt, userMessage string) (*Response, error) {
	if o.cfg.APIKey == "" {
		return nil, newError(OpenAIName, KindMissingCredentials, errors.New("OPENAI_API_KEY is not configured"))
	}
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		Temperature: openai.Float(o.cfg.Temperature),
		MaxTokens:   openai.Int(o.cfg.MaxTokens),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}
	if o.cfg.EnableTools && o.cfg.MaxToolIterations > 0 {
		params.Tools = toolParams()
	}

	out := &Response{Provider: OpenAIName, Model: o.cfg.Model}
	for round := 0; ; round++ {
		if round >= o.cfg.MaxToolIterations {
			params.Tools = nil
		}
		resp, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, newError(OpenAIName, KindCallFailed, err)
		}
		out.InputTokens += resp.Usage.PromptTokens
		out.OutputTokens += resp.Usage.CompletionTokens
		if resp.Model != "" {
			out.Model = resp.Model
		}
		if len(resp.Choices) == 0 {
			return nil, newError(OpenAIName, KindEmptyResponse, errors.New("no choices in OpenAI response"))
		}
		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 || len(params.Tools) == 0 {
			if msg.Content == "" {
				return nil, newError(OpenAIName, KindEmptyResponse, errors.New("no content in OpenAI response"))
			}
			out.Content = msg.Content
			return out, nil
		}
		params.Messages = append(params.Messages, msg.ToParam())
		for _, tc := range msg.ToolCalls {
			o.log.Debug().Str("tool", tc.Function.Name).Int("round", round+1).Msg("Executing tool call")
			params.Messages = append(params.Messages, openai.ToolMessage(tools.Execute(tc.Function.Name, tc.Function.Arguments), tc.ID))
		}
	}
}

func toolParams() []openai.ChatCompletionToolParam {
	defs := tools.Catalog()
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        d.Name,
				Description: openai.String(d.Description),
				Parameters:  openai.FunctionParameters(d.Parameters),
			},
		})
	}
	return out
}
