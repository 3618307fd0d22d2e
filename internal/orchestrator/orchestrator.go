// Package orchestrator runs one itinerary generation: guards, retrieval,
// provider calls with validation feedback and fallback, and usage logging.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/metrics"
	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/prompts"
	"github.com/tripplanner/itinerary-service/internal/providers"
	"github.com/tripplanner/itinerary-service/internal/ratelimit"
	"github.com/tripplanner/itinerary-service/internal/schema"
)

// callsPerProvider is the first attempt plus one validation retry.
const callsPerProvider = 2

type QuotaGuard interface {
	Check(ctx context.Context, userID string) (ratelimit.QuotaDecision, error)
}

type ContextRetriever interface {
	RetrieveContext(ctx context.Context, req model.TripRequest) string
}

type UsageRecorder interface {
	Record(ctx context.Context, rec model.UsageRecord)
}

// Deps are the collaborators of a run. Gateway is required; a nil guard,
// retriever or ledger is skipped.
type Deps struct {
	Limiter   ratelimit.Limiter
	Quota     QuotaGuard
	Retriever ContextRetriever
	Gateway   providers.Gateway
	Ledger    UsageRecorder
	Logger    zerolog.Logger
	Metrics   *metrics.Metrics
}

type Settings struct {
	Primary                string
	Fallback               string
	EnableRetrievalDefault bool
	StrictValidation       bool
}

// Providers returns the primary, then the fallback when set and distinct.
func (s Settings) Providers() []string {
	var out []string
	if s.Primary != "" {
		out = append(out, s.Primary)
	}
	if s.Fallback != "" && s.Fallback != s.Primary {
		out = append(out, s.Fallback)
	}
	return out
}

type Options struct {
	// EnableRetrieval overrides Settings.EnableRetrievalDefault when set.
	EnableRetrieval *bool
	RequestID       string
}

type Result struct {
	Itinerary          []model.DayItinerary `json:"itinerary"`
	TotalEstimatedCost float64              `json:"total_estimated_cost"`
	Provider           string               `json:"provider"`
	RequestID          string               `json:"requestId"`
}

type Orchestrator struct {
	deps     Deps
	settings Settings
	now      func() time.Time
}

func New(deps Deps, settings Settings) *Orchestrator {
	return &Orchestrator{deps: deps, settings: settings, now: time.Now}
}

// Generate produces a validated itinerary or an *Error. Two failures carry no
// Code: an invalid req is returned as the model.ValidationError from
// req.Validate (match it with model.IsValidationError) before any guard or
// provider runs, and context cancellation is returned as a wrapped ctx.Err()
// and writes no usage.
func (o *Orchestrator) Generate(ctx context.Context, userID string, req model.TripRequest, opts Options) (*Result, error) {
	start := o.now()
	requestID := opts.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := o.deps.Logger.With().Str("request_id", requestID).Str("user_id", userID).Logger()
	ctx = log.WithContext(ctx)

	observe := func(outcome string) {
		o.deps.Metrics.Generation(outcome, o.now().Sub(start).Seconds())
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	if o.deps.Limiter != nil {
		dec, err := o.deps.Limiter.Allow(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("Rate limiter unavailable, allowing request")
		} else if !dec.Allowed {
			log.Info().Dur("retry_after", dec.RetryAfter).Msg("Rate limit exceeded")
			observe(metrics.OutcomeRateLimit)
			return nil, &Error{Code: CodeRateLimit, Message: msgRateLimit, RetryAfter: dec.RetryAfter}
		}
	}

	if o.deps.Quota != nil {
		dec, err := o.deps.Quota.Check(ctx, userID)
		if err != nil {
			log.Warn().Err(err).Msg("Token quota lookup failed, allowing request")
		} else if !dec.Allowed {
			log.Info().Int64("used", dec.Used).Int64("ceiling", dec.Ceiling).Msg("Daily token quota exceeded")
			observe(metrics.OutcomeQuota)
			return nil, &Error{Code: CodeQuota, Message: msgQuota}
		}
	}

	ragContext := ""
	if o.retrievalEnabled(opts) {
		ragContext = o.deps.Retriever.RetrieveContext(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		observe(metrics.OutcomeCanceled)
		return nil, fmt.Errorf("generate itinerary: %w", err)
	}

	list := o.settings.Providers()
	if len(list) == 0 {
		log.Error().Msg("No model provider configured")
		observe(metrics.OutcomeInvalid)
		return nil, &Error{Code: CodeProvider, Message: msgProvider}
	}

	system := prompts.SystemPrompt()
	userMessage := prompts.BuildUserMessage(req, ragContext)

	var lastErr string
	lastContentLen := 0
	for _, provider := range list {
		for attempt := 0; attempt < callsPerProvider; attempt++ {
			msg := userMessage
			if attempt > 0 {
				msg = prompts.AppendRetry(userMessage, prompts.BuildRetryMessage(lastErr))
			}
			plog := log.With().Str("provider", provider).Int("attempt", attempt+1).Logger()

			resp, err := o.deps.Gateway.Call(ctx, provider, system, msg)
			if ctxErr := ctx.Err(); ctxErr != nil {
				observe(metrics.OutcomeCanceled)
				return nil, fmt.Errorf("generate itinerary: %w", ctxErr)
			}
			if err != nil {
				lastErr = err.Error()
				o.deps.Metrics.ProviderCall(provider, metrics.ResultError)
				plog.Warn().Err(err).Str("kind", string(providers.KindOf(err))).Msg("Provider call failed")
				break
			}

			res := o.validate(resp.Content, req)
			if !res.OK {
				lastErr = res.Error
				lastContentLen = len(resp.Content)
				o.deps.Metrics.ProviderCall(provider, metrics.ResultInvalid)
				plog.Warn().Int("issues", len(res.Issues)).Msg("Model output failed validation")
				continue
			}

			o.deps.Metrics.ProviderCall(provider, metrics.ResultOK)
			if o.deps.Ledger != nil {
				o.deps.Ledger.Record(ctx, model.UsageRecord{
					UserID:       userID,
					Provider:     provider,
					Model:        resp.Model,
					InputTokens:  resp.InputTokens,
					OutputTokens: resp.OutputTokens,
					RequestID:    requestID,
					CreatedAt:    o.now(),
				})
			}
			o.deps.Metrics.Tokens(provider, resp.InputTokens, resp.OutputTokens)
			observe(metrics.OutcomeSuccess)
			plog.Info().
				Int64("input_tokens", resp.InputTokens).
				Int64("output_tokens", resp.OutputTokens).
				Int("days", len(res.Output.Itinerary)).
				Msg("Itinerary generated")
			return &Result{
				Itinerary:          res.Output.Itinerary,
				TotalEstimatedCost: res.Output.TotalEstimatedCost,
				Provider:           provider,
				RequestID:          requestID,
			}, nil
		}
	}

	log.Error().
		Str("last_error", lastErr).
		Int("last_content_length", lastContentLen).
		Msg("All providers failed or returned invalid output")
	observe(metrics.OutcomeInvalid)
	return nil, &Error{Code: CodeValidation, Message: msgValidation}
}

func (o *Orchestrator) retrievalEnabled(opts Options) bool {
	if o.deps.Retriever == nil {
		return false
	}
	if opts.EnableRetrieval != nil {
		return *opts.EnableRetrieval
	}
	return o.settings.EnableRetrievalDefault
}

func (o *Orchestrator) validate(content string, req model.TripRequest) schema.Result {
	if o.settings.StrictValidation {
		return schema.ValidateStrict(content, req)
	}
	return schema.Validate(content)
}
