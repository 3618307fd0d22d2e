package providers

import (
	"context"

	"golang.org/x/time/rate"
)

type paced struct {
	Backend
	limiter *rate.Limiter
}

// Paced limits outbound calls on b to rps per second. A non-positive rps
// returns b unchanged.
func Paced(b Backend, rps float64) Backend {
	if rps <= 0 {
		return b
	}
	return &paced{Backend: b, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

func (p *paced) Call(ctx context.Context, systemPrompt, userMessage string) (*Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, newError(p.Name(), KindCallFailed, err)
	}
	return p.Backend.Call(ctx, systemPrompt, userMessage)
}
