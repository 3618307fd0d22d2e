package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/config"
	"github.com/tripplanner/itinerary-service/internal/ratelimit"
)

// NewLimiter returns the request limiter for cfg.LimiterKind. The redis
// limiter is returned even when the first ping fails; the orchestrator
// fails open while it is unreachable.
func NewLimiter(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ratelimit.Limiter, error) {
	switch cfg.LimiterKind {
	case "memory":
		return ratelimit.NewMemoryLimiter(cfg.RateLimitPerHour), nil
	case "redis":
		rdb, err := ratelimit.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		lim := ratelimit.NewRedisLimiter(rdb, cfg.RateLimitPerHour, ratelimit.DefaultWindow)
		go func() {
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := lim.HealthPing(pctx); err != nil {
				log.Warn().Err(err).Msg("redis limiter ping failed")
				return
			}
			log.Debug().Msg("redis limiter ready")
		}()
		return lim, nil
	default:
		return nil, fmt.Errorf("unknown LIMITER: %s", cfg.LimiterKind)
	}
}
