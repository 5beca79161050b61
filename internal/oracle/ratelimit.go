package oracle

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// RateLimitedOracle wraps a SignalOracle with a token-bucket limiter so bursts
// of city refreshes cannot exhaust upstream API quotas.
type RateLimitedOracle struct {
	inner   SignalOracle
	limiter *rate.Limiter
}

// NewRateLimitedOracle wraps inner with a limiter allowing rps requests per
// second and the given burst.
func NewRateLimitedOracle(inner SignalOracle, rps float64, burst int) *RateLimitedOracle {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedOracle{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// GetSignal waits for limiter permission, then forwards to the inner oracle.
func (r *RateLimitedOracle) GetSignal(ctx context.Context, city string) (models.SignalReading, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return models.SignalReading{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.inner.GetSignal(ctx, city)
}

// GetEvents waits for limiter permission, then forwards to the inner oracle.
func (r *RateLimitedOracle) GetEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.inner.GetEvents(ctx, city, from, to)
}

var _ SignalOracle = (*RateLimitedOracle)(nil)
