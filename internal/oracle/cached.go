package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgestack/surgecast-engine/internal/cache"
	"github.com/surgestack/surgecast-engine/internal/models"
)

// CachedOracle serves signal and event reads from the cache within their
// TTLs, shielding the upstream from repeated fetches inside one freshness
// window. Errors from the cache degrade to a direct fetch.
type CachedOracle struct {
	next      SignalOracle
	cache     cache.Provider
	signalTTL time.Duration
	eventsTTL time.Duration
	logger    *slog.Logger
}

// NewCachedOracle wraps next with read-through caching.
func NewCachedOracle(next SignalOracle, provider cache.Provider, signalTTL, eventsTTL time.Duration, logger *slog.Logger) *CachedOracle {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	if signalTTL <= 0 {
		signalTTL = 10 * time.Minute
	}
	if eventsTTL <= 0 {
		eventsTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedOracle{next: next, cache: provider, signalTTL: signalTTL, eventsTTL: eventsTTL, logger: logger}
}

var _ SignalOracle = (*CachedOracle)(nil)

// GetSignal returns the cached reading for the city when fresh.
func (c *CachedOracle) GetSignal(ctx context.Context, city string) (models.SignalReading, error) {
	key := fmt.Sprintf("oracle:signal:%s", city)
	if data, err := c.cache.Get(ctx, key); err == nil {
		var reading models.SignalReading
		if err := json.Unmarshal(data, &reading); err == nil {
			return reading, nil
		}
		_ = c.cache.Del(ctx, key)
	}

	reading, err := c.next.GetSignal(ctx, city)
	if err != nil {
		return models.SignalReading{}, err
	}
	if data, err := json.Marshal(reading); err == nil {
		if err := c.cache.Set(ctx, key, data, c.signalTTL); err != nil {
			c.logger.Debug("signal cache write failed", "city", city, "error", err)
		}
	}
	return reading, nil
}

// GetEvents returns cached events for the city and window when fresh.
func (c *CachedOracle) GetEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	key := fmt.Sprintf("oracle:events:%s:%d:%d", city, from.Unix(), to.Unix())
	if data, err := c.cache.Get(ctx, key); err == nil {
		var evs []models.ScheduledEvent
		if err := json.Unmarshal(data, &evs); err == nil {
			return evs, nil
		}
		_ = c.cache.Del(ctx, key)
	}

	evs, err := c.next.GetEvents(ctx, city, from, to)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(evs); err == nil {
		if err := c.cache.Set(ctx, key, data, c.eventsTTL); err != nil {
			c.logger.Debug("events cache write failed", "city", city, "error", err)
		}
	}
	return evs, nil
}
