package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
	pkgcache "github.com/surgestack/surgecast-engine/pkg/cache"
)

type countingOracle struct {
	signalCalls int
	eventCalls  int
}

func (c *countingOracle) GetSignal(ctx context.Context, city string) (models.SignalReading, error) {
	c.signalCalls++
	return models.SignalReading{City: city, AQI: 180}, nil
}

func (c *countingOracle) GetEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	c.eventCalls++
	return []models.ScheduledEvent{{Name: "Test Rally", Type: models.EventMassGathering}}, nil
}

func TestCachedOracleServesSignalFromCache(t *testing.T) {
	ctx := context.Background()
	next := &countingOracle{}
	cached := NewCachedOracle(next, pkgcache.NewMemoryCache(), time.Minute, time.Minute, nil)

	first, err := cached.GetSignal(ctx, "Delhi")
	if err != nil {
		t.Fatalf("first GetSignal: %v", err)
	}
	second, err := cached.GetSignal(ctx, "Delhi")
	if err != nil {
		t.Fatalf("second GetSignal: %v", err)
	}
	if next.signalCalls != 1 {
		t.Errorf("upstream hit %d times, want 1", next.signalCalls)
	}
	if first.AQI != second.AQI || second.City != "Delhi" {
		t.Errorf("cached reading differs: %+v vs %+v", first, second)
	}

	// Another city is a separate key.
	if _, err := cached.GetSignal(ctx, "Mumbai"); err != nil {
		t.Fatalf("GetSignal mumbai: %v", err)
	}
	if next.signalCalls != 2 {
		t.Errorf("distinct city should miss the cache, upstream hits = %d", next.signalCalls)
	}
}

func TestCachedOracleEventsKeyedByWindow(t *testing.T) {
	ctx := context.Background()
	next := &countingOracle{}
	cached := NewCachedOracle(next, pkgcache.NewMemoryCache(), time.Minute, time.Minute, nil)

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	if _, err := cached.GetEvents(ctx, "Delhi", from, to); err != nil {
		t.Fatalf("GetEvents: %v", err)
	}
	if _, err := cached.GetEvents(ctx, "Delhi", from, to); err != nil {
		t.Fatalf("GetEvents repeat: %v", err)
	}
	if next.eventCalls != 1 {
		t.Errorf("same window should be cached, upstream hits = %d", next.eventCalls)
	}

	if _, err := cached.GetEvents(ctx, "Delhi", from, to.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("GetEvents wider window: %v", err)
	}
	if next.eventCalls != 2 {
		t.Errorf("different window should miss the cache, upstream hits = %d", next.eventCalls)
	}
}

func TestCachedOracleNilProviderPassesThrough(t *testing.T) {
	ctx := context.Background()
	next := &countingOracle{}
	cached := NewCachedOracle(next, nil, time.Minute, time.Minute, nil)

	for i := 0; i < 3; i++ {
		if _, err := cached.GetSignal(ctx, "Delhi"); err != nil {
			t.Fatalf("GetSignal: %v", err)
		}
	}
	if next.signalCalls != 3 {
		t.Errorf("noop cache must pass every call through, upstream hits = %d", next.signalCalls)
	}
}
