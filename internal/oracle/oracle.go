package oracle

import (
	"context"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// SignalOracle supplies environmental readings and scheduled events for a city.
type SignalOracle interface {
	GetSignal(ctx context.Context, city string) (models.SignalReading, error)
	GetEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error)
}
