package store

import (
	"context"
	"errors"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// SignalStore persists environmental readings. Readings are append-only.
type SignalStore interface {
	SaveSignal(ctx context.Context, reading models.SignalReading) (models.SignalReading, error)
	LatestSignal(ctx context.Context, city string) (models.SignalReading, error)
	ListSignals(ctx context.Context, city string, limit int) ([]models.SignalReading, error)
}

// PredictionStore persists forecast runs. Runs are append-only; a new run
// supersedes earlier ones by IssuedAt ordering.
type PredictionStore interface {
	SavePrediction(ctx context.Context, p models.SurgePrediction) (models.SurgePrediction, error)
	LatestPrediction(ctx context.Context, city string) (models.SurgePrediction, error)
	ListPredictions(ctx context.Context, city string, limit int) ([]models.SurgePrediction, error)
}

// RecommendationStore persists resource recommendations. Only the status
// field is mutable after creation.
type RecommendationStore interface {
	SaveRecommendation(ctx context.Context, r models.ResourceRecommendation) (models.ResourceRecommendation, error)
	ListRecommendations(ctx context.Context, city string, limit int) ([]models.ResourceRecommendation, error)
	UpdateRecommendationStatus(ctx context.Context, id string, status models.RecommendationStatus) (models.ResourceRecommendation, error)
}

// AlertStore persists alerts and answers the dedup query: is there an
// unacknowledged, unexpired alert of this type for this city?
type AlertStore interface {
	SaveAlert(ctx context.Context, a models.Alert) (models.Alert, error)
	ListAlerts(ctx context.Context, city string, activeOnly bool, now time.Time) ([]models.Alert, error)
	ActiveAlert(ctx context.Context, city string, alertType models.AlertType, now time.Time) (models.Alert, error)
	AcknowledgeAlert(ctx context.Context, id, by string, at time.Time) (models.Alert, error)
}

// AdvisoryStore persists generated public health advisories.
type AdvisoryStore interface {
	SaveAdvisory(ctx context.Context, a models.Advisory) (models.Advisory, error)
	ListAdvisories(ctx context.Context, city string, limit int) ([]models.Advisory, error)
}
