package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/surgestack/surgecast-engine/internal/metrics"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/store"
)

// AlertEvaluator applies threshold rules to a run's signal and prediction.
// One unacknowledged, unexpired alert per (city, type) at a time; repeat runs
// within the freshness window must not flood duplicates.
type AlertEvaluator struct {
	alerts store.AlertStore
	expiry time.Duration
	logger *slog.Logger
}

// NewAlertEvaluator constructs an evaluator. expiry defaults to 24h.
func NewAlertEvaluator(alerts store.AlertStore, expiry time.Duration, logger *slog.Logger) *AlertEvaluator {
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertEvaluator{alerts: alerts, expiry: expiry, logger: logger}
}

// Evaluate raises the alerts the thresholds demand. prediction may be nil
// when the forecast step failed; the pollution check still runs on the
// signal alone.
func (e *AlertEvaluator) Evaluate(ctx context.Context, signal models.SignalReading, prediction *models.SurgePrediction, now time.Time) ([]models.Alert, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	created := make([]models.Alert, 0, 2)

	if prediction != nil && prediction.OverallRisk.AtLeast(models.RiskHigh) {
		severity := models.SeverityWarning
		if prediction.OverallRisk == models.RiskCritical {
			severity = models.SeverityCritical
		}
		alert := models.Alert{
			Title: fmt.Sprintf("Patient surge expected in %s", signal.City),
			Message: fmt.Sprintf("Forecast predicts %.0f%% above baseline (%s risk) over the next %d days.",
				(prediction.SurgeFactor-1)*100, prediction.OverallRisk, prediction.HorizonDays),
			Type:                models.AlertSurgeWarning,
			Severity:            severity,
			City:                signal.City,
			RelatedPredictionID: prediction.ID,
		}
		saved, err := e.raise(ctx, alert, now)
		if err != nil {
			return created, err
		}
		if saved != nil {
			created = append(created, *saved)
		}
	}

	if signal.AQI > 300 {
		alert := models.Alert{
			Title: fmt.Sprintf("Hazardous air quality in %s", signal.City),
			Message: fmt.Sprintf("AQI %.0f (%s). Sensitive groups should stay indoors; expect elevated respiratory admissions.",
				signal.AQI, signal.AQICategory),
			Type:     models.AlertPollution,
			Severity: models.SeverityCritical,
			City:     signal.City,
		}
		saved, err := e.raise(ctx, alert, now)
		if err != nil {
			return created, err
		}
		if saved != nil {
			created = append(created, *saved)
		}
	}

	return created, nil
}

// raise persists the alert unless an active one of the same (city, type)
// already exists. Returns nil when suppressed.
func (e *AlertEvaluator) raise(ctx context.Context, alert models.Alert, now time.Time) (*models.Alert, error) {
	_, err := e.alerts.ActiveAlert(ctx, alert.City, alert.Type, now)
	switch {
	case err == nil:
		e.logger.Debug("alert suppressed by dedup", "city", alert.City, "type", alert.Type)
		return nil, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("alert dedup lookup: %w", err)
	}

	alert.CreatedAt = now
	alert.ExpiresAt = now.Add(e.expiry)
	saved, err := e.alerts.SaveAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("save alert: %w", err)
	}
	metrics.RecordAlert(string(saved.Type))
	return &saved, nil
}
