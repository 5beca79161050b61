package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surgestack/surgecast-engine/internal/baseline"
	"github.com/surgestack/surgecast-engine/internal/engine"
	"github.com/surgestack/surgecast-engine/internal/metrics"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/store"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// PipelineRunner triggers one forecasting run for a city.
type PipelineRunner interface {
	Run(ctx context.Context, city string) (models.PipelineResult, error)
}

// PipelineService is the application facade the transports talk to. It
// validates input, drives the pipeline, records metrics, and exposes the
// read paths over the stores.
type PipelineService struct {
	logger    *slog.Logger
	pipeline  PipelineRunner
	registry  *baseline.Registry
	stores    engine.Stores
	alerts    store.AlertStore
	latencies *utils.LatencyTracker
}

// NewPipelineService constructs the service facade.
func NewPipelineService(logger *slog.Logger, pipeline PipelineRunner, registry *baseline.Registry, stores engine.Stores, alerts store.AlertStore) *PipelineService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipelineService{
		logger:    logger,
		pipeline:  pipeline,
		registry:  registry,
		stores:    stores,
		alerts:    alerts,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// RunPipeline executes a run for one city and records its outcome.
func (s *PipelineService) RunPipeline(ctx context.Context, city string) (models.PipelineResult, error) {
	if s.pipeline == nil {
		return models.PipelineResult{}, fmt.Errorf("pipeline not configured")
	}

	start := time.Now()
	result, err := s.pipeline.Run(ctx, city)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveRun(duration, metrics.OutcomeRejected)
		s.logger.Warn("pipeline run rejected", slog.String("city", city), slog.Any("error", err))
		return models.PipelineResult{}, err
	}

	outcome := metrics.OutcomeSuccess
	for _, step := range result.Steps {
		if step.Outcome == models.StepFailed {
			outcome = metrics.OutcomeError
			metrics.RecordStepFailure(string(step.Step), step.ErrorKind)
		}
	}
	metrics.ObserveRun(duration, outcome)
	s.latencies.Observe(duration)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		s.logger.Info("pipeline latency", slog.Duration("p95", s.latencies.P95()), slog.Int("samples", count))
	}

	return result, nil
}

// Cities lists the cities with known baselines.
func (s *PipelineService) Cities() []string {
	return s.registry.Cities()
}

// CityBaseline resolves the baseline used for a city, falling back to the
// national default for unknown cities.
func (s *PipelineService) CityBaseline(city string) (baseline.CityBaseline, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return baseline.CityBaseline{}, fmt.Errorf("city required: %w", utils.ErrValidationFailed)
	}
	return s.registry.Lookup(city), nil
}

// LatestSignal returns the most recent stored reading for a city.
func (s *PipelineService) LatestSignal(ctx context.Context, city string) (models.SignalReading, error) {
	return s.stores.Signals.LatestSignal(ctx, city)
}

// LatestPrediction returns the most recent forecast for a city.
func (s *PipelineService) LatestPrediction(ctx context.Context, city string) (models.SurgePrediction, error) {
	return s.stores.Predictions.LatestPrediction(ctx, city)
}

// ListPredictions returns recent forecasts, newest first.
func (s *PipelineService) ListPredictions(ctx context.Context, city string, limit int) ([]models.SurgePrediction, error) {
	return s.stores.Predictions.ListPredictions(ctx, city, normalizeLimit(limit))
}

// ListAlerts returns alerts for a city, optionally only active ones.
func (s *PipelineService) ListAlerts(ctx context.Context, city string, activeOnly bool) ([]models.Alert, error) {
	return s.alerts.ListAlerts(ctx, city, activeOnly, time.Now().UTC())
}

// AcknowledgeAlert marks an alert as handled, clearing it from dedup.
func (s *PipelineService) AcknowledgeAlert(ctx context.Context, id, by string) (models.Alert, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(by) == "" {
		return models.Alert{}, fmt.Errorf("alert id and acknowledger required: %w", utils.ErrValidationFailed)
	}
	return s.alerts.AcknowledgeAlert(ctx, id, by, time.Now().UTC())
}

// ListRecommendations returns recent recommendations, newest first.
func (s *PipelineService) ListRecommendations(ctx context.Context, city string, limit int) ([]models.ResourceRecommendation, error) {
	return s.stores.Recommendations.ListRecommendations(ctx, city, normalizeLimit(limit))
}

// UpdateRecommendationStatus moves a recommendation through its lifecycle.
func (s *PipelineService) UpdateRecommendationStatus(ctx context.Context, id string, status models.RecommendationStatus) (models.ResourceRecommendation, error) {
	if strings.TrimSpace(id) == "" {
		return models.ResourceRecommendation{}, fmt.Errorf("recommendation id required: %w", utils.ErrValidationFailed)
	}
	if !status.Valid() {
		return models.ResourceRecommendation{}, fmt.Errorf("unknown status %q: %w", status, utils.ErrValidationFailed)
	}
	return s.stores.Recommendations.UpdateRecommendationStatus(ctx, id, status)
}

// ListAdvisories returns recent advisories for a city.
func (s *PipelineService) ListAdvisories(ctx context.Context, city string, limit int) ([]models.Advisory, error) {
	return s.stores.Advisories.ListAdvisories(ctx, city, normalizeLimit(limit))
}

// ArchivedPredictions reads past forecasts from the long-term archive.
func (s *PipelineService) ArchivedPredictions(ctx context.Context, city string, limit int) ([]models.SurgePrediction, error) {
	if !s.stores.Archive.Enabled() {
		return nil, fmt.Errorf("archive not configured")
	}
	return s.stores.Archive.ListPredictions(ctx, city, normalizeLimit(limit))
}

// LatencyP95 returns the current p95 pipeline latency.
func (s *PipelineService) LatencyP95() time.Duration {
	if s.latencies == nil {
		return 0
	}
	return s.latencies.P95()
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
