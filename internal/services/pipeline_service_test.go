package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/baseline"
	"github.com/surgestack/surgecast-engine/internal/engine"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/store"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

type fakeRunner struct {
	result models.PipelineResult
	err    error
	calls  int
}

func (f *fakeRunner) Run(ctx context.Context, city string) (models.PipelineResult, error) {
	f.calls++
	if f.err != nil {
		return models.PipelineResult{}, f.err
	}
	r := f.result
	r.City = city
	return r, nil
}

func newTestService(t *testing.T, runner *fakeRunner) (*PipelineService, engine.Stores, store.AlertStore) {
	t.Helper()
	registry, err := baseline.NewRegistry("", nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	stores := engine.Stores{
		Signals:         store.NewMemorySignalStore(),
		Predictions:     store.NewMemoryPredictionStore(),
		Recommendations: store.NewMemoryRecommendationStore(),
		Advisories:      store.NewMemoryAdvisoryStore(),
	}
	alerts := store.NewMemoryAlertStore()
	return NewPipelineService(nil, runner, registry, stores, alerts), stores, alerts
}

func TestRunPipelineDelegatesAndReturnsResult(t *testing.T) {
	runner := &fakeRunner{result: models.PipelineResult{
		Steps: []models.StepResult{
			{Step: models.StepFetchSignal, Outcome: models.StepSucceeded},
			{Step: models.StepForecast, Outcome: models.StepSucceeded},
		},
	}}
	svc, _, _ := newTestService(t, runner)

	result, err := svc.RunPipeline(context.Background(), "Delhi")
	if err != nil {
		t.Fatalf("RunPipeline: %v", err)
	}
	if runner.calls != 1 {
		t.Errorf("runner called %d times", runner.calls)
	}
	if result.City != "Delhi" || !result.Succeeded() {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestRunPipelinePropagatesRejection(t *testing.T) {
	runner := &fakeRunner{err: utils.ErrRunInProgress}
	svc, _, _ := newTestService(t, runner)

	_, err := svc.RunPipeline(context.Background(), "Delhi")
	if !errors.Is(err, utils.ErrRunInProgress) {
		t.Errorf("error = %v, want ErrRunInProgress", err)
	}
}

func TestRunPipelineTracksLatency(t *testing.T) {
	runner := &fakeRunner{result: models.PipelineResult{}}
	svc, _, _ := newTestService(t, runner)

	for i := 0; i < 5; i++ {
		if _, err := svc.RunPipeline(context.Background(), "Delhi"); err != nil {
			t.Fatalf("RunPipeline: %v", err)
		}
	}
	if svc.LatencyP95() < 0 {
		t.Errorf("latency tracker not recording")
	}
}

func TestCityBaselineValidation(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeRunner{})

	if _, err := svc.CityBaseline("  "); !errors.Is(err, utils.ErrValidationFailed) {
		t.Errorf("blank city = %v, want ErrValidationFailed", err)
	}
	base, err := svc.CityBaseline("Delhi")
	if err != nil || base.DailyCases != 450 {
		t.Errorf("Delhi baseline = %+v (%v)", base, err)
	}
}

func TestAcknowledgeAlertValidation(t *testing.T) {
	svc, _, alerts := newTestService(t, &fakeRunner{})
	ctx := context.Background()

	if _, err := svc.AcknowledgeAlert(ctx, "", "ops"); !errors.Is(err, utils.ErrValidationFailed) {
		t.Errorf("blank id = %v, want ErrValidationFailed", err)
	}
	if _, err := svc.AcknowledgeAlert(ctx, "some-id", ""); !errors.Is(err, utils.ErrValidationFailed) {
		t.Errorf("blank acknowledger = %v, want ErrValidationFailed", err)
	}

	saved, err := alerts.SaveAlert(ctx, models.Alert{
		Type:      models.AlertSurgeWarning,
		City:      "Delhi",
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("seed alert: %v", err)
	}
	acked, err := svc.AcknowledgeAlert(ctx, saved.ID, "ops")
	if err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}
	if !acked.IsAcknowledged || acked.AcknowledgedBy != "ops" {
		t.Errorf("ack not recorded: %+v", acked)
	}
}

func TestUpdateRecommendationStatusValidation(t *testing.T) {
	svc, stores, _ := newTestService(t, &fakeRunner{})
	ctx := context.Background()

	if _, err := svc.UpdateRecommendationStatus(ctx, "some-id", "bogus"); !errors.Is(err, utils.ErrValidationFailed) {
		t.Errorf("bogus status = %v, want ErrValidationFailed", err)
	}

	saved, err := stores.Recommendations.SaveRecommendation(ctx, models.ResourceRecommendation{City: "Delhi"})
	if err != nil {
		t.Fatalf("seed recommendation: %v", err)
	}
	updated, err := svc.UpdateRecommendationStatus(ctx, saved.ID, models.StatusAcknowledged)
	if err != nil {
		t.Fatalf("UpdateRecommendationStatus: %v", err)
	}
	if updated.Status != models.StatusAcknowledged {
		t.Errorf("status = %q", updated.Status)
	}

	if _, err := svc.UpdateRecommendationStatus(ctx, "missing", models.StatusCompleted); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing id = %v, want ErrNotFound", err)
	}
}

func TestListLimitsNormalized(t *testing.T) {
	svc, stores, _ := newTestService(t, &fakeRunner{})
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		p := models.SurgePrediction{City: "Delhi", IssuedAt: time.Now().Add(time.Duration(i) * time.Minute)}
		if _, err := stores.Predictions.SavePrediction(ctx, p); err != nil {
			t.Fatalf("seed prediction: %v", err)
		}
	}
	preds, err := svc.ListPredictions(ctx, "Delhi", 0)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(preds) != 20 {
		t.Errorf("zero limit should default to 20, got %d", len(preds))
	}
}
