package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

func TestSignalStoreLatestOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore()

	older := models.SignalReading{City: "Delhi", RecordedAt: time.Now().Add(-2 * time.Hour), AQI: 180}
	newer := models.SignalReading{City: "Delhi", RecordedAt: time.Now(), AQI: 320}
	other := models.SignalReading{City: "Mumbai", RecordedAt: time.Now(), AQI: 90}

	for _, r := range []models.SignalReading{older, newer, other} {
		if _, err := s.SaveSignal(ctx, r); err != nil {
			t.Fatalf("SaveSignal: %v", err)
		}
	}

	got, err := s.LatestSignal(ctx, "Delhi")
	if err != nil {
		t.Fatalf("LatestSignal: %v", err)
	}
	if got.AQI != 320 {
		t.Errorf("latest signal AQI = %.0f, want 320", got.AQI)
	}
	if got.ID == "" {
		t.Errorf("expected assigned id")
	}

	if _, err := s.LatestSignal(ctx, "Gotham"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown city, got %v", err)
	}
}

func TestPredictionStoreSupersedes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryPredictionStore()

	first := models.SurgePrediction{City: "Delhi", IssuedAt: time.Now().Add(-time.Hour), SurgeFactor: 1.2}
	second := models.SurgePrediction{City: "Delhi", IssuedAt: time.Now(), SurgeFactor: 1.9}
	if _, err := s.SavePrediction(ctx, first); err != nil {
		t.Fatalf("SavePrediction: %v", err)
	}
	if _, err := s.SavePrediction(ctx, second); err != nil {
		t.Fatalf("SavePrediction: %v", err)
	}

	got, err := s.LatestPrediction(ctx, "delhi")
	if err != nil {
		t.Fatalf("LatestPrediction: %v", err)
	}
	if got.SurgeFactor != 1.9 {
		t.Errorf("latest surge factor = %.2f, want 1.9", got.SurgeFactor)
	}

	all, err := s.ListPredictions(ctx, "Delhi", 0)
	if err != nil {
		t.Fatalf("ListPredictions: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("runs are append-only, got %d records", len(all))
	}
}

func TestRecommendationStatusLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRecommendationStore()

	saved, err := s.SaveRecommendation(ctx, models.ResourceRecommendation{City: "Delhi", IssuedDate: time.Now()})
	if err != nil {
		t.Fatalf("SaveRecommendation: %v", err)
	}
	if saved.Status != models.StatusPending {
		t.Errorf("new recommendation status = %q, want pending", saved.Status)
	}

	updated, err := s.UpdateRecommendationStatus(ctx, saved.ID, models.StatusAcknowledged)
	if err != nil {
		t.Fatalf("UpdateRecommendationStatus: %v", err)
	}
	if updated.Status != models.StatusAcknowledged {
		t.Errorf("status = %q after update", updated.Status)
	}

	if _, err := s.UpdateRecommendationStatus(ctx, "missing", models.StatusCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAlertDedupLookup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryAlertStore()
	now := time.Now()

	active := models.Alert{
		City:      "Delhi",
		Type:      models.AlertSurgeWarning,
		Severity:  models.SeverityCritical,
		CreatedAt: now.Add(-time.Hour),
		ExpiresAt: now.Add(23 * time.Hour),
	}
	expired := models.Alert{
		City:      "Delhi",
		Type:      models.AlertPollution,
		CreatedAt: now.Add(-48 * time.Hour),
		ExpiresAt: now.Add(-24 * time.Hour),
	}
	if _, err := s.SaveAlert(ctx, active); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}
	if _, err := s.SaveAlert(ctx, expired); err != nil {
		t.Fatalf("SaveAlert: %v", err)
	}

	if _, err := s.ActiveAlert(ctx, "Delhi", models.AlertSurgeWarning, now); err != nil {
		t.Errorf("expected active surge_warning, got %v", err)
	}
	if _, err := s.ActiveAlert(ctx, "Delhi", models.AlertPollution, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired alert must not satisfy dedup lookup, got %v", err)
	}

	// Acknowledging removes the alert from dedup consideration.
	saved, _ := s.ActiveAlert(ctx, "Delhi", models.AlertSurgeWarning, now)
	acked, err := s.AcknowledgeAlert(ctx, saved.ID, "dr.rao", now)
	if err != nil {
		t.Fatalf("AcknowledgeAlert: %v", err)
	}
	if !acked.IsAcknowledged || acked.AcknowledgedBy != "dr.rao" || acked.AcknowledgedAt == nil {
		t.Errorf("acknowledgement fields not set: %+v", acked)
	}
	if _, err := s.ActiveAlert(ctx, "Delhi", models.AlertSurgeWarning, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("acknowledged alert must not satisfy dedup lookup, got %v", err)
	}

	activeList, err := s.ListAlerts(ctx, "Delhi", true, now)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(activeList) != 0 {
		t.Errorf("active list should be empty, got %d", len(activeList))
	}
	allList, _ := s.ListAlerts(ctx, "Delhi", false, now)
	if len(allList) != 2 {
		t.Errorf("full list should keep expired and acked alerts, got %d", len(allList))
	}
}
