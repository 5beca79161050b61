package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// MemorySignalStore keeps readings in memory, ordered RecordedAt-descending
// on read.
type MemorySignalStore struct {
	mu       sync.RWMutex
	readings []models.SignalReading
}

// NewMemorySignalStore returns an empty store.
func NewMemorySignalStore() *MemorySignalStore {
	return &MemorySignalStore{}
}

func (s *MemorySignalStore) SaveSignal(_ context.Context, reading models.SignalReading) (models.SignalReading, error) {
	if reading.ID == "" {
		reading.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, reading)
	return reading, nil
}

func (s *MemorySignalStore) LatestSignal(ctx context.Context, city string) (models.SignalReading, error) {
	list, err := s.ListSignals(ctx, city, 1)
	if err != nil {
		return models.SignalReading{}, err
	}
	if len(list) == 0 {
		return models.SignalReading{}, fmt.Errorf("signal for %s: %w", city, ErrNotFound)
	}
	return list[0], nil
}

func (s *MemorySignalStore) ListSignals(_ context.Context, city string, limit int) ([]models.SignalReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SignalReading, 0)
	for _, r := range s.readings {
		if strings.EqualFold(r.City, city) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryPredictionStore keeps forecast runs in memory, IssuedAt-descending
// on read.
type MemoryPredictionStore struct {
	mu   sync.RWMutex
	runs []models.SurgePrediction
}

// NewMemoryPredictionStore returns an empty store.
func NewMemoryPredictionStore() *MemoryPredictionStore {
	return &MemoryPredictionStore{}
}

func (s *MemoryPredictionStore) SavePrediction(_ context.Context, p models.SurgePrediction) (models.SurgePrediction, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, p)
	return p, nil
}

func (s *MemoryPredictionStore) LatestPrediction(ctx context.Context, city string) (models.SurgePrediction, error) {
	list, err := s.ListPredictions(ctx, city, 1)
	if err != nil {
		return models.SurgePrediction{}, err
	}
	if len(list) == 0 {
		return models.SurgePrediction{}, fmt.Errorf("prediction for %s: %w", city, ErrNotFound)
	}
	return list[0], nil
}

func (s *MemoryPredictionStore) ListPredictions(_ context.Context, city string, limit int) ([]models.SurgePrediction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SurgePrediction, 0)
	for _, p := range s.runs {
		if strings.EqualFold(p.City, city) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryRecommendationStore keeps recommendations in memory.
type MemoryRecommendationStore struct {
	mu   sync.RWMutex
	recs []models.ResourceRecommendation
}

// NewMemoryRecommendationStore returns an empty store.
func NewMemoryRecommendationStore() *MemoryRecommendationStore {
	return &MemoryRecommendationStore{}
}

func (s *MemoryRecommendationStore) SaveRecommendation(_ context.Context, r models.ResourceRecommendation) (models.ResourceRecommendation, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, r)
	return r, nil
}

func (s *MemoryRecommendationStore) ListRecommendations(_ context.Context, city string, limit int) ([]models.ResourceRecommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ResourceRecommendation, 0)
	for _, r := range s.recs {
		if strings.EqualFold(r.City, city) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].IssuedDate.After(out[j].IssuedDate) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryRecommendationStore) UpdateRecommendationStatus(_ context.Context, id string, status models.RecommendationStatus) (models.ResourceRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.recs {
		if s.recs[i].ID == id {
			s.recs[i].Status = status
			return s.recs[i], nil
		}
	}
	return models.ResourceRecommendation{}, fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
}

// MemoryAlertStore keeps alerts in memory.
type MemoryAlertStore struct {
	mu     sync.RWMutex
	alerts []models.Alert
}

// NewMemoryAlertStore returns an empty store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{}
}

func (s *MemoryAlertStore) SaveAlert(_ context.Context, a models.Alert) (models.Alert, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	return a, nil
}

func (s *MemoryAlertStore) ListAlerts(_ context.Context, city string, activeOnly bool, now time.Time) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, 0)
	for _, a := range s.alerts {
		if !strings.EqualFold(a.City, city) {
			continue
		}
		if activeOnly && !a.Active(now) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ActiveAlert returns the newest unacknowledged, unexpired alert of the given
// type for the city, or ErrNotFound.
func (s *MemoryAlertStore) ActiveAlert(_ context.Context, city string, alertType models.AlertType, now time.Time) (models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Alert
	for i := range s.alerts {
		a := s.alerts[i]
		if !strings.EqualFold(a.City, city) || a.Type != alertType || !a.Active(now) {
			continue
		}
		if found == nil || a.CreatedAt.After(found.CreatedAt) {
			found = &s.alerts[i]
		}
	}
	if found == nil {
		return models.Alert{}, fmt.Errorf("active %s alert for %s: %w", alertType, city, ErrNotFound)
	}
	return *found, nil
}

func (s *MemoryAlertStore) AcknowledgeAlert(_ context.Context, id, by string, at time.Time) (models.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].IsAcknowledged = true
			s.alerts[i].AcknowledgedBy = by
			s.alerts[i].AcknowledgedAt = &at
			return s.alerts[i], nil
		}
	}
	return models.Alert{}, fmt.Errorf("alert %s: %w", id, ErrNotFound)
}

// MemoryAdvisoryStore keeps advisories in memory.
type MemoryAdvisoryStore struct {
	mu         sync.RWMutex
	advisories []models.Advisory
}

// NewMemoryAdvisoryStore returns an empty store.
func NewMemoryAdvisoryStore() *MemoryAdvisoryStore {
	return &MemoryAdvisoryStore{}
}

func (s *MemoryAdvisoryStore) SaveAdvisory(_ context.Context, a models.Advisory) (models.Advisory, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisories = append(s.advisories, a)
	return a, nil
}

func (s *MemoryAdvisoryStore) ListAdvisories(_ context.Context, city string, limit int) ([]models.Advisory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Advisory, 0)
	for _, a := range s.advisories {
		if strings.EqualFold(a.City, city) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ValidFrom.After(out[j].ValidFrom) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
