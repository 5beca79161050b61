package events

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// Provider supplies scheduled events overlapping a forecast window.
type Provider interface {
	UpcomingEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error)
}

type calendarFile struct {
	Events []models.ScheduledEvent `yaml:"events"`
}

// Calendar is a read-only provider backed by a curated YAML file.
type Calendar struct {
	events []models.ScheduledEvent
	logger *slog.Logger
}

// NewCalendar loads events from path. A missing file yields an empty calendar.
func NewCalendar(path string, logger *slog.Logger) (*Calendar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Calendar{logger: logger}
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("event calendar not found, starting empty", "path", path)
			return c, nil
		}
		return nil, err
	}
	var file calendarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	for _, ev := range file.Events {
		if ev.Name == "" || ev.StartDate.IsZero() {
			logger.Warn("skipping invalid calendar entry", "name", ev.Name)
			continue
		}
		c.events = append(c.events, ev)
	}
	return c, nil
}

// UpcomingEvents returns events affecting the city whose window intersects
// [from, to].
func (c *Calendar) UpcomingEvents(_ context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	return filter(c.events, city, from, to), nil
}

// MemoryProvider is a mutable in-memory provider used by tests and API writes.
type MemoryProvider struct {
	mu     sync.RWMutex
	events []models.ScheduledEvent
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Add appends an event.
func (m *MemoryProvider) Add(ev models.ScheduledEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

// UpcomingEvents returns events affecting the city whose window intersects
// [from, to].
func (m *MemoryProvider) UpcomingEvents(_ context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return filter(m.events, city, from, to), nil
}

func filter(events []models.ScheduledEvent, city string, from, to time.Time) []models.ScheduledEvent {
	out := make([]models.ScheduledEvent, 0)
	for _, ev := range events {
		if !ev.Affects(city) {
			continue
		}
		if !ev.Overlaps(from, to) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
