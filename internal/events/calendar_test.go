package events

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

func day(offset int) time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestCalendarFiltersCityAndWindow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "events.yaml")
	content := []byte(`
events:
  - name: Diwali
    type: festival
    start_date: 2026-09-03T00:00:00Z
    end_date: 2026-09-05T00:00:00Z
    affected_cities: [Delhi, Jaipur]
    historical_surge_factor: 1.8
    risk_level: high
  - name: Coastal Storm
    type: weather_event
    start_date: 2026-09-04T00:00:00Z
    end_date: 2026-09-06T00:00:00Z
    affected_cities: [Chennai]
    historical_surge_factor: 1.2
    risk_level: medium
  - name: Stale Parade
    type: mass_gathering
    start_date: 2026-08-01T00:00:00Z
    end_date: 2026-08-02T00:00:00Z
    affected_cities: [Delhi]
    historical_surge_factor: 1.1
    risk_level: low
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write events: %v", err)
	}

	cal, err := NewCalendar(path, nil)
	if err != nil {
		t.Fatalf("NewCalendar: %v", err)
	}

	got, err := cal.UpcomingEvents(context.Background(), "Delhi", day(0), day(7))
	if err != nil {
		t.Fatalf("UpcomingEvents: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Diwali" {
		t.Fatalf("expected only Diwali for Delhi window, got %+v", got)
	}

	// Case-insensitive city match.
	got, err = cal.UpcomingEvents(context.Background(), "chennai", day(0), day(7))
	if err != nil {
		t.Fatalf("UpcomingEvents: %v", err)
	}
	if len(got) != 1 || got[0].Type != models.EventWeather {
		t.Fatalf("expected weather event for chennai, got %+v", got)
	}
}

func TestCalendarMissingFile(t *testing.T) {
	cal, err := NewCalendar("/nonexistent/events.yaml", nil)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	got, err := cal.UpcomingEvents(context.Background(), "Delhi", day(0), day(7))
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty calendar, got %v err %v", got, err)
	}
}

func TestMemoryProvider(t *testing.T) {
	m := NewMemoryProvider()
	m.Add(models.ScheduledEvent{
		Name:                  "Pollution Episode",
		Type:                  models.EventPollution,
		StartDate:             day(1),
		EndDate:               day(3),
		AffectedCities:        []string{"Delhi"},
		HistoricalSurgeFactor: 1.5,
		RiskLevel:             models.RiskHigh,
	})

	got, err := m.UpcomingEvents(context.Background(), "Delhi", day(0), day(7))
	if err != nil {
		t.Fatalf("UpcomingEvents: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one event, got %d", len(got))
	}
	if got[0].ActiveOn(day(2)) != true {
		t.Fatalf("event should cover day 2")
	}
	if got[0].ActiveOn(day(5)) {
		t.Fatalf("event should not cover day 5")
	}
}
