package models

import (
	"strings"
	"time"
)

// EventType enumerates scheduled event categories relevant to surge forecasting.
type EventType string

const (
	EventFestival      EventType = "festival"
	EventPollution     EventType = "pollution_event"
	EventWeather       EventType = "weather_event"
	EventMassGathering EventType = "mass_gathering"
	EventEpidemicAlert EventType = "epidemic_alert"
	EventOther         EventType = "other"
)

// ScheduledEvent is externally curated calendar data: festivals, pollution
// episodes, and other occurrences known to move hospital load.
type ScheduledEvent struct {
	Name                  string    `json:"event_name" yaml:"name"`
	Type                  EventType `json:"event_type" yaml:"type"`
	StartDate             time.Time `json:"start_date" yaml:"start_date"`
	EndDate               time.Time `json:"end_date" yaml:"end_date"`
	AffectedCities        []string  `json:"affected_cities" yaml:"affected_cities"`
	ExpectedCrowdSize     int       `json:"expected_crowd_size,omitempty" yaml:"expected_crowd_size"`
	HistoricalSurgeFactor float64   `json:"historical_surge_factor" yaml:"historical_surge_factor"`
	CommonConditions      []string  `json:"common_conditions,omitempty" yaml:"common_conditions"`
	RiskLevel             RiskLevel `json:"risk_level" yaml:"risk_level"`
	Notes                 string    `json:"notes,omitempty" yaml:"notes"`
	IsRecurring           bool      `json:"is_recurring,omitempty" yaml:"is_recurring"`
}

// Affects reports whether the event covers the city.
func (e ScheduledEvent) Affects(city string) bool {
	for _, c := range e.AffectedCities {
		if strings.EqualFold(c, city) {
			return true
		}
	}
	return false
}

// Overlaps reports whether the event window intersects [from, to]. Events
// without an end date are treated as single-day.
func (e ScheduledEvent) Overlaps(from, to time.Time) bool {
	end := e.EndDate
	if end.IsZero() {
		end = e.StartDate
	}
	return !e.StartDate.After(to) && !end.Before(from)
}

// ActiveOn reports whether the event window covers the given day.
func (e ScheduledEvent) ActiveOn(day time.Time) bool {
	return e.Overlaps(day, day)
}
