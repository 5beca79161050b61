package models

import "time"

// AlertType enumerates the alert categories the evaluator can raise.
type AlertType string

const (
	AlertSurgeWarning     AlertType = "surge_warning"
	AlertResourceCritical AlertType = "resource_critical"
	AlertAnomalyDetected  AlertType = "anomaly_detected"
	AlertWeather          AlertType = "weather_alert"
	AlertPollution        AlertType = "pollution_alert"
	AlertEpidemic         AlertType = "epidemic_alert"
	AlertSystem           AlertType = "system"
)

// AlertSeverity captures how loudly an alert should surface.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Valid reports whether s is a known severity.
func (s AlertSeverity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityCritical:
		return true
	}
	return false
}

// Alert is a threshold-triggered notification. Alerts reach a terminal state
// via acknowledgement (external) or expiry (passive); expired alerts stay
// readable but inert.
type Alert struct {
	ID                  string        `json:"id"`
	Title               string        `json:"title"`
	Message             string        `json:"message"`
	Type                AlertType     `json:"alert_type"`
	Severity            AlertSeverity `json:"severity"`
	City                string        `json:"city"`
	RelatedPredictionID string        `json:"related_prediction_id,omitempty"`
	IsAcknowledged      bool          `json:"is_acknowledged"`
	AcknowledgedBy      string        `json:"acknowledged_by,omitempty"`
	AcknowledgedAt      *time.Time    `json:"acknowledged_at,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	ExpiresAt           time.Time     `json:"expires_at"`
}

// Active reports whether the alert still demands attention at the given time.
func (a Alert) Active(now time.Time) bool {
	return !a.IsAcknowledged && now.Before(a.ExpiresAt)
}
