package models

import "time"

// AdvisoryType enumerates public health advisory categories.
type AdvisoryType string

const (
	AdvisoryHealth    AdvisoryType = "health"
	AdvisoryPollution AdvisoryType = "pollution"
	AdvisoryWeather   AdvisoryType = "weather"
	AdvisoryEpidemic  AdvisoryType = "epidemic"
	AdvisoryFestival  AdvisoryType = "festival"
	AdvisoryGeneral   AdvisoryType = "general"
)

// Valid reports whether t is a known advisory category.
func (t AdvisoryType) Valid() bool {
	switch t {
	case AdvisoryHealth, AdvisoryPollution, AdvisoryWeather, AdvisoryEpidemic, AdvisoryFestival, AdvisoryGeneral:
		return true
	}
	return false
}

// Advisory is a public-facing guidance document generated for elevated-risk
// runs. Bilingual content mirrors the upstream advisory format.
type Advisory struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	TitleHindi      string        `json:"title_hindi,omitempty"`
	Content         string        `json:"content"`
	ContentHindi    string        `json:"content_hindi,omitempty"`
	Type            AdvisoryType  `json:"advisory_type"`
	Severity        AlertSeverity `json:"severity"`
	City            string        `json:"city"`
	ValidFrom       time.Time     `json:"valid_from"`
	ValidUntil      time.Time     `json:"valid_until"`
	Precautions     []string      `json:"precautions,omitempty"`
	SymptomsToWatch []string      `json:"symptoms_to_watch,omitempty"`
	AtRiskGroups    []string      `json:"at_risk_groups,omitempty"`
	IsActive        bool          `json:"is_active"`
	Source          string        `json:"source,omitempty"`
}
