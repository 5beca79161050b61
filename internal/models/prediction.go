package models

import (
	"fmt"
	"time"
)

// RiskLevel captures surge risk bands derived from the surge factor.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskOrder = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Valid reports whether the level is one of the known bands.
func (r RiskLevel) Valid() bool {
	_, ok := riskOrder[r]
	return ok
}

// AtLeast reports whether r is the same band as other or worse.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// MaxRisk returns the worse of two bands.
func MaxRisk(a, b RiskLevel) RiskLevel {
	if riskOrder[b] > riskOrder[a] {
		return b
	}
	return a
}

// RiskForSurgeFactor applies the fixed banding: <1.10 low, <1.30 medium,
// <1.60 high, otherwise critical.
func RiskForSurgeFactor(factor float64) RiskLevel {
	switch {
	case factor < 1.10:
		return RiskLow
	case factor < 1.30:
		return RiskMedium
	case factor < 1.60:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// DailyPrediction is one day of the forecast horizon.
type DailyPrediction struct {
	Day            int       `json:"day"`
	Date           time.Time `json:"date"`
	PredictedCases int       `json:"predicted_cases"`
	LowerBound     int       `json:"predicted_cases_lower"`
	UpperBound     int       `json:"predicted_cases_upper"`
	RiskLevel      RiskLevel `json:"risk_level"`
	Confidence     float64   `json:"confidence_score"`
}

// ContributingFactor names a cause with its normalized impact score.
type ContributingFactor struct {
	Factor      string  `json:"factor"`
	ImpactScore float64 `json:"impact_score"`
	Description string  `json:"description,omitempty"`
}

// LikelyCondition is a health condition expected during the surge.
type LikelyCondition struct {
	Condition     string  `json:"condition"`
	Probability   float64 `json:"probability"`
	ExpectedCases int     `json:"expected_cases"`
}

// SurgePrediction is one forecast run for a city. Runs are append-only:
// a new run supersedes, never mutates, earlier ones.
type SurgePrediction struct {
	ID                  string               `json:"id"`
	City                string               `json:"city"`
	IssuedAt            time.Time            `json:"issued_at"`
	HorizonDays         int                  `json:"prediction_horizon_days"`
	Daily               []DailyPrediction    `json:"predictions"`
	BaselineCases       int                  `json:"baseline_cases"`
	SurgeFactor         float64              `json:"surge_factor"`
	OverallRisk         RiskLevel            `json:"overall_risk"`
	ContributingFactors []ContributingFactor `json:"contributing_factors"`
	LikelyConditions    []LikelyCondition    `json:"likely_conditions"`
	Summary             string               `json:"summary,omitempty"`
	ModelVersion        string               `json:"model_version,omitempty"`
}

// Validate checks the structural invariants every prediction must hold,
// regardless of whether it came from the rule engine or an external oracle.
func (p SurgePrediction) Validate() error {
	if p.City == "" {
		return fmt.Errorf("prediction missing city")
	}
	if p.BaselineCases <= 0 {
		return fmt.Errorf("baseline cases must be positive, got %d", p.BaselineCases)
	}
	if len(p.Daily) == 0 {
		return fmt.Errorf("prediction has no daily entries")
	}
	if p.HorizonDays != len(p.Daily) {
		return fmt.Errorf("horizon %d does not match %d daily entries", p.HorizonDays, len(p.Daily))
	}
	if !p.OverallRisk.Valid() {
		return fmt.Errorf("unknown overall risk %q", p.OverallRisk)
	}
	for _, d := range p.Daily {
		if d.LowerBound > d.PredictedCases || d.PredictedCases > d.UpperBound {
			return fmt.Errorf("day %d bounds out of order: %d <= %d <= %d",
				d.Day, d.LowerBound, d.PredictedCases, d.UpperBound)
		}
		if !d.RiskLevel.Valid() {
			return fmt.Errorf("day %d has unknown risk %q", d.Day, d.RiskLevel)
		}
	}
	for _, f := range p.ContributingFactors {
		if f.ImpactScore < 0 || f.ImpactScore > 1 {
			return fmt.Errorf("factor %q impact score %.2f outside [0,1]", f.Factor, f.ImpactScore)
		}
	}
	for _, c := range p.LikelyConditions {
		if c.Probability < 0 || c.Probability > 1 {
			return fmt.Errorf("condition %q probability %.2f outside [0,1]", c.Condition, c.Probability)
		}
	}
	return nil
}

// DayOne returns the first day of the horizon.
func (p SurgePrediction) DayOne() DailyPrediction {
	if len(p.Daily) == 0 {
		return DailyPrediction{}
	}
	return p.Daily[0]
}
