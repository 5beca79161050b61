package models

import "time"

// Priority mirrors the overall risk of the prediction a recommendation answers.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// RecommendationStatus tracks the acknowledgement lifecycle. Only external
// actors move a recommendation past pending; the pipeline never does.
type RecommendationStatus string

const (
	StatusPending      RecommendationStatus = "pending"
	StatusAcknowledged RecommendationStatus = "acknowledged"
	StatusInProgress   RecommendationStatus = "in_progress"
	StatusCompleted    RecommendationStatus = "completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s RecommendationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAcknowledged, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// StaffingRecommendation sizes additional staff to the forecast surge.
type StaffingRecommendation struct {
	AdditionalDoctors      int      `json:"additional_doctors"`
	AdditionalNurses       int      `json:"additional_nurses"`
	AdditionalSupportStaff int      `json:"additional_support_staff"`
	SpecialistsNeeded      []string `json:"specialists_needed"`
}

// SupplyRecommendation is one line item of the supply plan.
type SupplyRecommendation struct {
	ItemName           string `json:"item_name"`
	CurrentRecommended int    `json:"current_recommended"`
	SurgeRecommended   int    `json:"surge_recommended"`
	Urgency            string `json:"urgency"`
}

// BedRecommendation sizes additional bed capacity by ward type.
type BedRecommendation struct {
	AdditionalGeneral   int `json:"additional_general"`
	AdditionalICU       int `json:"additional_icu"`
	AdditionalEmergency int `json:"additional_emergency"`
}

// ResourceRecommendation derives staffing, supply, and bed deltas from one
// SurgePrediction. Created only for high or critical overall risk; immutable
// afterwards except the status field.
type ResourceRecommendation struct {
	ID            string                 `json:"id"`
	City          string                 `json:"city"`
	PredictionID  string                 `json:"prediction_id"`
	IssuedDate    time.Time              `json:"recommendation_date"`
	ValidUntil    time.Time              `json:"valid_until"`
	Priority      Priority               `json:"priority"`
	Staffing      StaffingRecommendation `json:"staffing_recommendations"`
	Supplies      []SupplyRecommendation `json:"supply_recommendations"`
	Beds          BedRecommendation      `json:"bed_recommendations"`
	EstimatedCost float64                `json:"estimated_cost"`
	Status        RecommendationStatus   `json:"status"`
	Notes         string                 `json:"notes,omitempty"`
}

// PriorityForRisk maps overall risk onto recommendation priority.
func PriorityForRisk(risk RiskLevel) Priority {
	switch risk {
	case RiskCritical:
		return PriorityUrgent
	case RiskHigh:
		return PriorityHigh
	case RiskMedium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
