package engine

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/surgestack/surgecast-engine/internal/models"
)

// Staffing and supply ratios, fixed policy applied to the day-1 surge.
const (
	patientsPerDoctor  = 15
	patientsPerNurse   = 8
	patientsPerSupport = 12

	respiratoryPerOxygenCylinder = 5
	respiratoryPerNebulizer      = 20
	n95PerWorker                 = 50
	ppeKitsPerShift              = 20
	highRiskShiftsPerDay         = 3

	bedShareGeneral   = 0.60
	bedShareICU       = 0.25
	bedShareEmergency = 0.15
)

// CostTable prices recommendation quantities. Unit costs are operator
// configuration, not policy.
type CostTable struct {
	DoctorPerDay       float64 `yaml:"doctorPerDay"`
	NursePerDay        float64 `yaml:"nursePerDay"`
	SupportStaffPerDay float64 `yaml:"supportStaffPerDay"`
	OxygenCylinder     float64 `yaml:"oxygenCylinder"`
	Nebulizer          float64 `yaml:"nebulizer"`
	N95Mask            float64 `yaml:"n95Mask"`
	PPEKit             float64 `yaml:"ppeKit"`
	GeneralBedPerDay   float64 `yaml:"generalBedPerDay"`
	ICUBedPerDay       float64 `yaml:"icuBedPerDay"`
	EmergencyBedPerDay float64 `yaml:"emergencyBedPerDay"`
}

type costFile struct {
	Costs CostTable `yaml:"costs"`
}

// DefaultCostTable returns indicative INR unit costs.
func DefaultCostTable() CostTable {
	return CostTable{
		DoctorPerDay:       8000,
		NursePerDay:        3000,
		SupportStaffPerDay: 1500,
		OxygenCylinder:     900,
		Nebulizer:          3500,
		N95Mask:            45,
		PPEKit:             350,
		GeneralBedPerDay:   2000,
		ICUBedPerDay:       15000,
		EmergencyBedPerDay: 8000,
	}
}

// LoadCostTable reads unit costs from a YAML file. A missing file falls back
// to defaults.
func LoadCostTable(path string, logger *slog.Logger) (CostTable, error) {
	if logger == nil {
		logger = slog.Default()
	}
	table := DefaultCostTable()
	if path == "" {
		return table, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("cost table not found, using defaults", "path", path)
			return table, nil
		}
		return table, err
	}
	var file costFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return table, err
	}
	if file.Costs != (CostTable{}) {
		table = file.Costs
	}
	return table, nil
}

// Recommender sizes staffing, supplies, and beds to a prediction.
type Recommender struct {
	costs  CostTable
	logger *slog.Logger
}

// NewRecommender constructs a recommender with the given cost table.
func NewRecommender(costs CostTable, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{costs: costs, logger: logger}
}

// Recommend derives a resource plan from a prediction. Callers only invoke
// this for high or critical overall risk.
func (r *Recommender) Recommend(p models.SurgePrediction) models.ResourceRecommendation {
	surge := p.DayOne().PredictedCases - p.BaselineCases
	if surge < 0 {
		surge = 0
	}

	doctors := ceilDiv(surge, patientsPerDoctor)
	nurses := ceilDiv(surge, patientsPerNurse)
	support := ceilDiv(surge, patientsPerSupport)

	specialists := []string{"General Physician"}
	if aqiIsTopFactor(p.ContributingFactors) {
		specialists = append(specialists, "Pulmonologist")
	}

	respiratory := RespiratoryExpectedCases(p)
	oxygen := ceilDiv(respiratory, respiratoryPerOxygenCylinder)
	nebulizers := ceilDiv(respiratory, respiratoryPerNebulizer)
	workers := doctors + nurses + support
	n95 := n95PerWorker * workers
	ppe := ppeKitsPerShift * highRiskShiftsPerDay

	urgency := "within_24h"
	priority := models.PriorityForRisk(p.OverallRisk)
	if priority == models.PriorityUrgent {
		urgency = "immediate"
	}

	supplies := []models.SupplyRecommendation{
		{ItemName: "Oxygen Cylinders", CurrentRecommended: oxygen / 2, SurgeRecommended: oxygen, Urgency: urgency},
		{ItemName: "Nebulizers", CurrentRecommended: nebulizers / 2, SurgeRecommended: nebulizers, Urgency: urgency},
		{ItemName: "N95 Masks", CurrentRecommended: n95 / 2, SurgeRecommended: n95, Urgency: urgency},
		{ItemName: "PPE Kits", CurrentRecommended: ppe / 2, SurgeRecommended: ppe, Urgency: urgency},
	}

	beds := models.BedRecommendation{
		AdditionalGeneral:   int(math.Ceil(bedShareGeneral * float64(surge))),
		AdditionalICU:       int(math.Ceil(bedShareICU * float64(surge))),
		AdditionalEmergency: int(math.Ceil(bedShareEmergency * float64(surge))),
	}

	validityDays := p.HorizonDays
	if validityDays <= 0 {
		validityDays = 7
	}

	cost := float64(validityDays) * (float64(doctors)*r.costs.DoctorPerDay +
		float64(nurses)*r.costs.NursePerDay +
		float64(support)*r.costs.SupportStaffPerDay +
		float64(beds.AdditionalGeneral)*r.costs.GeneralBedPerDay +
		float64(beds.AdditionalICU)*r.costs.ICUBedPerDay +
		float64(beds.AdditionalEmergency)*r.costs.EmergencyBedPerDay)
	cost += float64(oxygen)*r.costs.OxygenCylinder +
		float64(nebulizers)*r.costs.Nebulizer +
		float64(n95)*r.costs.N95Mask +
		float64(ppe)*r.costs.PPEKit

	issued := p.IssuedAt
	if issued.IsZero() {
		issued = time.Now().UTC()
	}

	return models.ResourceRecommendation{
		City:         p.City,
		PredictionID: p.ID,
		IssuedDate:   issued,
		ValidUntil:   issued.AddDate(0, 0, validityDays),
		Priority:     priority,
		Staffing: models.StaffingRecommendation{
			AdditionalDoctors:      doctors,
			AdditionalNurses:       nurses,
			AdditionalSupportStaff: support,
			SpecialistsNeeded:      specialists,
		},
		Supplies:      supplies,
		Beds:          beds,
		EstimatedCost: cost,
		Status:        models.StatusPending,
	}
}

// aqiIsTopFactor reports whether the AQI impact ranks in the top two
// contributing factors.
func aqiIsTopFactor(factors []models.ContributingFactor) bool {
	better := 0
	var aqiScore float64
	found := false
	for _, f := range factors {
		if f.Factor == "AQI Level" {
			aqiScore = f.ImpactScore
			found = true
		}
	}
	if !found {
		return false
	}
	for _, f := range factors {
		if f.Factor != "AQI Level" && f.ImpactScore > aqiScore {
			better++
		}
	}
	return better < 2
}

func ceilDiv(n, d int) int {
	if n <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
