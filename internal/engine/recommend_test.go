package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/surgestack/surgecast-engine/internal/models"
)

func criticalPrediction() models.SurgePrediction {
	f := NewForecaster(nil)
	return f.Forecast(delhiWinterSignal(), delhiBaseline, nil, time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC), 7)
}

func TestRecommendStaffingRatios(t *testing.T) {
	r := NewRecommender(DefaultCostTable(), nil)
	p := criticalPrediction()

	rec := r.Recommend(p)

	surge := p.DayOne().PredictedCases - p.BaselineCases // 855 - 450 = 405
	if surge != 405 {
		t.Fatalf("unexpected surge %d", surge)
	}
	if rec.Staffing.AdditionalDoctors != 27 { // ceil(405/15)
		t.Errorf("doctors = %d, want 27", rec.Staffing.AdditionalDoctors)
	}
	if rec.Staffing.AdditionalNurses != 51 { // ceil(405/8)
		t.Errorf("nurses = %d, want 51", rec.Staffing.AdditionalNurses)
	}
	if rec.Staffing.AdditionalSupportStaff != 34 { // ceil(405/12)
		t.Errorf("support = %d, want 34", rec.Staffing.AdditionalSupportStaff)
	}
	if rec.Priority != models.PriorityUrgent {
		t.Errorf("priority = %q, want urgent", rec.Priority)
	}
	if rec.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", rec.Status)
	}
	if !rec.ValidUntil.Equal(rec.IssuedDate.AddDate(0, 0, 7)) {
		t.Errorf("validity window = %v .. %v", rec.IssuedDate, rec.ValidUntil)
	}
	if rec.EstimatedCost <= 0 {
		t.Errorf("estimated cost not computed")
	}
}

func TestRecommendBedSplits(t *testing.T) {
	r := NewRecommender(DefaultCostTable(), nil)
	rec := r.Recommend(criticalPrediction())

	// surge 405: 60% general, 25% ICU, 15% emergency, rounded up.
	if rec.Beds.AdditionalGeneral != 243 {
		t.Errorf("general beds = %d, want 243", rec.Beds.AdditionalGeneral)
	}
	if rec.Beds.AdditionalICU != 102 { // ceil(101.25)
		t.Errorf("icu beds = %d, want 102", rec.Beds.AdditionalICU)
	}
	if rec.Beds.AdditionalEmergency != 61 { // ceil(60.75)
		t.Errorf("emergency beds = %d, want 61", rec.Beds.AdditionalEmergency)
	}
}

func TestRecommendPulmonologistForAQITopFactor(t *testing.T) {
	r := NewRecommender(DefaultCostTable(), nil)
	rec := r.Recommend(criticalPrediction())

	found := false
	for _, s := range rec.Staffing.SpecialistsNeeded {
		if s == "Pulmonologist" {
			found = true
		}
	}
	if !found {
		t.Errorf("AQI-dominated surge must include Pulmonologist, got %v", rec.Staffing.SpecialistsNeeded)
	}

	// Without an AQI factor, no Pulmonologist.
	f := NewForecaster(nil)
	cold := models.SignalReading{City: "Delhi", AQI: 60, TemperatureC: 5, HumidityPct: 85}
	p := f.Forecast(cold, delhiBaseline, nil, time.Now(), 7)
	rec = r.Recommend(p)
	for _, s := range rec.Staffing.SpecialistsNeeded {
		if s == "Pulmonologist" {
			t.Errorf("no AQI factor but Pulmonologist recommended")
		}
	}
}

func TestRecommendSuppliesFromRespiratoryLoad(t *testing.T) {
	r := NewRecommender(DefaultCostTable(), nil)
	p := criticalPrediction()
	rec := r.Recommend(p)

	resp := RespiratoryExpectedCases(p)
	if resp == 0 {
		t.Fatalf("expected respiratory cases for hazardous AQI")
	}
	wantOxygen := ceilDiv(resp, respiratoryPerOxygenCylinder)
	wantNeb := ceilDiv(resp, respiratoryPerNebulizer)

	byName := map[string]models.SupplyRecommendation{}
	for _, s := range rec.Supplies {
		byName[s.ItemName] = s
	}
	if got := byName["Oxygen Cylinders"].SurgeRecommended; got != wantOxygen {
		t.Errorf("oxygen = %d, want %d", got, wantOxygen)
	}
	if got := byName["Nebulizers"].SurgeRecommended; got != wantNeb {
		t.Errorf("nebulizers = %d, want %d", got, wantNeb)
	}
	workers := rec.Staffing.AdditionalDoctors + rec.Staffing.AdditionalNurses + rec.Staffing.AdditionalSupportStaff
	if got := byName["N95 Masks"].SurgeRecommended; got != 50*workers {
		t.Errorf("n95 = %d, want %d", got, 50*workers)
	}
	if byName["Oxygen Cylinders"].Urgency != "immediate" {
		t.Errorf("urgent recommendation should mark supplies immediate")
	}
}

func TestLoadCostTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "costs.yaml")
	content := []byte(`
costs:
  doctorPerDay: 10000
  nursePerDay: 4000
  supportStaffPerDay: 2000
  oxygenCylinder: 1000
  nebulizer: 4000
  n95Mask: 60
  ppeKit: 500
  generalBedPerDay: 2500
  icuBedPerDay: 18000
  emergencyBedPerDay: 9000
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write costs: %v", err)
	}
	table, err := LoadCostTable(path, nil)
	if err != nil {
		t.Fatalf("LoadCostTable: %v", err)
	}
	if table.DoctorPerDay != 10000 || table.ICUBedPerDay != 18000 {
		t.Errorf("table not loaded: %+v", table)
	}

	// Missing file keeps defaults.
	table, err = LoadCostTable("/nonexistent/costs.yaml", nil)
	if err != nil {
		t.Fatalf("missing file should fall back: %v", err)
	}
	if table != DefaultCostTable() {
		t.Errorf("expected defaults for missing file")
	}
}
