package baseline

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLookupBuiltin(t *testing.T) {
	r, err := NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	delhi := r.Lookup("Delhi")
	if delhi.DailyCases != 450 {
		t.Errorf("Delhi baseline = %d, want 450", delhi.DailyCases)
	}
	if delhi.DefaultApplied {
		t.Errorf("Delhi should not carry the default profile")
	}
	// Case-insensitive match.
	if got := r.Lookup("mumbai"); got.DailyCases != 380 {
		t.Errorf("mumbai baseline = %d, want 380", got.DailyCases)
	}
}

func TestLookupUnknownCityUsesDefault(t *testing.T) {
	r, err := NewRegistry("", nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	got := r.Lookup("Gotham")
	if got.DailyCases != 250 || got.Population != 5_000_000 || got.Hospitals != 20 {
		t.Errorf("unexpected default profile: %+v", got)
	}
	if !got.DefaultApplied {
		t.Errorf("default profile must be flagged")
	}
	if got.City != "Gotham" {
		t.Errorf("default profile should keep requested city name, got %q", got.City)
	}
}

func TestFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baselines.yaml")
	content := []byte(`
baselines:
  - city: Delhi
    dailyCases: 500
    population: 33000000
    hospitals: 50
  - city: ""
    dailyCases: 100
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write baselines: %v", err)
	}
	r, err := NewRegistry(path, nil)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if got := r.Lookup("Delhi"); got.DailyCases != 500 {
		t.Errorf("overlay not applied, Delhi = %d", got.DailyCases)
	}
	// Built-ins without overlay entries survive.
	if got := r.Lookup("Pune"); got.DailyCases != 200 {
		t.Errorf("built-in lost after overlay, Pune = %d", got.DailyCases)
	}
}

func TestMissingFileFallsBack(t *testing.T) {
	r, err := NewRegistry("/nonexistent/baselines.yaml", nil)
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if got := r.Lookup("Delhi"); got.DailyCases != 450 {
		t.Errorf("built-in baseline lost: %d", got.DailyCases)
	}
}
