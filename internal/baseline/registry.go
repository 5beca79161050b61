package baseline

import (
	"errors"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// CityBaseline describes the historical daily-case average and capacity
// profile for one tracked city.
type CityBaseline struct {
	City           string  `yaml:"city" json:"city"`
	DailyCases     int     `yaml:"dailyCases" json:"daily_cases"`
	Population     int64   `yaml:"population" json:"population"`
	Hospitals      int     `yaml:"hospitals" json:"hospitals"`
	Latitude       float64 `yaml:"latitude" json:"latitude,omitempty"`
	Longitude      float64 `yaml:"longitude" json:"longitude,omitempty"`
	DefaultApplied bool    `yaml:"-" json:"default_applied,omitempty"`
}

// Registry resolves per-city baselines, falling back to a conservative
// default profile for unknown cities.
type Registry struct {
	byCity map[string]CityBaseline
	logger *slog.Logger
}

type registryFile struct {
	Baselines []CityBaseline `yaml:"baselines"`
}

// Default profile applied when a city has no configured baseline.
var defaultBaseline = CityBaseline{
	DailyCases: 250,
	Population: 5_000_000,
	Hospitals:  20,
}

func builtinBaselines() []CityBaseline {
	return []CityBaseline{
		{City: "Delhi", DailyCases: 450, Population: 32_000_000, Hospitals: 45, Latitude: 28.6139, Longitude: 77.2090},
		{City: "Mumbai", DailyCases: 380, Population: 21_000_000, Hospitals: 38, Latitude: 19.0760, Longitude: 72.8777},
		{City: "Bangalore", DailyCases: 280, Population: 12_000_000, Hospitals: 28, Latitude: 12.9716, Longitude: 77.5946},
		{City: "Chennai", DailyCases: 260, Population: 11_000_000, Hospitals: 25, Latitude: 13.0827, Longitude: 80.2707},
		{City: "Kolkata", DailyCases: 320, Population: 15_000_000, Hospitals: 30, Latitude: 22.5726, Longitude: 88.3639},
		{City: "Hyderabad", DailyCases: 250, Population: 10_000_000, Hospitals: 22, Latitude: 17.3850, Longitude: 78.4867},
		{City: "Pune", DailyCases: 200, Population: 7_000_000, Hospitals: 18, Latitude: 18.5204, Longitude: 73.8567},
		{City: "Ahmedabad", DailyCases: 220, Population: 8_000_000, Hospitals: 20, Latitude: 23.0225, Longitude: 72.5714},
		{City: "Jaipur", DailyCases: 180, Population: 4_000_000, Hospitals: 15, Latitude: 26.9124, Longitude: 75.7873},
		{City: "Lucknow", DailyCases: 200, Population: 3_500_000, Hospitals: 14, Latitude: 26.8467, Longitude: 80.9462},
	}
}

// NewRegistry builds a registry from the built-in city profiles, optionally
// overlaid with entries from a YAML file. A missing file is not an error.
func NewRegistry(path string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{byCity: make(map[string]CityBaseline), logger: logger}
	for _, b := range builtinBaselines() {
		r.byCity[strings.ToLower(b.City)] = b
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
			logger.Debug("baseline file not found, using built-in profiles", "path", path)
		} else {
			var file registryFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, err
			}
			for _, b := range file.Baselines {
				if b.City == "" || b.DailyCases <= 0 {
					logger.Warn("skipping invalid baseline entry", "city", b.City, "dailyCases", b.DailyCases)
					continue
				}
				r.byCity[strings.ToLower(b.City)] = b
			}
		}
	}
	return r, nil
}

// Lookup returns the baseline for a city. Unknown cities receive the default
// profile with DefaultApplied set so callers can surface degraded confidence.
func (r *Registry) Lookup(city string) CityBaseline {
	if b, ok := r.byCity[strings.ToLower(strings.TrimSpace(city))]; ok {
		return b
	}
	b := defaultBaseline
	b.City = city
	b.DefaultApplied = true
	return b
}

// Cities returns the configured city names.
func (r *Registry) Cities() []string {
	out := make([]string, 0, len(r.byCity))
	for _, b := range r.byCity {
		out = append(out, b.City)
	}
	return out
}
