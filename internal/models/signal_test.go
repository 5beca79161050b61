package models

import (
	"testing"
	"time"
)

func TestCategoryForAQI(t *testing.T) {
	cases := []struct {
		aqi  float64
		want AQICategory
	}{
		{0, AQIGood},
		{50, AQIGood},
		{51, AQIModerate},
		{100, AQIModerate},
		{120, AQIUnhealthySensitive},
		{180, AQIUnhealthy},
		{250, AQIVeryUnhealthy},
		{301, AQIHazardous},
		{450, AQIHazardous},
		{500, AQIHazardous},
	}
	for _, tc := range cases {
		if got := CategoryForAQI(tc.aqi); got != tc.want {
			t.Errorf("CategoryForAQI(%.0f) = %q, want %q", tc.aqi, got, tc.want)
		}
	}
}

func TestSignalReadingValidate(t *testing.T) {
	base := SignalReading{
		City:         "Delhi",
		RecordedAt:   time.Now(),
		AQI:          320,
		AQICategory:  AQIHazardous,
		TemperatureC: 10,
		HumidityPct:  85,
	}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid reading rejected: %v", err)
	}

	outOfRange := base
	outOfRange.AQI = 612
	if err := outOfRange.Validate(); err == nil {
		t.Fatalf("expected aqi > 500 to be rejected")
	}

	negative := base
	negative.AQI = -3
	if err := negative.Validate(); err == nil {
		t.Fatalf("expected negative aqi to be rejected")
	}

	inconsistent := base
	inconsistent.AQICategory = AQIGood
	if err := inconsistent.Validate(); err == nil {
		t.Fatalf("expected category/aqi mismatch to be rejected")
	}

	badHumidity := base
	badHumidity.HumidityPct = 130
	if err := badHumidity.Validate(); err == nil {
		t.Fatalf("expected humidity > 100 to be rejected")
	}
}

func TestSignalReadingNormalize(t *testing.T) {
	r := SignalReading{City: "Delhi", AQI: 450}
	r.Normalize()
	if r.AQICategory != AQIHazardous {
		t.Fatalf("expected hazardous category for aqi 450, got %q", r.AQICategory)
	}
	if r.RecordedAt.IsZero() {
		t.Fatalf("expected recorded_at to be filled")
	}
}
