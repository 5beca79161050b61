package models

import (
	"fmt"
	"time"
)

// AQICategory labels an Air Quality Index band on the 0-500 scale.
type AQICategory string

const (
	AQIGood               AQICategory = "good"
	AQIModerate           AQICategory = "moderate"
	AQIUnhealthySensitive AQICategory = "unhealthy_sensitive"
	AQIUnhealthy          AQICategory = "unhealthy"
	AQIVeryUnhealthy      AQICategory = "very_unhealthy"
	AQIHazardous          AQICategory = "hazardous"
)

// CategoryForAQI maps an AQI value onto its band.
func CategoryForAQI(aqi float64) AQICategory {
	switch {
	case aqi <= 50:
		return AQIGood
	case aqi <= 100:
		return AQIModerate
	case aqi <= 150:
		return AQIUnhealthySensitive
	case aqi <= 200:
		return AQIUnhealthy
	case aqi <= 300:
		return AQIVeryUnhealthy
	default:
		return AQIHazardous
	}
}

// SignalReading is one environmental snapshot for a city. Readings are
// immutable once stored; "latest" queries order by RecordedAt descending.
type SignalReading struct {
	ID               string      `json:"id"`
	City             string      `json:"city"`
	RecordedAt       time.Time   `json:"recorded_at"`
	AQI              float64     `json:"aqi"`
	AQICategory      AQICategory `json:"aqi_category"`
	PM25             *float64    `json:"pm25,omitempty"`
	PM10             *float64    `json:"pm10,omitempty"`
	NO2              *float64    `json:"no2,omitempty"`
	SO2              *float64    `json:"so2,omitempty"`
	CO               *float64    `json:"co,omitempty"`
	O3               *float64    `json:"o3,omitempty"`
	TemperatureC     float64     `json:"temperature_celsius"`
	HumidityPct      float64     `json:"humidity_percent"`
	WindSpeedKmh     float64     `json:"wind_speed_kmh"`
	WindDirection    string      `json:"wind_direction,omitempty"`
	PrecipitationMm  float64     `json:"precipitation_mm,omitempty"`
	WeatherCondition string      `json:"weather_condition"`
	VisibilityKm     float64     `json:"visibility_km"`
	UVIndex          float64     `json:"uv_index,omitempty"`
	DataSource       string      `json:"data_source,omitempty"`
}

// Validate enforces the domain bounds an oracle response must satisfy before
// the reading may be persisted.
func (s SignalReading) Validate() error {
	if s.City == "" {
		return fmt.Errorf("signal reading missing city")
	}
	if s.AQI < 0 || s.AQI > 500 {
		return fmt.Errorf("aqi %.1f outside [0,500]", s.AQI)
	}
	if s.AQICategory != "" && s.AQICategory != CategoryForAQI(s.AQI) {
		return fmt.Errorf("aqi category %q inconsistent with aqi %.0f (expected %q)",
			s.AQICategory, s.AQI, CategoryForAQI(s.AQI))
	}
	if s.HumidityPct < 0 || s.HumidityPct > 100 {
		return fmt.Errorf("humidity %.1f outside [0,100]", s.HumidityPct)
	}
	return nil
}

// Normalize fills derived fields that oracles are allowed to omit.
func (s *SignalReading) Normalize() {
	if s.AQICategory == "" {
		s.AQICategory = CategoryForAQI(s.AQI)
	}
	if s.RecordedAt.IsZero() {
		s.RecordedAt = time.Now().UTC()
	}
}
