package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"
)

type signalReading struct {
	City             string    `json:"city"`
	RecordedAt       time.Time `json:"recorded_at"`
	AQI              float64   `json:"aqi"`
	AQICategory      string    `json:"aqi_category"`
	PM25             float64   `json:"pm25"`
	TemperatureC     float64   `json:"temperature_celsius"`
	HumidityPct      float64   `json:"humidity_percent"`
	WindSpeedKmh     float64   `json:"wind_speed_kmh"`
	WeatherCondition string    `json:"weather_condition"`
	VisibilityKm     float64   `json:"visibility_km"`
	DataSource       string    `json:"data_source"`
}

type scheduledEvent struct {
	Name                  string    `json:"event_name"`
	Type                  string    `json:"event_type"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	AffectedCities        []string  `json:"affected_cities"`
	ExpectedCrowdSize     int       `json:"expected_crowd_size"`
	HistoricalSurgeFactor float64   `json:"historical_surge_factor"`
}

// Fixtures sketch a Delhi winter smog episode plus clean-air readings
// elsewhere, so both the critical and low-risk pipeline paths are reachable.
var citySignals = map[string]signalReading{
	"delhi": {
		AQI:              320,
		AQICategory:      "hazardous",
		PM25:             190,
		TemperatureC:     10,
		HumidityPct:      85,
		WindSpeedKmh:     4,
		WeatherCondition: "smog",
		VisibilityKm:     0.8,
	},
	"mumbai": {
		AQI:              140,
		AQICategory:      "unhealthy_sensitive",
		PM25:             55,
		TemperatureC:     28,
		HumidityPct:      78,
		WindSpeedKmh:     14,
		WeatherCondition: "haze",
		VisibilityKm:     4,
	},
	"bangalore": {
		AQI:              70,
		AQICategory:      "moderate",
		PM25:             22,
		TemperatureC:     24,
		HumidityPct:      60,
		WindSpeedKmh:     10,
		WeatherCondition: "partly_cloudy",
		VisibilityKm:     8,
	},
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/signal", func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("city")
		if city == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		reading, ok := citySignals[strings.ToLower(city)]
		if !ok {
			reading = citySignals["bangalore"]
		}
		reading.City = city
		reading.RecordedAt = time.Now().UTC()
		reading.DataSource = "mock-oracle"
		writeJSON(w, reading)
	})

	mux.HandleFunc("/api/v1/events", func(w http.ResponseWriter, r *http.Request) {
		city := r.URL.Query().Get("city")
		if city == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		writeJSON(w, map[string]any{
			"events": []scheduledEvent{
				{
					Name:                  "Diwali",
					Type:                  "festival",
					StartDate:             now.AddDate(0, 0, 2),
					EndDate:               now.AddDate(0, 0, 5),
					AffectedCities:        []string{"Delhi", "Mumbai", "Jaipur"},
					ExpectedCrowdSize:     500000,
					HistoricalSurgeFactor: 1.8,
				},
				{
					Name:                  "Winter Smog Episode",
					Type:                  "pollution_event",
					StartDate:             now.AddDate(0, 0, 1),
					EndDate:               now.AddDate(0, 0, 6),
					AffectedCities:        []string{"Delhi"},
					HistoricalSurgeFactor: 1.5,
				},
			},
		})
	})

	logger := log.New(log.Writer(), "oracle-mock ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":9090",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :9090")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
