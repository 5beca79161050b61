package oracle

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/surgestack/surgecast-engine/internal/models"
)

func newChatCompletionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func advisoryContent(t *testing.T, fields map[string]any) string {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal advisory content: %v", err)
	}
	return string(data)
}

func TestAdvisoryGeneratorRejectsOffEnumValues(t *testing.T) {
	srv := newChatCompletionServer(t, advisoryContent(t, map[string]any{
		"title":         "Air quality warning",
		"content":       "Stay indoors and wear masks outdoors.",
		"advisory_type": "UrgentHealth",
		"severity":      "SEVERE",
	}))
	defer srv.Close()

	g := NewAdvisoryGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	prediction := models.SurgePrediction{City: "Delhi", OverallRisk: models.RiskCritical, HorizonDays: 7}

	advisory, err := g.Generate(context.Background(), prediction, models.SignalReading{City: "Delhi", AQI: 320})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if advisory.Type != models.AdvisoryGeneral {
		t.Errorf("off-enum type stored as %q, want general", advisory.Type)
	}
	// An unusable severity falls back to the risk-derived default.
	if advisory.Severity != models.SeverityCritical {
		t.Errorf("severity = %q, want critical for a critical-risk run", advisory.Severity)
	}
}

func TestAdvisoryGeneratorNormalizesEnumCase(t *testing.T) {
	srv := newChatCompletionServer(t, advisoryContent(t, map[string]any{
		"title":         "Smog episode",
		"content":       "Limit outdoor activity.",
		"advisory_type": "Pollution",
		"severity":      " Warning ",
	}))
	defer srv.Close()

	g := NewAdvisoryGenerator("test-key", srv.URL+"/v1", "gpt-4o-mini", nil)
	prediction := models.SurgePrediction{City: "Delhi", OverallRisk: models.RiskHigh, HorizonDays: 7}

	advisory, err := g.Generate(context.Background(), prediction, models.SignalReading{City: "Delhi", AQI: 250})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if advisory.Type != models.AdvisoryPollution {
		t.Errorf("type = %q, want pollution", advisory.Type)
	}
	if advisory.Severity != models.SeverityWarning {
		t.Errorf("severity = %q, want warning", advisory.Severity)
	}
}
