package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// AdvisoryGenerator drafts public health advisories for elevated-risk runs.
type AdvisoryGenerator struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewAdvisoryGenerator constructs a generator using the same endpoint rules
// as NewLLMForecaster.
func NewAdvisoryGenerator(apiKey, baseURL, model string, logger *slog.Logger) *AdvisoryGenerator {
	if model == "" {
		model = openai.GPT4oMini
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &AdvisoryGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Generate drafts an advisory for the prediction. Callers treat failures as
// degradation, not run failure.
func (g *AdvisoryGenerator) Generate(ctx context.Context, prediction models.SurgePrediction, signal models.SignalReading) (models.Advisory, error) {
	input := map[string]any{
		"city":                 prediction.City,
		"overall_risk":         prediction.OverallRisk,
		"surge_factor":         prediction.SurgeFactor,
		"contributing_factors": prediction.ContributingFactors,
		"likely_conditions":    prediction.LikelyConditions,
		"aqi":                  signal.AQI,
		"aqi_category":         signal.AQICategory,
		"temperature_celsius":  signal.TemperatureC,
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return models.Advisory{}, fmt.Errorf("marshal advisory input: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: advisorySystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0.4,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.Advisory{}, fmt.Errorf("advisory completion: %v: %w", err, utils.ErrOracleUnavailable)
	}
	if len(resp.Choices) == 0 {
		return models.Advisory{}, fmt.Errorf("advisory completion empty: %w", utils.ErrOracleMalformed)
	}

	var advisory models.Advisory
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &advisory); err != nil {
		return models.Advisory{}, fmt.Errorf("decode advisory: %v: %w", err, utils.ErrOracleMalformed)
	}
	if advisory.Title == "" || advisory.Content == "" {
		return models.Advisory{}, fmt.Errorf("advisory missing title or content: %w", utils.ErrOracleMalformed)
	}

	// The model's enum fields are untrusted; off-enum values fall back to
	// defaults instead of being persisted as-is.
	advisory.Type = models.AdvisoryType(strings.ToLower(strings.TrimSpace(string(advisory.Type))))
	if !advisory.Type.Valid() {
		g.logger.Debug("advisory type off-enum, using general", "type", advisory.Type)
		advisory.Type = models.AdvisoryGeneral
	}
	advisory.Severity = models.AlertSeverity(strings.ToLower(strings.TrimSpace(string(advisory.Severity))))
	if !advisory.Severity.Valid() {
		advisory.Severity = ""
	}

	advisory.City = prediction.City
	advisory.IsActive = true
	advisory.Source = "surgecast"
	now := time.Now().UTC()
	if advisory.ValidFrom.IsZero() {
		advisory.ValidFrom = now
	}
	if advisory.ValidUntil.IsZero() {
		advisory.ValidUntil = now.AddDate(0, 0, prediction.HorizonDays)
	}
	if advisory.Severity == "" {
		advisory.Severity = models.SeverityWarning
		if prediction.OverallRisk == models.RiskCritical {
			advisory.Severity = models.SeverityCritical
		}
	}
	return advisory, nil
}

const advisorySystemPrompt = `You are a public health communications assistant for Indian city
health departments. Given a patient-surge prediction and the current environmental signal,
draft a concise public advisory in English and Hindi.

Respond with a single JSON object using these keys:
title, title_hindi, content (2-3 sentences, plain language), content_hindi,
advisory_type (one of: health, pollution, weather, epidemic, festival, general),
severity (info, warning, critical), precautions (array of short strings),
symptoms_to_watch (array of short strings), at_risk_groups (array of short strings).`
