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

// LLMForecaster produces surge predictions via a chat-completion model. The
// prompt embeds the same deterministic rules the built-in engine applies, so
// the model acts as an alternate renderer of the policy, not a new policy.
// Every response is validated before anything downstream sees it.
type LLMForecaster struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// NewLLMForecaster constructs a forecaster. baseURL may point at any
// OpenAI-compatible endpoint; empty uses the public API.
func NewLLMForecaster(apiKey, baseURL, model string, logger *slog.Logger) *LLMForecaster {
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
	return &LLMForecaster{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// ForecastInput bundles everything the model needs for one city.
type ForecastInput struct {
	City          string                  `json:"city"`
	BaselineCases int                     `json:"baseline_cases"`
	Population    int64                   `json:"population"`
	Signal        models.SignalReading    `json:"signal"`
	Events        []models.ScheduledEvent `json:"upcoming_events"`
	HorizonDays   int                     `json:"horizon_days"`
}

// Forecast asks the model for a horizon-long prediction and validates the
// result. A malformed response maps to ErrOracleMalformed, a transport
// failure to ErrOracleUnavailable.
func (f *LLMForecaster) Forecast(ctx context.Context, in ForecastInput) (models.SurgePrediction, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return models.SurgePrediction{}, fmt.Errorf("marshal forecast input: %w", err)
	}

	resp, err := f.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: f.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: forecastSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: 0.2,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return models.SurgePrediction{}, fmt.Errorf("forecast completion: %v: %w", err, utils.ErrOracleUnavailable)
	}
	if len(resp.Choices) == 0 {
		return models.SurgePrediction{}, fmt.Errorf("forecast completion empty: %w", utils.ErrOracleMalformed)
	}

	var prediction models.SurgePrediction
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &prediction); err != nil {
		return models.SurgePrediction{}, fmt.Errorf("decode forecast: %v: %w", err, utils.ErrOracleMalformed)
	}

	prediction.City = in.City
	prediction.BaselineCases = in.BaselineCases
	prediction.ModelVersion = "surgecast-llm-v1"
	if prediction.IssuedAt.IsZero() {
		prediction.IssuedAt = time.Now().UTC()
	}
	if err := prediction.Validate(); err != nil {
		return models.SurgePrediction{}, fmt.Errorf("%v: %w", err, utils.ErrOracleMalformed)
	}
	return prediction, nil
}

const forecastSystemPrompt = `You are a hospital patient-surge forecasting model for Indian metros.
Given a city's baseline daily cases, the current environmental signal, and upcoming events,
produce a JSON surge prediction covering the requested horizon.

Apply exactly these rules:
1. Start from baseline_cases.
2. AQI impact: +15% respiratory cases per 50 AQI points above 100.
3. Cold weather below 15C: +10%.
4. Humidity above 80%: +8%.
5. Festivals: +25-40% depending on historical_surge_factor.
6. Pollution events: +30-50% depending on historical_surge_factor.
7. Combine impacts multiplicatively; round predicted cases to the nearest integer.
8. Non-event impacts fade day over day; event impacts persist while the event covers the day.
9. Risk per day from surge factor: <1.10 low, <1.30 medium, <1.60 high, otherwise critical.

Respond with a single JSON object using these keys:
id (empty string), city, issued_at (RFC3339), prediction_horizon_days, predictions (array of
{day, date, predicted_cases, predicted_cases_lower, predicted_cases_upper, risk_level,
confidence_score}), baseline_cases, surge_factor, overall_risk, contributing_factors (array of
{factor, impact_score, description}), likely_conditions (array of {condition, probability,
expected_cases}), summary.`
