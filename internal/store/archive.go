package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/surgestack/surgecast-engine/internal/cache"
	"github.com/surgestack/surgecast-engine/internal/models"
)

// ArchiveRepo mirrors pipeline records into an external JSON document archive
// for long-term retention and cross-instance dashboards. Writes are
// best-effort: archive outages degrade retention, never a pipeline run.
type ArchiveRepo struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	cache      cache.Provider
	listTTL    time.Duration
	logger     *slog.Logger
}

// NewArchiveRepo constructs an archive client. An empty endpoint disables
// all operations.
func NewArchiveRepo(endpoint, apiKey string, timeout time.Duration, cacheProvider cache.Provider, listTTL time.Duration, logger *slog.Logger) *ArchiveRepo {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if listTTL < 0 {
		listTTL = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ArchiveRepo{
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cacheProvider,
		listTTL:    listTTL,
		logger:     logger,
	}
}

// Enabled reports whether the archive is configured.
func (r *ArchiveRepo) Enabled() bool {
	return r != nil && r.endpoint != ""
}

// ArchivePrediction mirrors a forecast run.
func (r *ArchiveRepo) ArchivePrediction(ctx context.Context, p models.SurgePrediction) error {
	return r.store(ctx, "SurgePrediction", p.ID, p.City, p)
}

// ArchiveAlert mirrors an alert.
func (r *ArchiveRepo) ArchiveAlert(ctx context.Context, a models.Alert) error {
	return r.store(ctx, "Alert", a.ID, a.City, a)
}

// ArchiveRecommendation mirrors a resource recommendation.
func (r *ArchiveRepo) ArchiveRecommendation(ctx context.Context, rec models.ResourceRecommendation) error {
	return r.store(ctx, "ResourceRecommendation", rec.ID, rec.City, rec)
}

// ArchiveAdvisory mirrors a health advisory.
func (r *ArchiveRepo) ArchiveAdvisory(ctx context.Context, a models.Advisory) error {
	return r.store(ctx, "Advisory", a.ID, a.City, a)
}

func (r *ArchiveRepo) store(ctx context.Context, class, id, city string, record any) error {
	if r == nil {
		return fmt.Errorf("archive repo not initialised")
	}
	if r.endpoint == "" {
		return nil
	}

	payload := map[string]any{
		"class":      class,
		"city":       city,
		"properties": record,
	}
	if id != "" {
		payload["id"] = id
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", class, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint+"/v1/records", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("archive %s failed: %s", class, strings.TrimSpace(string(data)))
	}
	return nil
}

// ListPredictions returns archived forecast runs for a city, newest first.
// Results are cached for the configured TTL.
func (r *ArchiveRepo) ListPredictions(ctx context.Context, city string, limit int) ([]models.SurgePrediction, error) {
	if r == nil {
		return nil, fmt.Errorf("archive repo not initialised")
	}
	if r.endpoint == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cacheKey := ""
	if r.listTTL > 0 {
		cacheKey = fmt.Sprintf("archive:predictions:%s:%d", strings.ToLower(city), limit)
		if data, err := r.cache.Get(ctx, cacheKey); err == nil {
			var cached []models.SurgePrediction
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	u := fmt.Sprintf("%s/v1/records?class=SurgePrediction&city=%s&limit=%d",
		r.endpoint, url.QueryEscape(city), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("archive list failed: %s", strings.TrimSpace(string(data)))
	}

	var response struct {
		Records []struct {
			Properties models.SurgePrediction `json:"properties"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode archive list: %w", err)
	}

	out := make([]models.SurgePrediction, 0, len(response.Records))
	for _, rec := range response.Records {
		out = append(out, rec.Properties)
	}

	if r.listTTL > 0 && cacheKey != "" && len(out) > 0 {
		if payload, err := json.Marshal(out); err == nil {
			if err := r.cache.Set(ctx, cacheKey, payload, r.listTTL); err != nil {
				r.logger.Debug("archive cache set failed", "error", err)
			}
		}
	}

	return out, nil
}
