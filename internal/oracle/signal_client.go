package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/surgestack/surgecast-engine/internal/metrics"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// SignalClient fetches environmental readings and scheduled events from the
// upstream signal oracle over HTTP.
type SignalClient struct {
	client     *resty.Client
	signalPath string
	eventsPath string
	backoff    time.Duration
	logger     *slog.Logger
}

// NewSignalClient constructs a client targeting the configured oracle.
func NewSignalClient(baseURL, signalPath, eventsPath, apiKey string, timeout, backoff time.Duration, logger *slog.Logger) *SignalClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &SignalClient{
		client:     client,
		signalPath: signalPath,
		eventsPath: eventsPath,
		backoff:    backoff,
		logger:     logger,
	}
}

// GetSignal fetches the current reading for a city. Network failures get one
// retry after a short backoff; schema or bound violations never retry.
func (c *SignalClient) GetSignal(ctx context.Context, city string) (models.SignalReading, error) {
	body, err := c.getWithRetry(ctx, "signal", c.signalPath, map[string]string{"city": city})
	if err != nil {
		return models.SignalReading{}, err
	}

	var reading models.SignalReading
	if err := json.Unmarshal(body, &reading); err != nil {
		return models.SignalReading{}, fmt.Errorf("decode signal for %s: %w", city, utils.ErrOracleMalformed)
	}
	if reading.City == "" {
		reading.City = city
	}
	reading.Normalize()
	if err := reading.Validate(); err != nil {
		return models.SignalReading{}, fmt.Errorf("%v: %w", err, utils.ErrOracleMalformed)
	}
	return reading, nil
}

// GetEvents fetches scheduled events affecting the city in [from, to].
func (c *SignalClient) GetEvents(ctx context.Context, city string, from, to time.Time) ([]models.ScheduledEvent, error) {
	body, err := c.getWithRetry(ctx, "events", c.eventsPath, map[string]string{
		"city": city,
		"from": from.Format(time.RFC3339),
		"to":   to.Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		Events []models.ScheduledEvent `json:"events"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode events for %s: %w", city, utils.ErrOracleMalformed)
	}

	out := make([]models.ScheduledEvent, 0, len(response.Events))
	for _, ev := range response.Events {
		if !ev.Affects(city) || !ev.Overlaps(from, to) {
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *SignalClient) getWithRetry(ctx context.Context, op, path string, params map[string]string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveOracleRequest(op, time.Since(start), err == nil)
	}()

	body, err = c.get(ctx, path, params)
	if err == nil {
		return body, nil
	}
	if !errors.Is(err, utils.ErrOracleUnavailable) {
		return nil, err
	}

	c.logger.Warn("oracle request failed, retrying once", "path", path, "error", err)
	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
		return nil, fmt.Errorf("%v: %w", ctx.Err(), utils.ErrOracleUnavailable)
	}
	return c.get(ctx, path, params)
}

func (c *SignalClient) get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("oracle request %s: %v: %w", path, err, utils.ErrOracleUnavailable)
	}

	switch {
	case resp.StatusCode() == http.StatusOK:
		return resp.Body(), nil
	case resp.StatusCode() >= http.StatusInternalServerError:
		return nil, fmt.Errorf("oracle %s returned status %d: %w", path, resp.StatusCode(), utils.ErrOracleUnavailable)
	default:
		return nil, fmt.Errorf("oracle %s returned status %d: %w", path, resp.StatusCode(), utils.ErrOracleMalformed)
	}
}
