package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/surgestack/surgecast-engine/internal/baseline"
	"github.com/surgestack/surgecast-engine/internal/events"
	"github.com/surgestack/surgecast-engine/internal/models"
	"github.com/surgestack/surgecast-engine/internal/oracle"
	"github.com/surgestack/surgecast-engine/internal/store"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// ForecastOracle is an optional generative alternative to the rule engine.
// Its output is untrusted and validated before persistence.
type ForecastOracle interface {
	Forecast(ctx context.Context, in oracle.ForecastInput) (models.SurgePrediction, error)
}

// AdvisoryClient drafts public advisories for elevated-risk runs.
type AdvisoryClient interface {
	Generate(ctx context.Context, prediction models.SurgePrediction, signal models.SignalReading) (models.Advisory, error)
}

// Stores groups the persistence surfaces one run writes to.
type Stores struct {
	Signals         store.SignalStore
	Predictions     store.PredictionStore
	Recommendations store.RecommendationStore
	Advisories      store.AdvisoryStore
	Archive         *store.ArchiveRepo
}

// Pipeline orchestrates one forecasting run per city: signal, events,
// forecast, recommendation, alerts, advisory. Each persisted record is a
// single atomic write; a failed step never leaves partial records.
type Pipeline struct {
	logger      *slog.Logger
	oracle      oracle.SignalOracle
	registry    *baseline.Registry
	calendar    events.Provider
	forecaster  *Forecaster
	llm         ForecastOracle
	recommender *Recommender
	evaluator   *AlertEvaluator
	advisory    AdvisoryClient
	stores      Stores
	horizonDays int
	freshness   time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewPipeline constructs an orchestrator. llm and advisory may be nil; the
// deterministic forecaster is the reference engine.
func NewPipeline(
	logger *slog.Logger,
	signalOracle oracle.SignalOracle,
	registry *baseline.Registry,
	calendar events.Provider,
	forecaster *Forecaster,
	llm ForecastOracle,
	recommender *Recommender,
	evaluator *AlertEvaluator,
	advisory AdvisoryClient,
	stores Stores,
	horizonDays int,
	freshness time.Duration,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if forecaster == nil {
		forecaster = NewForecaster(logger)
	}
	if horizonDays <= 0 {
		horizonDays = 7
	}
	if freshness <= 0 {
		freshness = time.Hour
	}
	return &Pipeline{
		logger:      logger,
		oracle:      signalOracle,
		registry:    registry,
		calendar:    calendar,
		forecaster:  forecaster,
		llm:         llm,
		recommender: recommender,
		evaluator:   evaluator,
		advisory:    advisory,
		stores:      stores,
		horizonDays: horizonDays,
		freshness:   freshness,
		inflight:    make(map[string]struct{}),
	}
}

// Run executes the pipeline for one city. A second call for the same city
// while one is in flight is rejected with ErrRunInProgress; other cities run
// independently.
func (p *Pipeline) Run(ctx context.Context, city string) (models.PipelineResult, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return models.PipelineResult{}, fmt.Errorf("city required: %w", utils.ErrValidationFailed)
	}

	key := strings.ToLower(city)
	p.mu.Lock()
	if _, busy := p.inflight[key]; busy {
		p.mu.Unlock()
		return models.PipelineResult{}, fmt.Errorf("pipeline for %s: %w", city, utils.ErrRunInProgress)
	}
	p.inflight[key] = struct{}{}
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.inflight, key)
		p.mu.Unlock()
	}()

	started := time.Now().UTC()
	result := models.PipelineResult{City: city, StartedAt: started}
	defer func() {
		result.Duration = time.Since(started)
	}()

	// Step 1: signal. Nothing downstream is possible without it.
	reading, stepResult := p.fetchSignal(ctx, city)
	result.Steps = append(result.Steps, stepResult)
	if stepResult.Outcome == models.StepFailed {
		return result, nil
	}

	if canceled(ctx, &result) {
		return result, nil
	}

	// Step 2: events. Oracle failure degrades to the local calendar.
	evs, stepResult := p.fetchEvents(ctx, city, started)
	result.Steps = append(result.Steps, stepResult)

	if canceled(ctx, &result) {
		return result, nil
	}

	// Step 3: forecast.
	prediction, stepResult := p.forecast(ctx, reading, evs, started)
	result.Steps = append(result.Steps, stepResult)

	if canceled(ctx, &result) {
		return result, nil
	}

	// Step 4: recommendation, only for elevated risk.
	result.Steps = append(result.Steps, p.recommend(ctx, prediction))

	if canceled(ctx, &result) {
		return result, nil
	}

	// Step 5: alerts. Runs on the signal alone when the forecast failed.
	result.Steps = append(result.Steps, p.evaluateAlerts(ctx, reading, prediction))

	if canceled(ctx, &result) {
		return result, nil
	}

	// Step 6: advisory, best-effort.
	result.Steps = append(result.Steps, p.generateAdvisory(ctx, reading, prediction))

	p.logger.Info("pipeline run finished",
		"city", city,
		"duration", time.Since(started),
		"succeeded", result.Succeeded(),
	)
	return result, nil
}

func canceled(ctx context.Context, result *models.PipelineResult) bool {
	if ctx.Err() == nil {
		return false
	}
	result.Steps = append(result.Steps, models.StepResult{
		Step:      "canceled",
		Outcome:   models.StepFailed,
		ErrorKind: "canceled",
		Detail:    ctx.Err().Error(),
	})
	return true
}

func (p *Pipeline) fetchSignal(ctx context.Context, city string) (models.SignalReading, models.StepResult) {
	step := models.StepResult{Step: models.StepFetchSignal}

	// A stored reading from the same freshness window is reused; repeated
	// runs inside one window must not hammer the oracle.
	if latest, err := p.stores.Signals.LatestSignal(ctx, city); err == nil {
		now := time.Now().UTC()
		if utils.RunWindow(latest.RecordedAt, p.freshness).Equal(utils.RunWindow(now, p.freshness)) {
			step.Outcome = models.StepSucceeded
			step.RecordIDs = []string{latest.ID}
			step.Detail = "reused fresh signal"
			return latest, step
		}
	}

	reading, err := p.oracle.GetSignal(ctx, city)
	if err != nil {
		p.logger.Error("signal fetch failed", "city", city, "error", err)
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return models.SignalReading{}, step
	}

	saved, err := p.stores.Signals.SaveSignal(ctx, reading)
	if err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		step.Detail = "persist signal"
		return models.SignalReading{}, step
	}

	step.Outcome = models.StepSucceeded
	step.RecordIDs = []string{saved.ID}
	return saved, step
}

func (p *Pipeline) fetchEvents(ctx context.Context, city string, now time.Time) ([]models.ScheduledEvent, models.StepResult) {
	step := models.StepResult{Step: models.StepFetchEvents}
	from := now
	to := utils.DayAfter(now, p.horizonDays)

	var local []models.ScheduledEvent
	if p.calendar != nil {
		evs, err := p.calendar.UpcomingEvents(ctx, city, from, to)
		if err != nil {
			p.logger.Warn("local event calendar failed", "city", city, "error", err)
		} else {
			local = evs
		}
	}

	remote, err := p.oracle.GetEvents(ctx, city, from, to)
	if err != nil {
		p.logger.Warn("event fetch degraded", "city", city, "error", err)
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return local, step
	}

	step.Outcome = models.StepSucceeded
	return mergeEvents(remote, local), step
}

// mergeEvents combines oracle and calendar events, keeping the oracle copy
// when both sources carry the same event. Feeding one festival to the
// forecaster twice would compound its impact.
func mergeEvents(remote, local []models.ScheduledEvent) []models.ScheduledEvent {
	merged := append([]models.ScheduledEvent(nil), remote...)
	for _, ev := range local {
		dup := false
		for _, r := range remote {
			if sameEvent(ev, r) {
				dup = true
				break
			}
		}
		if !dup {
			merged = append(merged, ev)
		}
	}
	return merged
}

// sameEvent matches events by name, case- and whitespace-insensitive, with
// overlapping windows. A recurring festival in a different window is a
// distinct occurrence.
func sameEvent(a, b models.ScheduledEvent) bool {
	if !strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name)) {
		return false
	}
	end := b.EndDate
	if end.IsZero() {
		end = b.StartDate
	}
	return a.Overlaps(b.StartDate, end)
}

func (p *Pipeline) forecast(ctx context.Context, reading models.SignalReading, evs []models.ScheduledEvent, issuedAt time.Time) (*models.SurgePrediction, models.StepResult) {
	step := models.StepResult{Step: models.StepForecast}
	base := p.registry.Lookup(reading.City)

	var prediction models.SurgePrediction
	if p.llm != nil {
		var err error
		prediction, err = p.llm.Forecast(ctx, oracle.ForecastInput{
			City:          reading.City,
			BaselineCases: base.DailyCases,
			Population:    base.Population,
			Signal:        reading,
			Events:        evs,
			HorizonDays:   p.horizonDays,
		})
		if err != nil {
			p.logger.Error("generative forecast rejected", "city", reading.City, "error", err)
			step.Outcome = models.StepFailed
			step.ErrorKind = utils.Kind(err)
			return nil, step
		}
	} else {
		prediction = p.forecaster.Forecast(reading, base, evs, issuedAt, p.horizonDays)
	}

	if err := prediction.Validate(); err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(fmt.Errorf("%v: %w", err, utils.ErrValidationFailed))
		return nil, step
	}

	saved, err := p.stores.Predictions.SavePrediction(ctx, prediction)
	if err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		step.Detail = "persist prediction"
		return nil, step
	}
	p.archive(ctx, func(ctx context.Context) error {
		return p.stores.Archive.ArchivePrediction(ctx, saved)
	})

	step.Outcome = models.StepSucceeded
	step.RecordIDs = []string{saved.ID}
	return &saved, step
}

func (p *Pipeline) recommend(ctx context.Context, prediction *models.SurgePrediction) models.StepResult {
	step := models.StepResult{Step: models.StepRecommend}
	if prediction == nil || !prediction.OverallRisk.AtLeast(models.RiskHigh) {
		step.Outcome = models.StepSkipped
		return step
	}

	rec := p.recommender.Recommend(*prediction)
	saved, err := p.stores.Recommendations.SaveRecommendation(ctx, rec)
	if err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return step
	}
	p.archive(ctx, func(ctx context.Context) error {
		return p.stores.Archive.ArchiveRecommendation(ctx, saved)
	})

	step.Outcome = models.StepSucceeded
	step.RecordIDs = []string{saved.ID}
	return step
}

func (p *Pipeline) evaluateAlerts(ctx context.Context, reading models.SignalReading, prediction *models.SurgePrediction) models.StepResult {
	step := models.StepResult{Step: models.StepEvaluateAlerts}

	alerts, err := p.evaluator.Evaluate(ctx, reading, prediction, time.Now().UTC())
	if err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return step
	}
	for _, a := range alerts {
		step.RecordIDs = append(step.RecordIDs, a.ID)
		alert := a
		p.archive(ctx, func(ctx context.Context) error {
			return p.stores.Archive.ArchiveAlert(ctx, alert)
		})
	}

	step.Outcome = models.StepSucceeded
	return step
}

func (p *Pipeline) generateAdvisory(ctx context.Context, reading models.SignalReading, prediction *models.SurgePrediction) models.StepResult {
	step := models.StepResult{Step: models.StepAdvisory}
	if p.advisory == nil || prediction == nil || !prediction.OverallRisk.AtLeast(models.RiskHigh) {
		step.Outcome = models.StepSkipped
		return step
	}

	advisory, err := p.advisory.Generate(ctx, *prediction, reading)
	if err != nil {
		p.logger.Warn("advisory generation degraded", "city", reading.City, "error", err)
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return step
	}

	saved, err := p.stores.Advisories.SaveAdvisory(ctx, advisory)
	if err != nil {
		step.Outcome = models.StepFailed
		step.ErrorKind = utils.Kind(err)
		return step
	}
	p.archive(ctx, func(ctx context.Context) error {
		return p.stores.Archive.ArchiveAdvisory(ctx, saved)
	})

	step.Outcome = models.StepSucceeded
	step.RecordIDs = []string{saved.ID}
	return step
}

// archive mirrors a record to the external archive, best-effort.
func (p *Pipeline) archive(ctx context.Context, fn func(context.Context) error) {
	if !p.stores.Archive.Enabled() {
		return
	}
	if err := fn(ctx); err != nil {
		p.logger.Warn("archive write failed", "error", err)
	}
}
