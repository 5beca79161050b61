package scheduler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/surgestack/surgecast-engine/internal/config"
	"github.com/surgestack/surgecast-engine/internal/services"
	"github.com/surgestack/surgecast-engine/internal/utils"
)

// Scheduler drives periodic pipeline refreshes for the configured cities.
// A city whose previous run is still in flight is skipped, not queued.
type Scheduler struct {
	logger *slog.Logger
	svc    *services.PipelineService
	cfg    config.SchedulerConfig
	cron   *cron.Cron
}

// New constructs a stopped scheduler. Call Start to begin firing.
func New(logger *slog.Logger, svc *services.PipelineService, cfg config.SchedulerConfig) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		logger: logger,
		svc:    svc,
		cfg:    cfg,
		cron:   cron.New(),
	}
}

// Start registers the refresh job and begins the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		s.logger.Info("scheduler disabled")
		return nil
	}
	cities := s.cfg.Cities
	if len(cities) == 0 {
		cities = s.svc.Cities()
	}

	_, err := s.cron.AddFunc(s.cfg.Spec, func() {
		s.refreshAll(ctx, cities)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", slog.String("spec", s.cfg.Spec), slog.Int("cities", len(cities)))
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refreshAll(ctx context.Context, cities []string) {
	for _, city := range cities {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.svc.RunPipeline(ctx, city); err != nil {
			if errors.Is(err, utils.ErrRunInProgress) {
				s.logger.Debug("scheduled refresh skipped, run in flight", slog.String("city", city))
				continue
			}
			s.logger.Error("scheduled refresh failed", slog.String("city", city), slog.Any("error", err))
		}
	}
}
