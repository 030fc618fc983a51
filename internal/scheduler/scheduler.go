package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/config"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
)

const jobTimeout = 2 * time.Minute

// Snapshotter persists the current dashboard summary.
type Snapshotter interface {
	SnapshotSummary(ctx context.Context) (*models.SummarySnapshot, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	snapshot Snapshotter
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a scheduler running jobs in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, snapshot Snapshotter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		snapshot: snapshot,
		schedule: cfg.CronSchedule,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler. An empty schedule
// leaves the scheduler idle.
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.logger.Info("summary snapshots disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.takeSnapshot); err != nil {
		return fmt.Errorf("schedule summary snapshot %q: %w", s.schedule, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) takeSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	snap, err := s.snapshot.SnapshotSummary(ctx)
	if err != nil {
		s.logger.Error("failed to take summary snapshot", zap.Error(err))
		return
	}
	s.logger.Info("summary snapshot taken", zap.Time("taken_at", snap.TakenAt))
}
