package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule takes a snapshot every night at 03:00.
const DefaultSchedule = "0 3 * * *"

// Scheduler runs Snapshot followed by Prune on a cron schedule.
type Scheduler struct {
	manager *Manager
	keep    int
	logger  *slog.Logger
	cron    *cron.Cron

	// OnSnapshot is called after every scheduled run. Optional.
	OnSnapshot func(Snapshot, error)
}

// NewScheduler validates spec (standard 5-field cron or "@every 1h") and
// prepares the job. keep <= 0 disables pruning.
func NewScheduler(m *Manager, spec string, keep int, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if logger == nil {
		logger = m.logger
	}
	s := &Scheduler{
		manager: m,
		keep:    keep,
		logger:  logger,
		cron:    cron.New(),
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return s, nil
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running job to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	s.logger.Debug("backup scheduler started", "entries", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Debug("backup scheduler stopped")
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context) {
	snap, err := s.manager.Snapshot(ctx)
	switch {
	case errors.Is(err, ErrNothingToBackup):
		s.logger.Debug("scheduled backup skipped, store is empty")
	case err != nil:
		s.logger.Error("scheduled backup failed", "error", err)
	case s.keep > 0:
		if _, perr := s.manager.Prune(ctx, s.keep); perr != nil {
			s.logger.Error("backup prune failed", "error", perr)
		}
	}
	if s.OnSnapshot != nil {
		s.OnSnapshot(snap, err)
	}
}
