package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// NightlySpec runs at 00:00:00 every day (seconds field enabled).
const NightlySpec = "0 0 0 * * *"

type pruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// Scheduler prunes the audit trail on a cron schedule.
type Scheduler struct {
	cron      *cron.Cron
	pruner    pruner
	retention time.Duration
	log       *slog.Logger
}

// NewScheduler creates a scheduler that keeps retention worth of entries.
func NewScheduler(p pruner, retention time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds()),
		pruner:    p,
		retention: retention,
		log:       log,
	}
}

// Start registers the nightly job and starts the cron runner.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		spec = NightlySpec
	}
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("audit pruning scheduled", "spec", spec, "retention", s.retention.String())
	return nil
}

// Stop halts the runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce prunes immediately.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := s.pruner.Prune(ctx, s.retention)
	if err != nil {
		s.log.Error("audit pruning failed", "error", err)
		return
	}
	s.log.Info("audit pruning done", "deleted", n)
}
