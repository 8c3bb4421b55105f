// Package maintenance runs the background housekeeping jobs: nightly
// journal pruning on a cron schedule and the systemd watchdog heartbeat.
package maintenance

import (
	"context"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/robfig/cron/v3"

	"turfbot/internal/journal"
	"turfbot/internal/runtime/supervisor"
	"turfbot/pkg/logx"
)

type Config struct {
	// PruneSchedule is a standard 5-field cron expression.
	PruneSchedule string
	// PruneOlderThan is the marker retention window.
	PruneOlderThan time.Duration
	Location       *time.Location
}

type Service struct {
	cfg   Config
	store journal.Store
	log   logx.Logger
	c     *cron.Cron
}

func New(cfg Config, store journal.Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	if cfg.PruneSchedule == "" {
		cfg.PruneSchedule = "0 4 * * *"
	}
	if cfg.PruneOlderThan <= 0 {
		cfg.PruneOlderThan = 48 * time.Hour
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Service{cfg: cfg, store: store, log: log}
}

// Start arms the prune schedule and, when running under a systemd watchdog,
// the heartbeat. Goroutines run under sup and stop with its context.
func (s *Service) Start(ctx context.Context, sup *supervisor.Supervisor) error {
	s.c = cron.New(cron.WithLocation(s.cfg.Location))
	if _, err := s.c.AddFunc(s.cfg.PruneSchedule, func() { s.prune(ctx) }); err != nil {
		return err
	}
	s.c.Start()

	sup.Go0("maintenance.cron_stop", func(c context.Context) {
		<-c.Done()
		<-s.c.Stop().Done()
	})

	if interval, err := daemon.SdWatchdogEnabled(false); err == nil && interval > 0 {
		sup.Go0("maintenance.watchdog", func(c context.Context) {
			ticker := time.NewTicker(interval / 2)
			defer ticker.Stop()
			for {
				select {
				case <-c.Done():
					return
				case <-ticker.C:
					_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
				}
			}
		})
	}
	return nil
}

func (s *Service) prune(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.PruneOlderThan)
	n, err := s.store.Prune(ctx, cutoff)
	if err != nil {
		s.log.Warn("journal prune failed", logx.Err(err))
		return
	}
	s.log.Info("journal pruned", logx.Int64("removed", n), logx.Time("cutoff", cutoff))
}
