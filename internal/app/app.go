// Package app wires configuration, logging, the gateway, the scheduler and
// the background services into one process lifecycle.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"

	"turfbot/internal/clock"
	"turfbot/internal/commands"
	"turfbot/internal/config"
	"turfbot/internal/gateway"
	"turfbot/internal/health"
	"turfbot/internal/journal"
	"turfbot/internal/maintenance"
	"turfbot/internal/render"
	"turfbot/internal/runtime/supervisor"
	"turfbot/internal/scheduler"
	"turfbot/pkg/logx"
)

type App struct {
	cfgm *config.Manager
	logs *logx.Service
	log  logx.Logger

	clk    clock.Clock
	store  journal.Store
	gw     *gateway.Telegram
	sched  *scheduler.Service
	router *commands.Router
	maint  *maintenance.Service
	hsrv   *health.Server

	sup    *supervisor.Supervisor
	cfgSub chan *config.Config
}

func New(cfgPath string) (*App, error) {
	bootLog := logx.NewConsole("INFO")

	cfgm := config.NewManager(cfgPath, bootLog.With(logx.String("comp", "config")))
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	clk := clock.NewReal(loc)

	store, err := journal.Open(cfg.JournalConfig(), log.With(logx.String("comp", "journal")))
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	gw, err := gateway.NewTelegram(gateway.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.PollTimeout(),
		RatePerSec:  cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "gateway")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	offsets, err := cfg.Offsets()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := health.NewMetrics(reg)

	a := &App{cfgm: cfgm, logs: logs, log: log.With(logx.String("comp", "app")), clk: clk, store: store, gw: gw}

	sched, err := scheduler.New(scheduler.Config{
		Events:       cfg.EventSet(),
		Offsets:      offsets,
		CleanupAfter: cfg.CleanupAfter(),
	}, clk, store, gw,
		func() gateway.Destination { return a.cfgm.Get().Destination() },
		metrics, log.With(logx.String("comp", "scheduler")))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.sched = sched
	health.RegisterOpenCycles(reg, sched.Tracker().Open)

	a.router = commands.NewRouter(gw, sched, cfgm, log.With(logx.String("comp", "commands")))
	a.maint = maintenance.New(maintenance.Config{
		PruneSchedule:  cfg.PruneSchedule(),
		PruneOlderThan: cfg.PruneOlderThan(),
		Location:       loc,
	}, store, log.With(logx.String("comp", "maintenance")))
	a.hsrv = health.NewServer(health.Config{Addr: cfg.HealthAddr()}, reg, log.With(logx.String("comp", "health")))

	return a, nil
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	if err := a.gw.Start(a.sup.Context()); err != nil {
		return err
	}
	a.sched.Start(a.sup.Context())
	a.sup.Go("commands", a.router.Run)
	a.sup.Go("config.watch", a.cfgm.Watch)
	if err := a.maint.Start(a.sup.Context(), a.sup); err != nil {
		return err
	}

	if a.hsrv != nil {
		a.sup.Go("health", func(context.Context) error { return a.hsrv.Start() })
		a.sup.Go0("health.stop", func(c context.Context) {
			<-c.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			_ = a.hsrv.Stop(sctx)
		})
	}

	// Logging config changes apply live; anything deeper needs a restart.
	a.cfgSub = a.cfgm.Subscribe(1)
	a.sup.Go0("config.apply", func(c context.Context) {
		for {
			select {
			case <-c.Done():
				return
			case cfg, ok := <-a.cfgSub:
				if !ok {
					return
				}
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				a.log.Info("config applied", logx.Int64("chat_id", cfg.Telegram.ChatID))
			}
		}
	})

	a.announceStartup(ctx)
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("started")
	return nil
}

// announceStartup posts the boot notice when a destination is configured.
// Best-effort: a failure only logs.
func (a *App) announceStartup(ctx context.Context) {
	cfg := a.cfgm.Get()
	dest := cfg.Destination()
	if dest.IsZero() {
		a.log.Info("no destination configured yet, use /here in the target chat")
		return
	}
	loc, _ := cfg.Location()
	sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := a.gw.Deliver(sctx, dest, render.Started(loc.String()), gateway.DeliverOptions{}); err != nil {
		a.log.Warn("startup notice failed", logx.Err(err))
	}
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	a.log.Info("stopping")

	a.sched.Stop()
	if a.sup != nil {
		a.sup.Cancel()
	}
	_ = a.gw.Stop(ctx)

	if a.sup != nil {
		wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = a.sup.Wait(wctx)
	}
	if a.cfgSub != nil {
		a.cfgm.Unsubscribe(a.cfgSub)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("journal close failed", logx.Err(err))
	}
	_ = a.logs.Close()
	return nil
}
