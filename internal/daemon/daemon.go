// Package daemon runs the long-lived mode: a periodic freshness sweep that
// enqueues rebuilds, the Prometheus endpoint, and optional NATS event
// forwarding.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/free-plinko-game/aff-web-gen/internal/config"
	"github.com/free-plinko-game/aff-web-gen/internal/events"
	"github.com/free-plinko-game/aff-web-gen/internal/jobs"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/metrics"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Daemon owns the scheduler and the observability endpoints. Operations run
// through the shared job manager so the status soft lock applies the same
// way it does for CLI invocations.
type Daemon struct {
	Store    *store.Store
	Runner   *jobs.Runner
	Manager  *jobs.Manager
	Bus      *events.Bus
	Cfg      config.DaemonConfig
	Registry *prom.Registry
	Logger   *slog.Logger
}

// New wires a daemon; registry and logger may be nil.
func New(st *store.Store, runner *jobs.Runner, mgr *jobs.Manager, bus *events.Bus, cfg config.DaemonConfig, reg *prom.Registry, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{
		Store: st, Runner: runner, Manager: mgr, Bus: bus,
		Cfg: cfg, Registry: reg, Logger: logger,
	}
}

// Run blocks until the context is canceled. Startup order: orphan recovery,
// metrics endpoint, NATS forwarding, then the sweep schedule.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Runner.Recover(ctx); err != nil {
		return fmt.Errorf("startup recovery: %w", err)
	}

	metricsSrv := d.startMetrics()

	if d.Cfg.NATS.Enabled {
		pub, err := events.NewNATSPublisher(ctx, d.Cfg.NATS, d.Logger)
		if err != nil {
			return fmt.Errorf("nats setup: %w", err)
		}
		defer pub.Close()
		ch, cancel := d.Bus.Subscribe(64)
		defer cancel()
		go pub.Forward(ctx, ch)
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(d.Cfg.SweepInterval),
		gocron.NewTask(func() { d.Sweep(ctx) }),
		gocron.WithName("freshness-sweep"),
	); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}
	scheduler.Start()
	d.Logger.Info("daemon started",
		"sweep_interval", d.Cfg.SweepInterval.String(),
		"metrics_addr", d.Cfg.MetricsAddr)

	<-ctx.Done()

	if err := scheduler.Shutdown(); err != nil {
		d.Logger.Warn("scheduler shutdown failed", logfields.Error(err))
	}
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			d.Logger.Warn("metrics server shutdown failed", logfields.Error(err))
		}
	}
	d.Manager.Wait()
	return nil
}

func (d *Daemon) startMetrics() *http.Server {
	if d.Cfg.MetricsAddr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(d.Registry))
	srv := &http.Server{
		Addr:         d.Cfg.MetricsAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.Logger.Error("metrics server failed", logfields.Error(err))
		}
	}()
	return srv
}

// Sweep enqueues a rebuild for every site whose content has moved past its
// last build or whose build has aged out. Sites with an operation in flight
// are skipped; the soft lock would refuse them anyway, this just avoids
// burning job records on certain failures.
func (d *Daemon) Sweep(ctx context.Context) {
	sites, err := d.Store.ListSites(ctx)
	if err != nil {
		d.Logger.Error("sweep: listing sites failed", logfields.Error(err))
		return
	}
	for _, site := range sites {
		if store.InProgress(site.Status) {
			continue
		}
		reason, ok, err := d.needsSweep(ctx, site)
		if err != nil {
			d.Logger.Error("sweep check failed", logfields.SiteID(site.ID), logfields.Error(err))
			continue
		}
		if !ok {
			continue
		}
		id := d.Manager.SubmitBuild(ctx, site.ID)
		d.Logger.Info("sweep enqueued rebuild",
			logfields.SiteID(site.ID), logfields.JobID(id), "reason", reason)
	}
}

func (d *Daemon) needsSweep(ctx context.Context, site store.Site) (string, bool, error) {
	needs, err := d.Store.NeedsRebuild(ctx, site.ID)
	if err != nil {
		return "", false, err
	}
	if needs {
		return "content newer than build", true, nil
	}
	if stale, age := d.isStale(site); stale {
		return fmt.Sprintf("build older than freshness window (%s)", age.Round(time.Hour)), true, nil
	}
	return "", false, nil
}

// isStale applies the freshness window: the per-site freshness_days value
// overrides the global threshold when set.
func (d *Daemon) isStale(site store.Site) (bool, time.Duration) {
	if site.BuiltAt == nil {
		return false, 0
	}
	threshold := d.Cfg.FreshnessThreshold
	if site.FreshnessDays > 0 {
		threshold = time.Duration(site.FreshnessDays) * 24 * time.Hour
	}
	if threshold <= 0 {
		return false, 0
	}
	age := time.Since(*site.BuiltAt)
	return age > threshold, age
}
