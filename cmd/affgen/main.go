package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/free-plinko-game/aff-web-gen/internal/config"
	"github.com/free-plinko-game/aff-web-gen/internal/content"
	"github.com/free-plinko-game/aff-web-gen/internal/daemon"
	"github.com/free-plinko-game/aff-web-gen/internal/deploy"
	"github.com/free-plinko-game/aff-web-gen/internal/events"
	"github.com/free-plinko-game/aff-web-gen/internal/jobs"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/metrics"
	"github.com/free-plinko-game/aff-web-gen/internal/preview"
	"github.com/free-plinko-game/aff-web-gen/internal/render"
	"github.com/free-plinko-game/aff-web-gen/internal/retry"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Generate struct {
		Site    int64 `short:"s" required:"" help:"Site ID to generate content for"`
		OnlyNew bool  `help:"Only generate pages without existing content"`
	} `cmd:"" help:"Generate page content for a site"`

	Build struct {
		Site int64 `short:"s" required:"" help:"Site ID to build"`
	} `cmd:"" help:"Render a site into a new release directory"`

	Deploy struct {
		Site int64 `short:"s" required:"" help:"Site ID to deploy"`
	} `cmd:"" help:"Upload the last build and switch the live release"`

	Rollback struct {
		Site int64 `short:"s" required:"" help:"Site ID to roll back"`
		To   int   `help:"Release version to serve (default: previous)"`
	} `cmd:"" help:"Repoint the live release to an earlier version"`

	Preview struct {
		Site int64  `short:"s" required:"" help:"Site ID to preview"`
		Addr string `default:"localhost:8080" help:"Listen address"`
	} `cmd:"" help:"Serve a site from the database with template reload"`

	Daemon struct{} `cmd:"" help:"Run the freshness sweep and metrics endpoint"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if kctx.Command() == "init" {
		if err := config.Init(CLI.Config, CLI.Init.Force); err != nil {
			fatal(logger, "init failed", err)
		}
		logger.Info("configuration written", "path", CLI.Config)
		return
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fatal(logger, "failed to load configuration", err)
	}

	st, err := store.New(cfg.Database.Path)
	if err != nil {
		fatal(logger, "failed to open database", err)
	}
	defer func() { _ = st.Close() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bus := events.NewBus()
	defer bus.Close()

	switch kctx.Command() {
	case "generate":
		runner := newRunner(cfg, st, bus, nil, logger)
		res, err := runner.Generate(ctx, CLI.Generate.Site, CLI.Generate.OnlyNew)
		if res != nil {
			logger.Info("generation finished",
				"attempted", res.Attempted, "succeeded", res.Succeeded, "failed", res.Failed)
		}
		if err != nil {
			fatal(logger, "generation failed", err)
		}
	case "build":
		runner := newRunner(cfg, st, bus, nil, logger)
		path, err := runner.Build(ctx, CLI.Build.Site)
		if err != nil {
			fatal(logger, "build failed", err)
		}
		logger.Info("build finished", logfields.SiteID(CLI.Build.Site), "output", path)
	case "deploy":
		runner := newRunner(cfg, st, bus, nil, logger)
		release, err := runner.Deploy(ctx, CLI.Deploy.Site)
		if err != nil {
			fatal(logger, "deploy failed", err)
		}
		logger.Info("deploy finished", logfields.SiteID(CLI.Deploy.Site), logfields.Release(release))
	case "rollback":
		runner := newRunner(cfg, st, bus, nil, logger)
		target, err := runner.Rollback(ctx, CLI.Rollback.Site, CLI.Rollback.To)
		if err != nil {
			fatal(logger, "rollback failed", err)
		}
		logger.Info("rollback finished", logfields.SiteID(CLI.Rollback.Site), logfields.Version(target))
	case "preview":
		renderer := render.New(cfg.Paths.Templates, cfg.Paths.Assets, cfg.Paths.Uploads, cfg.Paths.Output, logger)
		srv := preview.NewServer(st, renderer, CLI.Preview.Site, logger)
		if err := srv.Run(ctx, CLI.Preview.Addr); err != nil {
			fatal(logger, "preview failed", err)
		}
	case "daemon":
		if err := runDaemon(ctx, cfg, st, bus, logger); err != nil {
			fatal(logger, "daemon failed", err)
		}
	default:
		fatal(logger, "unknown command", fmt.Errorf("%s", kctx.Command()))
	}
}

// newRunner wires the full pipeline. The metrics recorder is nil outside
// daemon mode; one-shot commands have nothing scraping them.
func newRunner(cfg *config.Config, st *store.Store, bus *events.Bus, rec metrics.Recorder, logger *slog.Logger) *jobs.Runner {
	renderer := render.New(cfg.Paths.Templates, cfg.Paths.Assets, cfg.Paths.Uploads, cfg.Paths.Output, logger)
	deployer := deploy.NewDeployer(cfg.Deploy, logger)
	transport := func(ctx context.Context) (deploy.Transport, error) {
		return deploy.DialSSH(ctx, cfg.Deploy)
	}

	gen := cfg.Generation
	policy := retry.NewPolicy(retry.BackoffMode(gen.RetryMode), gen.RetryInitial, gen.RetryMax, gen.RetryCount)
	client := content.NewClient(gen.BaseURL, cfg.APIKey(), gen.Model,
		gen.MaxTokens, gen.ModelMax, gen.Timeout, policy, logger)
	svc := content.NewService(st, client, gen.Workers, logger)
	if rec != nil {
		svc.Metrics = rec
	}

	return jobs.NewRunner(st, renderer, deployer, transport, svc, rec, bus, logger)
}

func runDaemon(ctx context.Context, cfg *config.Config, st *store.Store, bus *events.Bus, logger *slog.Logger) error {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)

	runner := newRunner(cfg, st, bus, rec, logger)
	mgr := jobs.NewManager(runner, logger)
	d := daemon.New(st, runner, mgr, bus, cfg.Daemon, reg, logger)
	return d.Run(ctx)
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, logfields.Error(err))
	os.Exit(1)
}
