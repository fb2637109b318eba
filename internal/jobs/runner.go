// Package jobs coordinates the pipeline operations: it owns the site status
// transitions around rendering, deploying, and generating, and reports to
// metrics and the event bus.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/content"
	"github.com/free-plinko-game/aff-web-gen/internal/deploy"
	"github.com/free-plinko-game/aff-web-gen/internal/events"
	"github.com/free-plinko-game/aff-web-gen/internal/logfields"
	"github.com/free-plinko-game/aff-web-gen/internal/metrics"
	"github.com/free-plinko-game/aff-web-gen/internal/render"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Runner executes pipeline operations against one store. Per-site
// serialization comes from the status soft lock, not from the Runner.
type Runner struct {
	Store     *store.Store
	Renderer  *render.Renderer
	Deployer  *deploy.Deployer
	Transport deploy.TransportFactory
	Content   *content.Service
	Metrics   metrics.Recorder
	Bus       *events.Bus
	Logger    *slog.Logger
}

// NewRunner wires a Runner; metrics, bus, and logger may be nil.
func NewRunner(st *store.Store, r *render.Renderer, d *deploy.Deployer, tf deploy.TransportFactory, cs *content.Service, rec metrics.Recorder, bus *events.Bus, logger *slog.Logger) *Runner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Store: st, Renderer: r, Deployer: d, Transport: tf,
		Content: cs, Metrics: rec, Bus: bus, Logger: logger,
	}
}

func (r *Runner) publish(evt events.Event) {
	if r.Bus != nil {
		r.Bus.Publish(evt)
	}
}

// Build renders the site into a new release directory. On success the site
// row records the output path and built status, then the version counter
// advances. On failure the status drops to failed and the partial directory
// is left behind for inspection.
func (r *Runner) Build(ctx context.Context, siteID int64) (string, error) {
	if err := r.Store.BeginOperation(ctx, siteID, store.StatusBuilding); err != nil {
		return "", err
	}
	g, err := r.Store.LoadSiteGraph(ctx, siteID)
	if err != nil {
		_ = r.Store.SetStatus(ctx, siteID, store.StatusFailed)
		return "", err
	}
	r.publish(events.BuildStarted{SiteID: siteID, Version: g.Site.CurrentVersion})

	start := time.Now()
	outputPath, err := r.Renderer.BuildSite(ctx, g)
	r.Metrics.ObserveBuildDuration(time.Since(start))
	if err != nil {
		_ = r.Store.SetStatus(ctx, siteID, store.StatusFailed)
		r.Metrics.IncBuildOutcome(metrics.OutcomeFailed)
		r.publish(events.BuildCompleted{SiteID: siteID, Version: g.Site.CurrentVersion, Error: err.Error()})
		return "", err
	}
	if err := r.Store.MarkBuilt(ctx, siteID, outputPath, time.Now()); err != nil {
		return "", err
	}
	r.Metrics.IncBuildOutcome(metrics.OutcomeSuccess)
	r.Metrics.AddPagesRendered(len(g.Pages))
	r.publish(events.BuildCompleted{
		SiteID: siteID, Version: g.Site.CurrentVersion, OutputPath: outputPath, Success: true,
	})
	return outputPath, nil
}

// Deploy ships the last build to the remote host.
func (r *Runner) Deploy(ctx context.Context, siteID int64) (string, error) {
	site, err := r.Store.GetSite(ctx, siteID)
	if err != nil {
		return "", err
	}
	if site.DomainID == nil {
		return "", apperr.ValidationError("site has no domain assigned")
	}
	domain, err := r.Store.GetDomain(ctx, *site.DomainID)
	if err != nil {
		return "", err
	}
	if err := r.Store.BeginOperation(ctx, siteID, store.StatusDeploying); err != nil {
		return "", err
	}
	r.publish(events.DeployStarted{SiteID: siteID, Domain: domain.Name})

	fail := func(err error) (string, error) {
		_ = r.Store.SetStatus(ctx, siteID, store.StatusFailed)
		r.Metrics.IncDeployOutcome(metrics.OutcomeFailed)
		r.publish(events.DeployCompleted{SiteID: siteID, Domain: domain.Name, Error: err.Error()})
		return "", err
	}

	t, err := r.Transport(ctx)
	if err != nil {
		return fail(err)
	}
	defer t.Close()

	start := time.Now()
	res, err := r.Deployer.Deploy(ctx, t, deploy.Input{
		Domain:         domain.Name,
		SSLProvisioned: domain.SSLProvisioned,
		CommentsAPI:    site.CommentsAPI,
		OutputPath:     site.OutputPath,
	})
	r.Metrics.ObserveDeployDuration(time.Since(start))
	if err != nil {
		return fail(err)
	}
	if res.SSLProvisioned && !domain.SSLProvisioned {
		if err := r.Store.MarkSSLProvisioned(ctx, domain.ID); err != nil {
			r.Logger.Warn("recording ssl provisioning failed", logfields.Domain(domain.Name), logfields.Error(err))
		}
	}
	if err := r.Store.MarkDeployed(ctx, siteID, time.Now()); err != nil {
		return "", err
	}
	r.Metrics.IncDeployOutcome(metrics.OutcomeSuccess)
	r.publish(events.DeployCompleted{
		SiteID: siteID, Domain: domain.Name, Release: res.RemoteRelease, Success: true,
	})
	return res.RemoteRelease, nil
}

// Rollback repoints the served release. The version counter is untouched:
// rollback changes what is served, not the row of truth.
func (r *Runner) Rollback(ctx context.Context, siteID int64, targetVersion int) (int, error) {
	site, err := r.Store.GetSite(ctx, siteID)
	if err != nil {
		return 0, err
	}
	if site.DomainID == nil {
		return 0, apperr.ValidationError("site has no domain assigned")
	}
	domain, err := r.Store.GetDomain(ctx, *site.DomainID)
	if err != nil {
		return 0, err
	}
	t, err := r.Transport(ctx)
	if err != nil {
		return 0, err
	}
	defer t.Close()

	target, err := r.Deployer.Rollback(ctx, t, deploy.RollbackInput{
		Domain: domain.Name,
		// The counter was already advanced past the last built release.
		CurrentVersion: site.CurrentVersion - 1,
		TargetVersion:  targetVersion,
	})
	if err != nil {
		return 0, err
	}
	r.publish(events.RolledBack{SiteID: siteID, Domain: domain.Name, TargetVersion: target})
	return target, nil
}

// Generate runs the content batch. Partial successes persist before any
// failure is surfaced; a failed batch still leaves the site failed.
func (r *Runner) Generate(ctx context.Context, siteID int64, onlyNew bool) (*content.BatchResult, error) {
	if err := r.Store.BeginOperation(ctx, siteID, store.StatusGenerating); err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := r.Content.RunBatch(ctx, siteID, onlyNew)
	r.Metrics.ObserveGenerationDuration(time.Since(start))
	if res != nil {
		for i := 0; i < res.Succeeded; i++ {
			r.Metrics.IncGenerationResult(true)
		}
		for i := 0; i < res.Failed; i++ {
			r.Metrics.IncGenerationResult(false)
		}
		r.publish(events.GenerationCompleted{SiteID: siteID, Succeeded: res.Succeeded, Failed: res.Failed})
	}
	if err != nil {
		_ = r.Store.SetStatus(ctx, siteID, store.StatusFailed)
		return res, err
	}
	if err := r.Store.SetStatus(ctx, siteID, store.StatusGenerated); err != nil {
		return res, err
	}
	return res, nil
}

// Recover resets sites orphaned in an in-progress status by a crash.
func (r *Runner) Recover(ctx context.Context) error {
	ids, err := r.Store.RecoverOrphaned(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		r.Logger.Warn("reset orphaned site to failed", logfields.SiteID(id))
	}
	return nil
}
