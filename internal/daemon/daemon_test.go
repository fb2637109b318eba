package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/free-plinko-game/aff-web-gen/internal/config"
	"github.com/free-plinko-game/aff-web-gen/internal/events"
	"github.com/free-plinko-game/aff-web-gen/internal/jobs"
	"github.com/free-plinko-game/aff-web-gen/internal/render"
	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

const sweepTemplate = `<html><body><h1>{{.Title}}</h1></body></html>`

type sweepEnv struct {
	store  *store.Store
	daemon *Daemon
	geoID  int64
	vertID int64
	homeID int64
}

func newSweepEnv(t *testing.T, cfg config.DaemonConfig) *sweepEnv {
	t.Helper()
	root := t.TempDir()
	templates := filepath.Join(root, "templates")
	require.NoError(t, os.MkdirAll(templates, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(templates, "homepage.html"), []byte(sweepTemplate), 0o644))

	s, err := store.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	geoID, err := s.CreateGeo(ctx, "United Kingdom", "uk")
	require.NoError(t, err)
	vertID, err := s.CreateVertical(ctx, "Sports Betting", "sports-betting")
	require.NoError(t, err)
	homeID, err := s.CreatePageType(ctx, "Homepage", "homepage", "homepage.html")
	require.NoError(t, err)

	renderer := render.New(templates, filepath.Join(root, "assets"), filepath.Join(root, "uploads"), filepath.Join(root, "builds"), nil)
	bus := events.NewBus()
	t.Cleanup(bus.Close)
	runner := jobs.NewRunner(s, renderer, nil, nil, nil, nil, bus, nil)
	mgr := jobs.NewManager(runner, nil)

	return &sweepEnv{
		store:  s,
		daemon: New(s, runner, mgr, bus, cfg, nil, nil),
		geoID:  geoID,
		vertID: vertID,
		homeID: homeID,
	}
}

func (e *sweepEnv) addSite(t *testing.T, name string) int64 {
	t.Helper()
	ctx := context.Background()
	siteID, err := e.store.CreateSite(ctx, store.Site{Name: name, GeoID: e.geoID, VerticalID: e.vertID})
	require.NoError(t, err)
	_, err = e.store.CreatePage(ctx, store.SitePage{SiteID: siteID, PageTypeID: e.homeID, Slug: "home", Title: "Home"})
	require.NoError(t, err)
	return siteID
}

func jobsForSite(mgr *jobs.Manager, siteID int64) int {
	n := 0
	for _, j := range mgr.List() {
		if j.SiteID == siteID {
			n++
		}
	}
	return n
}

func TestSweepEnqueuesRebuildForNewContent(t *testing.T) {
	e := newSweepEnv(t, config.DaemonConfig{FreshnessThreshold: 24 * time.Hour})
	ctx := context.Background()
	siteID := e.addSite(t, "Fresh Content")

	pages, err := e.store.ListPageViews(ctx, siteID)
	require.NoError(t, err)
	require.NoError(t, e.store.SetPageContent(ctx, pages[0].ID, `{"intro":"hi"}`, time.Now()))

	e.daemon.Sweep(ctx)
	e.daemon.Manager.Wait()
	require.Equal(t, 1, jobsForSite(e.daemon.Manager, siteID))
}

func TestSweepSkipsUpToDateSite(t *testing.T) {
	e := newSweepEnv(t, config.DaemonConfig{FreshnessThreshold: 24 * time.Hour})
	ctx := context.Background()
	siteID := e.addSite(t, "Up To Date")

	// Never generated, never built: nothing to rebuild from.
	e.daemon.Sweep(ctx)
	e.daemon.Manager.Wait()
	require.Zero(t, jobsForSite(e.daemon.Manager, siteID))
}

func TestSweepEnqueuesRebuildForStaleBuild(t *testing.T) {
	e := newSweepEnv(t, config.DaemonConfig{FreshnessThreshold: 24 * time.Hour})
	ctx := context.Background()
	siteID := e.addSite(t, "Stale Build")

	pages, err := e.store.ListPageViews(ctx, siteID)
	require.NoError(t, err)
	require.NoError(t, e.store.SetPageContent(ctx, pages[0].ID, `{}`, time.Now().Add(-72*time.Hour)))
	require.NoError(t, e.store.MarkBuilt(ctx, siteID, "/builds/1/v1", time.Now().Add(-48*time.Hour)))

	e.daemon.Sweep(ctx)
	e.daemon.Manager.Wait()
	require.Equal(t, 1, jobsForSite(e.daemon.Manager, siteID))
}

func TestSweepHonorsPerSiteFreshnessDays(t *testing.T) {
	e := newSweepEnv(t, config.DaemonConfig{FreshnessThreshold: 24 * time.Hour})
	ctx := context.Background()
	siteID, err := e.store.CreateSite(ctx, store.Site{
		Name: "Slow Mover", GeoID: e.geoID, VerticalID: e.vertID, FreshnessDays: 30,
	})
	require.NoError(t, err)
	pageID, err := e.store.CreatePage(ctx, store.SitePage{SiteID: siteID, PageTypeID: e.homeID, Slug: "home", Title: "Home"})
	require.NoError(t, err)
	require.NoError(t, e.store.SetPageContent(ctx, pageID, `{}`, time.Now().Add(-72*time.Hour)))
	require.NoError(t, e.store.MarkBuilt(ctx, siteID, "/builds/1/v1", time.Now().Add(-48*time.Hour)))

	// Two days old is inside the site's 30-day window.
	e.daemon.Sweep(ctx)
	e.daemon.Manager.Wait()
	require.Zero(t, jobsForSite(e.daemon.Manager, siteID))
}

func TestSweepSkipsInProgressSite(t *testing.T) {
	e := newSweepEnv(t, config.DaemonConfig{FreshnessThreshold: 24 * time.Hour})
	ctx := context.Background()
	siteID := e.addSite(t, "Busy")

	pages, err := e.store.ListPageViews(ctx, siteID)
	require.NoError(t, err)
	require.NoError(t, e.store.SetPageContent(ctx, pages[0].ID, `{}`, time.Now()))
	require.NoError(t, e.store.BeginOperation(ctx, siteID, store.StatusGenerating))

	e.daemon.Sweep(ctx)
	e.daemon.Manager.Wait()
	require.Zero(t, jobsForSite(e.daemon.Manager, siteID))
}

func TestIsStale(t *testing.T) {
	d := &Daemon{Cfg: config.DaemonConfig{FreshnessThreshold: 24 * time.Hour}}

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)

	if stale, _ := d.isStale(store.Site{BuiltAt: &old}); !stale {
		t.Error("48h-old build should be stale against a 24h threshold")
	}
	if stale, _ := d.isStale(store.Site{BuiltAt: &recent}); stale {
		t.Error("1h-old build should not be stale")
	}
	if stale, _ := d.isStale(store.Site{}); stale {
		t.Error("never-built site is never stale")
	}
	if stale, _ := d.isStale(store.Site{BuiltAt: &old, FreshnessDays: 30}); stale {
		t.Error("per-site window overrides the global threshold")
	}
}
