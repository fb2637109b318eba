package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

type fixture struct {
	store    *Store
	geoID    int64
	vertID   int64
	siteID   int64
	homeType int64
	revType  int64
	everType int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctx := context.Background()
	f := &fixture{store: s}
	f.geoID, err = s.CreateGeo(ctx, "United Kingdom", "uk")
	require.NoError(t, err)
	f.vertID, err = s.CreateVertical(ctx, "Sports Betting", "sports-betting")
	require.NoError(t, err)
	f.homeType, err = s.CreatePageType(ctx, "Homepage", "homepage", "homepage.html")
	require.NoError(t, err)
	f.revType, err = s.CreatePageType(ctx, "Brand Review", "brand-review", "brand_review.html")
	require.NoError(t, err)
	f.everType, err = s.CreatePageType(ctx, "Evergreen", "evergreen", "evergreen.html")
	require.NoError(t, err)
	f.siteID, err = s.CreateSite(ctx, Site{Name: "BetFinder UK", GeoID: f.geoID, VerticalID: f.vertID})
	require.NoError(t, err)
	return f
}

func strPtr(s string) *string { return &s }

func TestPageIdentityUniqueness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Global pages: one per (site, type).
	_, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Slug: "home"})
	require.NoError(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Slug: "home2"})
	require.Error(t, err)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))

	// Brand pages: one per (site, type, brand).
	brandA, err := f.store.CreateBrand(ctx, Brand{Name: "Bet365", Slug: "bet365"})
	require.NoError(t, err)
	brandB, err := f.store.CreateBrand(ctx, Brand{Name: "Unibet", Slug: "unibet"})
	require.NoError(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.revType, BrandID: &brandA, Slug: "bet365-review"})
	require.NoError(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.revType, BrandID: &brandA, Slug: "bet365-review-2"})
	require.Error(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.revType, BrandID: &brandB, Slug: "unibet-review"})
	require.NoError(t, err)

	// Evergreen pages: one per (site, type, topic); differing topics never conflict.
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("odds"), Slug: "odds"})
	require.NoError(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("odds"), Slug: "odds-2"})
	require.Error(t, err)
	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("handicap"), Slug: "handicap"})
	require.NoError(t, err)
}

func TestPageSlugDerivationAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// An empty slug is derived from the title, folded and hyphenated.
	id, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Title: "Café Bonus Überblick"})
	require.NoError(t, err)
	pv, err := f.store.GetPageView(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "cafe-bonus-uberblick", pv.Slug)

	// Evergreen pages derive from the topic, not the title.
	id, err = f.store.CreatePage(ctx, SitePage{
		SiteID: f.siteID, PageTypeID: f.everType,
		EvergreenTopic: strPtr("Live Betting"), Title: "The Complete Live Betting Guide",
	})
	require.NoError(t, err)
	pv, err = f.store.GetPageView(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "live-betting", pv.Slug)

	// A supplied slug must already be URL-safe.
	_, err = f.store.CreatePage(ctx, SitePage{
		SiteID: f.siteID, PageTypeID: f.everType,
		EvergreenTopic: strPtr("odds"), Slug: "Betting Odds!",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))

	// Nothing usable in the title leaves nothing to derive.
	_, err = f.store.CreatePage(ctx, SitePage{
		SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("!!!"), Title: "???",
	})
	require.Error(t, err)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))
}

func TestNavParentNesting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	top, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("guides"), Slug: "guides"})
	require.NoError(t, err)
	child, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("basics"), Slug: "basics", NavParentID: &top})
	require.NoError(t, err)

	// Self-parent is rejected.
	err = f.store.SetNavParent(ctx, top, &top)
	require.Error(t, err)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))

	// Two-level nesting is rejected: child already has a parent.
	other, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.everType, EvergreenTopic: strPtr("advanced"), Slug: "advanced"})
	require.NoError(t, err)
	err = f.store.SetNavParent(ctx, other, &child)
	require.Error(t, err)

	// Re-parenting to a top-level page succeeds.
	require.NoError(t, f.store.SetNavParent(ctx, other, &top))
}

func TestContentHistoryAccumulation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	pageID, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Slug: "home"})
	require.NoError(t, err)

	// Three generations produce exactly two history records.
	require.NoError(t, f.store.SetPageContent(ctx, pageID, `{"gen":1}`, now))
	require.NoError(t, f.store.SetPageContent(ctx, pageID, `{"gen":2}`, now.Add(time.Minute)))
	require.NoError(t, f.store.SetPageContent(ctx, pageID, `{"gen":3}`, now.Add(2*time.Minute)))

	hist, err := f.store.ListHistory(ctx, pageID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	require.Equal(t, 1, hist[0].Version)
	require.Equal(t, `{"gen":1}`, hist[0].ContentJSON)
	require.Equal(t, 2, hist[1].Version)
	require.Equal(t, `{"gen":2}`, hist[1].ContentJSON)

	pv, err := f.store.GetPageView(ctx, pageID)
	require.NoError(t, err)
	require.Equal(t, `{"gen":3}`, pv.ContentJSON)

	// Restoring version 1 snapshots the live content first.
	require.NoError(t, f.store.RestoreHistory(ctx, pageID, 1, now.Add(3*time.Minute)))
	pv, err = f.store.GetPageView(ctx, pageID)
	require.NoError(t, err)
	require.Equal(t, `{"gen":1}`, pv.ContentJSON)

	hist, err = f.store.ListHistory(ctx, pageID)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	require.Equal(t, `{"gen":3}`, hist[2].ContentJSON)

	// Restoring an unknown version is a validation error.
	err = f.store.RestoreHistory(ctx, pageID, 99, now)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))
}

func TestBeginOperationSoftLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.BeginOperation(ctx, f.siteID, StatusBuilding))
	err := f.store.BeginOperation(ctx, f.siteID, StatusDeploying)
	require.Error(t, err)
	require.True(t, apperr.IsCategory(err, apperr.CategoryValidation))

	// A failed site can be operated on again.
	require.NoError(t, f.store.SetStatus(ctx, f.siteID, StatusFailed))
	require.NoError(t, f.store.BeginOperation(ctx, f.siteID, StatusBuilding))
}

func TestMarkBuiltIncrementsVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.MarkBuilt(ctx, f.siteID, "/builds/1/v1", time.Now()))
	site, err := f.store.GetSite(ctx, f.siteID)
	require.NoError(t, err)
	require.Equal(t, 2, site.CurrentVersion)
	require.Equal(t, StatusBuilt, site.Status)
	require.Equal(t, "/builds/1/v1", site.OutputPath)
	require.NotNil(t, site.BuiltAt)
}

func TestNeedsRebuild(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	pageID, err := f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Slug: "home"})
	require.NoError(t, err)

	// Never built, nothing generated: no rebuild needed yet.
	need, err := f.store.NeedsRebuild(ctx, f.siteID)
	require.NoError(t, err)
	require.False(t, need)

	// Never built, one generated page: rebuild.
	require.NoError(t, f.store.SetPageContent(ctx, pageID, `{}`, now))
	need, err = f.store.NeedsRebuild(ctx, f.siteID)
	require.NoError(t, err)
	require.True(t, need)

	// Built after generation: fresh.
	require.NoError(t, f.store.MarkBuilt(ctx, f.siteID, "/builds/1/v1", now.Add(time.Minute)))
	need, err = f.store.NeedsRebuild(ctx, f.siteID)
	require.NoError(t, err)
	require.False(t, need)

	// Content regenerated after the build: rebuild.
	require.NoError(t, f.store.SetPageContent(ctx, pageID, `{"v":2}`, now.Add(2*time.Minute)))
	need, err = f.store.NeedsRebuild(ctx, f.siteID)
	require.NoError(t, err)
	require.True(t, need)
}

func TestRecoverOrphaned(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other, err := f.store.CreateSite(ctx, Site{Name: "Casino Hub", GeoID: f.geoID, VerticalID: f.vertID})
	require.NoError(t, err)
	require.NoError(t, f.store.SetStatus(ctx, f.siteID, StatusBuilding))
	require.NoError(t, f.store.SetStatus(ctx, other, StatusDeployed))

	ids, err := f.store.RecoverOrphaned(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{f.siteID}, ids)

	site, err := f.store.GetSite(ctx, f.siteID)
	require.NoError(t, err)
	require.Equal(t, StatusFailed, site.Status)

	untouched, err := f.store.GetSite(ctx, other)
	require.NoError(t, err)
	require.Equal(t, StatusDeployed, untouched.Status)
}

func TestLoadSiteGraph(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	brandID, err := f.store.CreateBrand(ctx, Brand{Name: "Bet365", Slug: "bet365", AffiliateLink: "https://aff.example/bet365"})
	require.NoError(t, err)
	_, err = f.store.CreateBrandGeo(ctx, BrandGeo{BrandID: brandID, GeoID: f.geoID, WelcomeBonus: "100% up to £50", BonusCode: "UK50"})
	require.NoError(t, err)
	sbID, err := f.store.AddSiteBrand(ctx, f.siteID, brandID, 1)
	require.NoError(t, err)
	require.NoError(t, f.store.SetBrandOverride(ctx, SiteBrandOverride{SiteBrandID: sbID, WelcomeBonus: "Exclusive £60"}))

	tableID, err := f.store.CreateCTATable(ctx, f.siteID, "Top offers")
	require.NoError(t, err)
	_, err = f.store.AddCTARow(ctx, CTARow{TableID: tableID, BrandID: brandID, Rank: 1, IsVisible: true})
	require.NoError(t, err)

	domainID, err := f.store.CreateDomain(ctx, "betfinder.example")
	require.NoError(t, err)
	require.NoError(t, f.store.AssignDomain(ctx, f.siteID, domainID))

	_, err = f.store.CreatePage(ctx, SitePage{SiteID: f.siteID, PageTypeID: f.homeType, Slug: "home", CTATableID: &tableID})
	require.NoError(t, err)

	g, err := f.store.LoadSiteGraph(ctx, f.siteID)
	require.NoError(t, err)
	require.Equal(t, "uk", g.Geo.Code)
	require.Equal(t, "sports-betting", g.Vertical.Slug)
	require.NotNil(t, g.Domain)
	require.Equal(t, "betfinder.example", g.Domain.Name)
	require.Len(t, g.Pages, 1)
	require.Equal(t, "homepage", g.Pages[0].TypeSlug)
	require.Len(t, g.Brands, 1)
	require.NotNil(t, g.Brands[0].Geo)
	require.Equal(t, "Exclusive £60", g.Brands[0].Override.WelcomeBonus)
	require.Len(t, g.CTATables, 1)
	require.Len(t, g.CTATables[tableID].Rows, 1)
}
