package nav

import (
	"testing"

	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

func page(id int64, typeSlug, slug string) store.PageView {
	pv := store.PageView{TypeSlug: typeSlug}
	pv.ID = id
	pv.Slug = slug
	pv.Title = slug
	return pv
}

func TestURLFor(t *testing.T) {
	cases := []struct {
		typeSlug, slug, parent, want string
	}{
		{"homepage", "home", "", "/"},
		{"comparison", "best-betting-sites", "", "/best-betting-sites"},
		{"brand-review", "bet365", "", "/reviews/bet365"},
		{"bonus-review", "bet365-bonus", "", "/bonuses/bet365-bonus"},
		{"evergreen", "odds-explained", "", "/odds-explained"},
		{"evergreen", "basics", "guides", "/guides/basics"},
		{"news", "news", "", "/news"},
		{"news-article", "big-signing", "", "/news/big-signing"},
		{"tips", "tips", "", "/tips"},
		{"tips-article", "derby-tips", "", "/tips/derby-tips"},
		{"custom-landing", "landing", "", "/landing"},
	}
	for _, tc := range cases {
		p := page(1, tc.typeSlug, tc.slug)
		p.ParentSlug = tc.parent
		if got := URLFor(p); got != tc.want {
			t.Errorf("URLFor(%s, %s)=%q want %q", tc.typeSlug, tc.slug, got, tc.want)
		}
	}
}

func TestBuildNavFlagged(t *testing.T) {
	guides := page(1, "evergreen", "guides")
	guides.ShowInNav = true
	guides.NavOrder = 2
	basics := page(2, "evergreen", "basics")
	basics.ShowInNav = true
	basics.NavParentID = &guides.ID
	basics.ParentSlug = "guides"
	reviews := page(3, "brand-review", "bet365")
	reviews.ShowInNav = true
	reviews.NavOrder = 1
	reviews.NavLabel = "Bet365 Review"
	hidden := page(4, "comparison", "compare")

	links := BuildNav([]store.PageView{guides, basics, reviews, hidden})
	if len(links) != 3 {
		t.Fatalf("expected Home + 2 top-level links, got %d: %+v", len(links), links)
	}
	if links[0].Label != "Home" || links[0].URL != "/" {
		t.Errorf("first link must be Home, got %+v", links[0])
	}
	if links[1].Label != "Bet365 Review" {
		t.Errorf("nav_order must sort reviews first, got %q", links[1].Label)
	}
	if len(links[2].Children) != 1 || links[2].Children[0].URL != "/guides/basics" {
		t.Errorf("guides should nest basics, got %+v", links[2].Children)
	}
}

func TestBuildNavLegacyFallback(t *testing.T) {
	comparison := page(1, "comparison", "best-sites")
	ever1 := page(2, "evergreen", "odds")
	ever2 := page(3, "evergreen", "strategy")
	review := page(4, "brand-review", "bet365")

	links := BuildNav([]store.PageView{review, comparison, ever1, ever2})
	if len(links) != 4 {
		t.Fatalf("expected Home + Compare + 2 evergreens, got %d", len(links))
	}
	if links[1].Label != "Compare" || links[1].URL != "/best-sites" {
		t.Errorf("comparison must be labeled Compare, got %+v", links[1])
	}
	for _, l := range links {
		if len(l.Children) != 0 {
			t.Errorf("legacy nav must be flat, got children on %q", l.Label)
		}
	}
}

func TestBuildFooter(t *testing.T) {
	if f := BuildFooter([]store.PageView{page(1, "evergreen", "odds")}); f != nil {
		t.Fatal("no flagged pages should return nil footer")
	}

	rev := page(1, "brand-review", "bet365")
	rev.ShowInFooter = true
	bonus := page(2, "bonus-review", "bet365-bonus")
	bonus.ShowInFooter = true
	guide := page(3, "evergreen", "odds")
	guide.ShowInFooter = true

	f := BuildFooter([]store.PageView{guide, bonus, rev})
	if f == nil {
		t.Fatal("expected footer")
	}
	if len(f.BrandReviews) != 1 || len(f.Bonuses) != 1 || len(f.Guides) != 1 {
		t.Fatalf("bad partition: %+v", f)
	}
	if f.Bonuses[0].URL != "/bonuses/bet365-bonus" {
		t.Errorf("bonus URL wrong: %q", f.Bonuses[0].URL)
	}
}

func TestClusterLinks(t *testing.T) {
	parent := page(1, "evergreen", "guides")
	a := page(2, "evergreen", "basics")
	a.NavParentID = &parent.ID
	a.ParentSlug = "guides"
	b := page(3, "evergreen", "advanced")
	b.NavParentID = &parent.ID
	b.ParentSlug = "guides"
	all := []store.PageView{parent, a, b}

	// A child sees the parent first, then its siblings.
	links := ClusterLinks(a, all)
	if len(links) != 2 {
		t.Fatalf("expected parent + 1 sibling, got %+v", links)
	}
	if links[0].URL != "/guides" {
		t.Errorf("parent must lead the cluster, got %q", links[0].URL)
	}
	if links[1].URL != "/guides/advanced" {
		t.Errorf("sibling link wrong: %q", links[1].URL)
	}

	// The parent sees its children.
	links = ClusterLinks(parent, all)
	if len(links) != 2 {
		t.Fatalf("expected 2 children, got %+v", links)
	}
}
