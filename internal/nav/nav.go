// Package nav maps pages to canonical site-relative URLs and builds the
// header/footer link structures. Pure functions, no I/O.
package nav

import (
	"sort"

	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

// Page type slugs with dedicated URL shapes.
const (
	TypeHomepage    = "homepage"
	TypeComparison  = "comparison"
	TypeEvergreen   = "evergreen"
	TypeBrandReview = "brand-review"
	TypeBonusReview = "bonus-review"
	TypeNews        = "news"
	TypeNewsArticle = "news-article"
	TypeTips        = "tips"
	TypeTipsArticle = "tips-article"
)

// URLFor returns the canonical site-relative path for a page.
func URLFor(p store.PageView) string {
	switch p.TypeSlug {
	case TypeHomepage:
		return "/"
	case TypeBrandReview:
		return "/reviews/" + p.Slug
	case TypeBonusReview:
		return "/bonuses/" + p.Slug
	case TypeNews:
		return "/news"
	case TypeNewsArticle:
		return "/news/" + p.Slug
	case TypeTips:
		return "/tips"
	case TypeTipsArticle:
		return "/tips/" + p.Slug
	case TypeEvergreen:
		if p.ParentSlug != "" {
			return "/" + p.ParentSlug + "/" + p.Slug
		}
		return "/" + p.Slug
	default:
		return "/" + p.Slug
	}
}

// Link is one navigation entry; top-level entries may carry one level of
// children.
type Link struct {
	Label    string
	URL      string
	Children []Link
}

// FooterLinks partitions footer pages into the three rendered columns.
type FooterLinks struct {
	BrandReviews []Link
	Bonuses      []Link
	Guides       []Link
}

func label(p store.PageView) string {
	if p.NavLabel != "" {
		return p.NavLabel
	}
	return p.Title
}

// byNavOrder sorts by (nav_order, id) for a stable menu.
func byNavOrder(pages []store.PageView) {
	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].NavOrder != pages[j].NavOrder {
			return pages[i].NavOrder < pages[j].NavOrder
		}
		return pages[i].ID < pages[j].ID
	})
}

// BuildNav builds the header navigation. A synthetic Home entry always comes
// first. When any page opts into the nav, only flagged pages appear, nested
// one level under their nav parent. When no page opts in, the legacy menu is
// used: the comparison page plus every evergreen page, flat.
func BuildNav(pages []store.PageView) []Link {
	links := []Link{{Label: "Home", URL: "/"}}

	var flagged []store.PageView
	for _, p := range pages {
		if p.ShowInNav {
			flagged = append(flagged, p)
		}
	}

	if len(flagged) == 0 {
		return append(links, legacyNav(pages)...)
	}

	var top []store.PageView
	childrenOf := make(map[int64][]store.PageView)
	for _, p := range flagged {
		if p.NavParentID == nil {
			top = append(top, p)
		} else {
			childrenOf[*p.NavParentID] = append(childrenOf[*p.NavParentID], p)
		}
	}
	byNavOrder(top)
	for _, p := range top {
		l := Link{Label: label(p), URL: URLFor(p)}
		kids := childrenOf[p.ID]
		byNavOrder(kids)
		for _, c := range kids {
			l.Children = append(l.Children, Link{Label: label(c), URL: URLFor(c)})
		}
		links = append(links, l)
	}
	return links
}

func legacyNav(pages []store.PageView) []Link {
	var links []Link
	for _, p := range pages {
		if p.TypeSlug == TypeComparison {
			links = append(links, Link{Label: "Compare", URL: URLFor(p)})
			break
		}
	}
	for _, p := range pages {
		if p.TypeSlug == TypeEvergreen {
			links = append(links, Link{Label: label(p), URL: URLFor(p)})
		}
	}
	return links
}

// BuildFooter partitions footer-flagged pages into review/bonus/guide columns.
// Returns nil when no page opts in; the caller renders its legacy footer then.
func BuildFooter(pages []store.PageView) *FooterLinks {
	var flagged []store.PageView
	for _, p := range pages {
		if p.ShowInFooter {
			flagged = append(flagged, p)
		}
	}
	if len(flagged) == 0 {
		return nil
	}
	byNavOrder(flagged)
	f := &FooterLinks{}
	for _, p := range flagged {
		l := Link{Label: label(p), URL: URLFor(p)}
		switch p.TypeSlug {
		case TypeBrandReview:
			f.BrandReviews = append(f.BrandReviews, l)
		case TypeBonusReview:
			f.Bonuses = append(f.Bonuses, l)
		default:
			f.Guides = append(f.Guides, l)
		}
	}
	return f
}

// ClusterLinks returns the sidebar links for a page: its siblings under the
// same nav parent, or its children when the page itself is a parent. The
// parent page, when present, leads the list.
func ClusterLinks(page store.PageView, pages []store.PageView) []Link {
	var links []Link
	if page.NavParentID != nil {
		for _, p := range pages {
			if p.ID == *page.NavParentID {
				links = append(links, Link{Label: label(p), URL: URLFor(p)})
				break
			}
		}
		var siblings []store.PageView
		for _, p := range pages {
			if p.NavParentID != nil && *p.NavParentID == *page.NavParentID && p.ID != page.ID {
				siblings = append(siblings, p)
			}
		}
		byNavOrder(siblings)
		for _, p := range siblings {
			links = append(links, Link{Label: label(p), URL: URLFor(p)})
		}
		return links
	}

	var children []store.PageView
	for _, p := range pages {
		if p.NavParentID != nil && *p.NavParentID == page.ID {
			children = append(children, p)
		}
	}
	byNavOrder(children)
	for _, p := range children {
		links = append(links, Link{Label: label(p), URL: URLFor(p)})
	}
	return links
}
