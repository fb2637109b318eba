package store

import (
	"context"
	"fmt"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

// LoadSiteGraph loads everything the renderer needs for one site in one shot:
// the site row, its reference rows, pages with joins, ranked brand views, and
// CTA tables.
func (s *Store) LoadSiteGraph(ctx context.Context, siteID int64) (*SiteGraph, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	g := &SiteGraph{Site: *site}

	err = s.db.QueryRowContext(ctx, "SELECT id, name, code FROM geos WHERE id = ?", site.GeoID).
		Scan(&g.Geo.ID, &g.Geo.Name, &g.Geo.Code)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryStorage, apperr.SeverityError,
			fmt.Sprintf("site %d has no geo", siteID))
	}
	err = s.db.QueryRowContext(ctx, "SELECT id, name, slug FROM verticals WHERE id = ?", site.VerticalID).
		Scan(&g.Vertical.ID, &g.Vertical.Name, &g.Vertical.Slug)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CategoryStorage, apperr.SeverityError,
			fmt.Sprintf("site %d has no vertical", siteID))
	}
	if site.DomainID != nil {
		d, err := s.getDomain(ctx, *site.DomainID)
		if err != nil {
			return nil, err
		}
		g.Domain = d
	}

	if g.Pages, err = s.listPageViews(ctx, siteID); err != nil {
		return nil, err
	}
	if g.Brands, err = s.listBrandViews(ctx, siteID, site.GeoID); err != nil {
		return nil, err
	}
	if g.CTATables, err = s.listCTATables(ctx, siteID); err != nil {
		return nil, err
	}
	return g, nil
}
