package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

// CreateGeo inserts a market.
func (s *Store) CreateGeo(ctx context.Context, name, code string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "INSERT INTO geos (name, code) VALUES (?, ?)", name, code)
	if err != nil {
		return 0, constraintError(err, fmt.Sprintf("geo %q already exists", code))
	}
	return res.LastInsertId()
}

// CreateVertical inserts a product niche.
func (s *Store) CreateVertical(ctx context.Context, name, slug string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "INSERT INTO verticals (name, slug) VALUES (?, ?)", name, slug)
	if err != nil {
		return 0, constraintError(err, fmt.Sprintf("vertical %q already exists", slug))
	}
	return res.LastInsertId()
}

// CreatePageType inserts page-type reference data.
func (s *Store) CreatePageType(ctx context.Context, name, slug, templateFile string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO page_types (name, slug, template_file) VALUES (?, ?, ?)", name, slug, templateFile)
	if err != nil {
		return 0, constraintError(err, fmt.Sprintf("page type %q already exists", slug))
	}
	return res.LastInsertId()
}

// PageTypeBySlug looks up page-type reference data.
func (s *Store) PageTypeBySlug(ctx context.Context, slug string) (*PageType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pt PageType
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, slug, template_file FROM page_types WHERE slug = ?", slug).
		Scan(&pt.ID, &pt.Name, &pt.Slug, &pt.TemplateFile)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ValidationError(fmt.Sprintf("unknown page type %q", slug))
	}
	if err != nil {
		return nil, fmt.Errorf("query page type: %w", err)
	}
	return &pt, nil
}

// CreateAuthor inserts an author.
func (s *Store) CreateAuthor(ctx context.Context, a Author) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO authors (name, url, job_title) VALUES (?, ?, ?)", a.Name, a.URL, a.JobTitle)
	if err != nil {
		return 0, fmt.Errorf("insert author: %w", err)
	}
	return res.LastInsertId()
}

// CreateSite inserts a site in draft status.
func (s *Store) CreateSite(ctx context.Context, site Site) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if site.Status == "" {
		site.Status = StatusDraft
	}
	if site.CurrentVersion == 0 {
		site.CurrentVersion = 1
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (name, geo_id, vertical_id, domain_id, status, output_path,
			current_version, custom_robots, custom_head, freshness_days, comments_api)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		site.Name, site.GeoID, site.VerticalID, nullInt(site.DomainID), site.Status,
		site.OutputPath, site.CurrentVersion, site.CustomRobots, site.CustomHead,
		site.FreshnessDays, site.CommentsAPI)
	if err != nil {
		return 0, fmt.Errorf("insert site: %w", err)
	}
	return res.LastInsertId()
}

const siteColumns = `id, name, geo_id, vertical_id, domain_id, status, output_path,
	current_version, built_at, deployed_at, custom_robots, custom_head, freshness_days, comments_api`

func scanSite(row interface{ Scan(...any) error }) (*Site, error) {
	var site Site
	var domainID sql.NullInt64
	var builtAt, deployedAt sql.NullInt64
	err := row.Scan(&site.ID, &site.Name, &site.GeoID, &site.VerticalID, &domainID,
		&site.Status, &site.OutputPath, &site.CurrentVersion, &builtAt, &deployedAt,
		&site.CustomRobots, &site.CustomHead, &site.FreshnessDays, &site.CommentsAPI)
	if err != nil {
		return nil, err
	}
	if domainID.Valid {
		site.DomainID = &domainID.Int64
	}
	site.BuiltAt = scanTime(builtAt)
	site.DeployedAt = scanTime(deployedAt)
	return &site, nil
}

// GetSite loads one site row.
func (s *Store) GetSite(ctx context.Context, id int64) (*Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getSite(ctx, id)
}

func (s *Store) getSite(ctx context.Context, id int64) (*Site, error) {
	site, err := scanSite(s.db.QueryRowContext(ctx,
		"SELECT "+siteColumns+" FROM sites WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ValidationError(fmt.Sprintf("site %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("query site: %w", err)
	}
	return site, nil
}

// ListSites returns all sites ordered by id.
func (s *Store) ListSites(ctx context.Context) ([]Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, "SELECT "+siteColumns+" FROM sites ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query sites: %w", err)
	}
	defer rows.Close()
	var sites []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, *site)
	}
	return sites, rows.Err()
}

// AssignDomain attaches a domain to a site and marks the domain assigned.
func (s *Store) AssignDomain(ctx context.Context, siteID, domainID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, "UPDATE sites SET domain_id = ? WHERE id = ?", domainID, siteID); err != nil {
		return fmt.Errorf("assign domain: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE domains SET status = ? WHERE id = ?", DomainAssigned, domainID); err != nil {
		return fmt.Errorf("mark domain assigned: %w", err)
	}
	return nil
}

// SetStatus unconditionally sets the site status.
func (s *Store) SetStatus(ctx context.Context, siteID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, "UPDATE sites SET status = ? WHERE id = ?", status, siteID)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// BeginOperation transitions the site into an in-progress status, refusing if
// another operation already holds the row. This is the per-site soft lock.
func (s *Store) BeginOperation(ctx context.Context, siteID int64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	if InProgress(site.Status) {
		return apperr.ValidationError(
			fmt.Sprintf("site %d is already %s; wait for it to finish or reset its status", siteID, site.Status))
	}
	if _, err := s.db.ExecContext(ctx, "UPDATE sites SET status = ? WHERE id = ?", status, siteID); err != nil {
		return fmt.Errorf("begin %s: %w", status, err)
	}
	return nil
}

// MarkBuilt records a successful render: output path, built status and
// timestamp, then bumps the version counter for the next build.
func (s *Store) MarkBuilt(ctx context.Context, siteID int64, outputPath string, builtAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		UPDATE sites SET output_path = ?, status = ?, built_at = ?,
			current_version = current_version + 1
		WHERE id = ?`,
		outputPath, StatusBuilt, builtAt.Unix(), siteID)
	if err != nil {
		return fmt.Errorf("mark built: %w", err)
	}
	return nil
}

// MarkDeployed records a successful deploy on the site and its domain.
func (s *Store) MarkDeployed(ctx context.Context, siteID int64, deployedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE sites SET status = ?, deployed_at = ? WHERE id = ?",
		StatusDeployed, deployedAt.Unix(), siteID); err != nil {
		return fmt.Errorf("mark deployed: %w", err)
	}
	if site.DomainID != nil {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE domains SET status = ? WHERE id = ?", DomainDeployed, *site.DomainID); err != nil {
			return fmt.Errorf("mark domain deployed: %w", err)
		}
	}
	return nil
}

// NeedsRebuild reports whether the site's last build is behind its content:
// never built with generated pages, any page still ungenerated, or any page
// generated after the last build.
func (s *Store) NeedsRebuild(ctx context.Context, siteID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	site, err := s.getSite(ctx, siteID)
	if err != nil {
		return false, err
	}

	var n int
	if site.BuiltAt == nil {
		err = s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM site_pages WHERE site_id = ? AND is_generated = 1", siteID).Scan(&n)
		if err != nil {
			return false, fmt.Errorf("count generated pages: %w", err)
		}
		return n > 0, nil
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM site_pages
		WHERE site_id = ? AND (is_generated = 0 OR generated_at > ?)`,
		siteID, site.BuiltAt.Unix()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count stale pages: %w", err)
	}
	return n > 0, nil
}

// RecoverOrphaned resets sites stuck in an in-progress status to failed.
// Run once at process startup; a crashed build never finished them.
func (s *Store) RecoverOrphaned(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM sites WHERE status IN (?, ?, ?)",
		StatusGenerating, StatusBuilding, StatusDeploying)
	if err != nil {
		return nil, fmt.Errorf("query orphaned sites: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan site id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, err := s.db.ExecContext(ctx,
			"UPDATE sites SET status = ? WHERE id = ?", StatusFailed, id); err != nil {
			return nil, fmt.Errorf("reset site %d: %w", id, err)
		}
	}
	return ids, nil
}
