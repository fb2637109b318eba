package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
	"github.com/free-plinko-game/aff-web-gen/internal/slug"
)

// validateNavParent enforces the one-level nesting rules. Caller holds the lock.
func (s *Store) validateNavParent(ctx context.Context, pageID int64, siteID int64, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	if pageID != 0 && *parentID == pageID {
		return apperr.ValidationError("a page cannot be its own nav parent")
	}
	var parentSite int64
	var grandparent sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT site_id, nav_parent_id FROM site_pages WHERE id = ?", *parentID).
		Scan(&parentSite, &grandparent)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ValidationError(fmt.Sprintf("nav parent %d does not exist", *parentID))
	}
	if err != nil {
		return fmt.Errorf("query nav parent: %w", err)
	}
	if parentSite != siteID {
		return apperr.ValidationError("nav parent must belong to the same site")
	}
	if grandparent.Valid {
		return apperr.ValidationError("nav parent already has a parent; only one level of nesting is allowed")
	}
	return nil
}

// CreatePage inserts a page, enforcing identity uniqueness, nav nesting,
// and slug shape. An empty slug is derived from the evergreen topic or the
// title; a supplied slug must already be URL-safe.
func (s *Store) CreatePage(ctx context.Context, p SitePage) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Slug == "" {
		source := p.Title
		if p.EvergreenTopic != nil && *p.EvergreenTopic != "" {
			source = *p.EvergreenTopic
		}
		p.Slug = slug.Make(source)
	}
	if !slug.Valid(p.Slug) {
		return 0, apperr.ValidationError(fmt.Sprintf("invalid page slug %q", p.Slug))
	}
	if err := s.validateNavParent(ctx, 0, p.SiteID, p.NavParentID); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO site_pages (site_id, page_type_id, brand_id, evergreen_topic, slug, title,
			meta_title, meta_description, content_json, is_generated, generated_at,
			cta_table_id, author_id, show_in_nav, show_in_footer, nav_order, nav_label,
			nav_parent_id, custom_head, fixture_id, published_date, regeneration_note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.SiteID, p.PageTypeID, nullInt(p.BrandID), nullStr(p.EvergreenTopic), p.Slug, p.Title,
		p.MetaTitle, p.MetaDescription, p.ContentJSON, p.IsGenerated, nullTime(p.GeneratedAt),
		nullInt(p.CTATableID), nullInt(p.AuthorID), p.ShowInNav, p.ShowInFooter, p.NavOrder,
		p.NavLabel, nullInt(p.NavParentID), p.CustomHead, nullStr(p.FixtureID),
		nullTime(p.PublishedDate), p.RegenerationNote)
	if err != nil {
		return 0, constraintError(err, "a page with the same identity already exists on this site")
	}
	return res.LastInsertId()
}

// SetNavParent re-parents a page, enforcing the nesting rules.
func (s *Store) SetNavParent(ctx context.Context, pageID int64, parentID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var siteID int64
	err := s.db.QueryRowContext(ctx, "SELECT site_id FROM site_pages WHERE id = ?", pageID).Scan(&siteID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ValidationError(fmt.Sprintf("page %d not found", pageID))
	}
	if err != nil {
		return fmt.Errorf("query page: %w", err)
	}
	if err := s.validateNavParent(ctx, pageID, siteID, parentID); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE site_pages SET nav_parent_id = ? WHERE id = ?", nullInt(parentID), pageID); err != nil {
		return fmt.Errorf("set nav parent: %w", err)
	}
	return nil
}

const pageColumns = `p.id, p.site_id, p.page_type_id, p.brand_id, p.evergreen_topic, p.slug,
	p.title, p.meta_title, p.meta_description, p.content_json, p.is_generated, p.generated_at,
	p.cta_table_id, p.author_id, p.show_in_nav, p.show_in_footer, p.nav_order, p.nav_label,
	p.nav_parent_id, p.custom_head, p.fixture_id, p.published_date, p.regeneration_note,
	t.slug, t.template_file,
	COALESCE(parent.slug, ''), COALESCE(b.slug, ''), COALESCE(b.name, ''),
	a.id, a.name, a.url, a.job_title`

const pageJoins = `
	FROM site_pages p
	JOIN page_types t ON t.id = p.page_type_id
	LEFT JOIN site_pages parent ON parent.id = p.nav_parent_id
	LEFT JOIN brands b ON b.id = p.brand_id
	LEFT JOIN authors a ON a.id = p.author_id`

func scanPageView(row interface{ Scan(...any) error }) (*PageView, error) {
	var pv PageView
	var brandID, ctaTableID, authorID, navParentID sql.NullInt64
	var topic, fixtureID sql.NullString
	var generatedAt, publishedDate sql.NullInt64
	var authID sql.NullInt64
	var authName, authURL, authJob sql.NullString
	err := row.Scan(&pv.ID, &pv.SiteID, &pv.PageTypeID, &brandID, &topic, &pv.Slug,
		&pv.Title, &pv.MetaTitle, &pv.MetaDescription, &pv.ContentJSON, &pv.IsGenerated, &generatedAt,
		&ctaTableID, &authorID, &pv.ShowInNav, &pv.ShowInFooter, &pv.NavOrder, &pv.NavLabel,
		&navParentID, &pv.CustomHead, &fixtureID, &publishedDate, &pv.RegenerationNote,
		&pv.TypeSlug, &pv.TemplateFile,
		&pv.ParentSlug, &pv.BrandSlug, &pv.BrandName,
		&authID, &authName, &authURL, &authJob)
	if err != nil {
		return nil, err
	}
	if brandID.Valid {
		pv.BrandID = &brandID.Int64
	}
	if topic.Valid {
		pv.EvergreenTopic = &topic.String
	}
	if ctaTableID.Valid {
		pv.CTATableID = &ctaTableID.Int64
	}
	if authorID.Valid {
		pv.AuthorID = &authorID.Int64
	}
	if navParentID.Valid {
		pv.NavParentID = &navParentID.Int64
	}
	if fixtureID.Valid {
		pv.FixtureID = &fixtureID.String
	}
	pv.GeneratedAt = scanTime(generatedAt)
	pv.PublishedDate = scanTime(publishedDate)
	if authID.Valid {
		pv.Author = &Author{ID: authID.Int64, Name: authName.String, URL: authURL.String, JobTitle: authJob.String}
	}
	return &pv, nil
}

// GetPageView loads one page with its reference data joined in.
func (s *Store) GetPageView(ctx context.Context, pageID int64) (*PageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pv, err := scanPageView(s.db.QueryRowContext(ctx,
		"SELECT "+pageColumns+pageJoins+" WHERE p.id = ?", pageID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ValidationError(fmt.Sprintf("page %d not found", pageID))
	}
	if err != nil {
		return nil, fmt.Errorf("query page: %w", err)
	}
	return pv, nil
}

// ListPageViews loads every page of a site with reference data joined in.
func (s *Store) ListPageViews(ctx context.Context, siteID int64) ([]PageView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPageViews(ctx, siteID)
}

func (s *Store) listPageViews(ctx context.Context, siteID int64) ([]PageView, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pageColumns+pageJoins+" WHERE p.site_id = ? ORDER BY p.id", siteID)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()
	var pages []PageView
	for rows.Next() {
		pv, err := scanPageView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		pages = append(pages, *pv)
	}
	return pages, rows.Err()
}

// SetPageContent overwrites a page's generated content. When the page already
// held generated content, the previous snapshot is appended to the history log
// before the overwrite.
func (s *Store) SetPageContent(ctx context.Context, pageID int64, contentJSON string, generatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var prev string
	var wasGenerated bool
	err := s.db.QueryRowContext(ctx,
		"SELECT content_json, is_generated FROM site_pages WHERE id = ?", pageID).
		Scan(&prev, &wasGenerated)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ValidationError(fmt.Sprintf("page %d not found", pageID))
	}
	if err != nil {
		return fmt.Errorf("query page content: %w", err)
	}
	if wasGenerated && prev != "" {
		if err := s.appendHistory(ctx, pageID, prev, generatedAt); err != nil {
			return err
		}
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE site_pages SET content_json = ?, is_generated = 1, generated_at = ? WHERE id = ?",
		contentJSON, generatedAt.Unix(), pageID); err != nil {
		return fmt.Errorf("update page content: %w", err)
	}
	return nil
}

// SetRegenerationNote stores an operator note to be appended to the next
// generation prompt for the page.
func (s *Store) SetRegenerationNote(ctx context.Context, pageID int64, note string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"UPDATE site_pages SET regeneration_note = ? WHERE id = ?", note, pageID)
	if err != nil {
		return fmt.Errorf("set regeneration note: %w", err)
	}
	return nil
}

// ClearRegenerationNote archives the note into the content history metadata by
// simply clearing it; the note already influenced the archived generation.
func (s *Store) ClearRegenerationNote(ctx context.Context, pageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"UPDATE site_pages SET regeneration_note = '' WHERE id = ?", pageID)
	if err != nil {
		return fmt.Errorf("clear regeneration note: %w", err)
	}
	return nil
}
