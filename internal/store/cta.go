package store

import (
	"context"
	"fmt"
)

// CreateCTATable inserts a named CTA table scoped to a site.
func (s *Store) CreateCTATable(ctx context.Context, siteID int64, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO cta_tables (site_id, name) VALUES (?, ?)", siteID, name)
	if err != nil {
		return 0, fmt.Errorf("insert cta table: %w", err)
	}
	return res.LastInsertId()
}

// AddCTARow appends a row to a CTA table.
func (s *Store) AddCTARow(ctx context.Context, r CTARow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO cta_table_rows (cta_table_id, brand_id, rank, is_visible, cta_text, badge)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.TableID, r.BrandID, r.Rank, r.IsVisible, r.CTAText, r.Badge)
	if err != nil {
		return 0, fmt.Errorf("insert cta row: %w", err)
	}
	return res.LastInsertId()
}

// listCTATables loads all CTA tables of a site with their rows, rank-ordered.
// Caller holds the lock.
func (s *Store) listCTATables(ctx context.Context, siteID int64) (map[int64]*CTATable, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, site_id, name FROM cta_tables WHERE site_id = ?", siteID)
	if err != nil {
		return nil, fmt.Errorf("query cta tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[int64]*CTATable)
	for rows.Next() {
		var t CTATable
		if err := rows.Scan(&t.ID, &t.SiteID, &t.Name); err != nil {
			return nil, fmt.Errorf("scan cta table: %w", err)
		}
		tables[t.ID] = &t
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rowRows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.cta_table_id, r.brand_id, r.rank, r.is_visible, r.cta_text, r.badge
		FROM cta_table_rows r
		JOIN cta_tables t ON t.id = r.cta_table_id
		WHERE t.site_id = ?
		ORDER BY r.rank`, siteID)
	if err != nil {
		return nil, fmt.Errorf("query cta rows: %w", err)
	}
	defer rowRows.Close()
	for rowRows.Next() {
		var r CTARow
		if err := rowRows.Scan(&r.ID, &r.TableID, &r.BrandID, &r.Rank, &r.IsVisible, &r.CTAText, &r.Badge); err != nil {
			return nil, fmt.Errorf("scan cta row: %w", err)
		}
		if t, ok := tables[r.TableID]; ok {
			t.Rows = append(t.Rows, r)
		}
	}
	return tables, rowRows.Err()
}
