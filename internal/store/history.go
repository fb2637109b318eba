package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

// appendHistory writes one superseded snapshot with the next version number.
// Caller holds the lock.
func (s *Store) appendHistory(ctx context.Context, pageID int64, contentJSON string, supersededAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_history (page_id, version, content_json, superseded_at)
		VALUES (?, (SELECT COALESCE(MAX(version), 0) + 1 FROM content_history WHERE page_id = ?), ?, ?)`,
		pageID, pageID, contentJSON, supersededAt.Unix())
	if err != nil {
		return fmt.Errorf("append content history: %w", err)
	}
	return nil
}

// ListHistory returns a page's snapshots, oldest first.
func (s *Store) ListHistory(ctx context.Context, pageID int64) ([]ContentHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, version, content_json, superseded_at
		FROM content_history WHERE page_id = ? ORDER BY version`, pageID)
	if err != nil {
		return nil, fmt.Errorf("query content history: %w", err)
	}
	defer rows.Close()
	var out []ContentHistory
	for rows.Next() {
		var h ContentHistory
		var at int64
		if err := rows.Scan(&h.ID, &h.PageID, &h.Version, &h.ContentJSON, &at); err != nil {
			return nil, fmt.Errorf("scan content history: %w", err)
		}
		h.SupersededAt = time.Unix(at, 0).UTC()
		out = append(out, h)
	}
	return out, rows.Err()
}

// RestoreHistory makes a prior snapshot the live content. The content that was
// live gets its own history record first, so nothing is lost.
func (s *Store) RestoreHistory(ctx context.Context, pageID int64, version int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var snapshot string
	err := s.db.QueryRowContext(ctx,
		"SELECT content_json FROM content_history WHERE page_id = ? AND version = ?",
		pageID, version).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ValidationError(fmt.Sprintf("page %d has no history version %d", pageID, version))
	}
	if err != nil {
		return fmt.Errorf("query history version: %w", err)
	}

	var live string
	err = s.db.QueryRowContext(ctx,
		"SELECT content_json FROM site_pages WHERE id = ?", pageID).Scan(&live)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ValidationError(fmt.Sprintf("page %d not found", pageID))
	}
	if err != nil {
		return fmt.Errorf("query live content: %w", err)
	}
	if live != "" {
		if err := s.appendHistory(ctx, pageID, live, now); err != nil {
			return err
		}
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE site_pages SET content_json = ?, generated_at = ? WHERE id = ?",
		snapshot, now.Unix(), pageID); err != nil {
		return fmt.Errorf("restore content: %w", err)
	}
	return nil
}
