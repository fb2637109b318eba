package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/free-plinko-game/aff-web-gen/internal/apperr"
)

// CreateDomain inserts a domain in available status.
func (s *Store) CreateDomain(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO domains (name, status) VALUES (?, ?)", name, DomainAvailable)
	if err != nil {
		return 0, constraintError(err, fmt.Sprintf("domain %q already exists", name))
	}
	return res.LastInsertId()
}

// GetDomain loads one domain row.
func (s *Store) GetDomain(ctx context.Context, id int64) (*Domain, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getDomain(ctx, id)
}

func (s *Store) getDomain(ctx context.Context, id int64) (*Domain, error) {
	var d Domain
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, status, ssl_provisioned FROM domains WHERE id = ?", id).
		Scan(&d.ID, &d.Name, &d.Status, &d.SSLProvisioned)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ValidationError(fmt.Sprintf("domain %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("query domain: %w", err)
	}
	return &d, nil
}

// MarkSSLProvisioned records a successful certificate issuance.
func (s *Store) MarkSSLProvisioned(ctx context.Context, domainID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"UPDATE domains SET ssl_provisioned = 1 WHERE id = ?", domainID)
	if err != nil {
		return fmt.Errorf("mark ssl provisioned: %w", err)
	}
	return nil
}
