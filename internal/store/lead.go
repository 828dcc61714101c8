package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/getresett/resett/internal/model"
)

type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

// Create records a captured lead. Duplicate email+source pairs are silently ignored.
func (s *LeadStore) Create(email, source string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if source == "" {
		source = "landing"
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO leads (email, source) VALUES (?, ?)`,
		email, source,
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

// List returns all leads ordered by creation time.
func (s *LeadStore) List() ([]model.Lead, error) {
	rows, err := s.db.Query(`SELECT id, email, source, created_at FROM leads ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := rows.Scan(&l.ID, &l.Email, &l.Source, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	return leads, rows.Err()
}

// Count returns the number of captured leads.
func (s *LeadStore) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM leads`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return count, nil
}
