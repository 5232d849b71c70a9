package store

import (
	"database/sql"
	"fmt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type FamilyStore struct {
	db *sql.DB
}

func NewFamilyStore(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	var active int
	err := scanner.Scan(&f.ID, &f.AccountID, &f.Slug, &f.Name, &active, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	f.IsActive = active != 0
	return &f, nil
}

const familyCols = `id, account_id, slug, name, is_active, created_at, updated_at`

func (s *FamilyStore) Create(accountID int64, slug, name string) (*model.Family, error) {
	result, err := s.db.Exec(
		`INSERT INTO families (account_id, slug, name) VALUES (?, ?, ?)`,
		accountID, slug, name,
	)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FamilyStore) GetByID(id int64) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) GetBySlug(slug string) (*model.Family, error) {
	row := s.db.QueryRow(`SELECT `+familyCols+` FROM families WHERE slug = ?`, slug)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family by slug: %w", err)
	}
	return f, nil
}

// GetByAccountID returns the account's family, or nil for an account still
// mid-onboarding.
func (s *FamilyStore) GetByAccountID(accountID int64) (*model.Family, error) {
	row := s.db.QueryRow(
		`SELECT `+familyCols+` FROM families WHERE account_id = ? ORDER BY created_at LIMIT 1`,
		accountID,
	)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family by account: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) SetActive(id int64, active bool) error {
	var v int
	if active {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE families SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if err != nil {
		return fmt.Errorf("set family active: %w", err)
	}
	return nil
}
