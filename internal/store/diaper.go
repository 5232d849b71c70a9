package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type DiaperStore struct {
	db *sql.DB
}

func NewDiaperStore(db *sql.DB) *DiaperStore {
	return &DiaperStore{db: db}
}

func scanDiaper(scanner interface{ Scan(...any) error }) (*model.DiaperChange, error) {
	var d model.DiaperChange
	err := scanner.Scan(
		&d.ID, &d.FamilyID, &d.ChildID, &d.Kind, &d.Notes,
		&d.ChangedAt, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const diaperCols = `id, family_id, child_id, kind, notes, changed_at, created_at, updated_at`

func (s *DiaperStore) Create(familyID, childID int64, kind, notes string, changedAt time.Time) (*model.DiaperChange, error) {
	result, err := s.db.Exec(
		`INSERT INTO diaper_changes (family_id, child_id, kind, notes, changed_at) VALUES (?, ?, ?, ?, ?)`,
		familyID, childID, kind, notes, changedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert diaper change: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *DiaperStore) GetByID(id, familyID int64) (*model.DiaperChange, error) {
	row := s.db.QueryRow(`SELECT `+diaperCols+` FROM diaper_changes WHERE id = ? AND family_id = ?`, id, familyID)
	d, err := scanDiaper(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get diaper change: %w", err)
	}
	return d, nil
}

func (s *DiaperStore) List(familyID int64, childID *int64, limit int) ([]model.DiaperChange, error) {
	query := `SELECT ` + diaperCols + ` FROM diaper_changes WHERE family_id = ?`
	args := []any{familyID}
	if childID != nil {
		query += ` AND child_id = ?`
		args = append(args, *childID)
	}
	query += ` ORDER BY changed_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diaper changes: %w", err)
	}
	defer rows.Close()

	var changes []model.DiaperChange
	for rows.Next() {
		d, err := scanDiaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan diaper change: %w", err)
		}
		changes = append(changes, *d)
	}
	return changes, rows.Err()
}

func (s *DiaperStore) Update(id, familyID int64, kind, notes string, changedAt time.Time) (*model.DiaperChange, error) {
	_, err := s.db.Exec(
		`UPDATE diaper_changes SET kind = ?, notes = ?, changed_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		kind, notes, changedAt, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update diaper change: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *DiaperStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM diaper_changes WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete diaper change: %w", err)
	}
	return nil
}
