package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	var birthDate sql.NullTime

	err := scanner.Scan(&c.ID, &c.FamilyID, &c.Name, &birthDate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if birthDate.Valid {
		c.BirthDate = &birthDate.Time
	}
	return &c, nil
}

const childCols = `id, family_id, name, birth_date, created_at, updated_at`

func (s *ChildStore) Create(familyID int64, name string, birthDate *time.Time) (*model.Child, error) {
	var bd sql.NullTime
	if birthDate != nil {
		bd = sql.NullTime{Time: *birthDate, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO children (family_id, name, birth_date) VALUES (?, ?, ?)`,
		familyID, name, bd,
	)
	if err != nil {
		return nil, fmt.Errorf("insert child: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *ChildStore) GetByID(id, familyID int64) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ? AND family_id = ?`, id, familyID)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) List(familyID int64) ([]model.Child, error) {
	rows, err := s.db.Query(`SELECT `+childCols+` FROM children WHERE family_id = ? ORDER BY birth_date, name`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}

func (s *ChildStore) Update(id, familyID int64, name string, birthDate *time.Time) (*model.Child, error) {
	var bd sql.NullTime
	if birthDate != nil {
		bd = sql.NullTime{Time: *birthDate, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE children SET name = ?, birth_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		name, bd, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update child: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *ChildStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM children WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete child: %w", err)
	}
	return nil
}
