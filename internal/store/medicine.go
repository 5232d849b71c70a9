package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type MedicineStore struct {
	db *sql.DB
}

func NewMedicineStore(db *sql.DB) *MedicineStore {
	return &MedicineStore{db: db}
}

func scanDose(scanner interface{ Scan(...any) error }) (*model.MedicineDose, error) {
	var m model.MedicineDose
	var dose sql.NullFloat64

	err := scanner.Scan(
		&m.ID, &m.FamilyID, &m.ChildID, &m.Name, &dose, &m.Unit, &m.Notes,
		&m.GivenAt, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if dose.Valid {
		m.Dose = &dose.Float64
	}
	return &m, nil
}

const doseCols = `id, family_id, child_id, name, dose, unit, notes, given_at, created_at, updated_at`

func (s *MedicineStore) Create(familyID, childID int64, name string, dose *float64, unit, notes string, givenAt time.Time) (*model.MedicineDose, error) {
	var d sql.NullFloat64
	if dose != nil {
		d = sql.NullFloat64{Float64: *dose, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO medicine_doses (family_id, child_id, name, dose, unit, notes, given_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		familyID, childID, name, d, unit, notes, givenAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert medicine dose: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MedicineStore) GetByID(id, familyID int64) (*model.MedicineDose, error) {
	row := s.db.QueryRow(`SELECT `+doseCols+` FROM medicine_doses WHERE id = ? AND family_id = ?`, id, familyID)
	m, err := scanDose(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get medicine dose: %w", err)
	}
	return m, nil
}

func (s *MedicineStore) List(familyID int64, childID *int64, limit int) ([]model.MedicineDose, error) {
	query := `SELECT ` + doseCols + ` FROM medicine_doses WHERE family_id = ?`
	args := []any{familyID}
	if childID != nil {
		query += ` AND child_id = ?`
		args = append(args, *childID)
	}
	query += ` ORDER BY given_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list medicine doses: %w", err)
	}
	defer rows.Close()

	var doses []model.MedicineDose
	for rows.Next() {
		m, err := scanDose(rows)
		if err != nil {
			return nil, fmt.Errorf("scan medicine dose: %w", err)
		}
		doses = append(doses, *m)
	}
	return doses, rows.Err()
}

func (s *MedicineStore) Update(id, familyID int64, name string, dose *float64, unit, notes string, givenAt time.Time) (*model.MedicineDose, error) {
	var d sql.NullFloat64
	if dose != nil {
		d = sql.NullFloat64{Float64: *dose, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE medicine_doses SET name = ?, dose = ?, unit = ?, notes = ?, given_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		name, d, unit, notes, givenAt, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update medicine dose: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *MedicineStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM medicine_doses WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete medicine dose: %w", err)
	}
	return nil
}
