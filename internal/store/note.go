package store

import (
	"database/sql"
	"fmt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type NoteStore struct {
	db *sql.DB
}

func NewNoteStore(db *sql.DB) *NoteStore {
	return &NoteStore{db: db}
}

func scanNote(scanner interface{ Scan(...any) error }) (*model.Note, error) {
	var n model.Note
	var childID sql.NullInt64
	var pinned int

	err := scanner.Scan(&n.ID, &n.FamilyID, &childID, &n.Body, &pinned, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	n.Pinned = pinned != 0
	if childID.Valid {
		n.ChildID = &childID.Int64
	}
	return &n, nil
}

const noteCols = `id, family_id, child_id, body, pinned, created_at, updated_at`

func (s *NoteStore) Create(familyID int64, childID *int64, body string, pinned bool) (*model.Note, error) {
	var cID sql.NullInt64
	if childID != nil {
		cID = sql.NullInt64{Int64: *childID, Valid: true}
	}
	var p int
	if pinned {
		p = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO notes (family_id, child_id, body, pinned) VALUES (?, ?, ?, ?)`,
		familyID, cID, body, p,
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *NoteStore) GetByID(id, familyID int64) (*model.Note, error) {
	row := s.db.QueryRow(`SELECT `+noteCols+` FROM notes WHERE id = ? AND family_id = ?`, id, familyID)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}

// List returns notes ordered pinned first, newest first.
func (s *NoteStore) List(familyID int64) ([]model.Note, error) {
	rows, err := s.db.Query(
		`SELECT `+noteCols+` FROM notes WHERE family_id = ? ORDER BY pinned DESC, created_at DESC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *NoteStore) Update(id, familyID int64, childID *int64, body string, pinned bool) (*model.Note, error) {
	var cID sql.NullInt64
	if childID != nil {
		cID = sql.NullInt64{Int64: *childID, Valid: true}
	}
	var p int
	if pinned {
		p = 1
	}

	_, err := s.db.Exec(
		`UPDATE notes SET child_id = ?, body = ?, pinned = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		cID, body, p, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *NoteStore) TogglePinned(id, familyID int64) (*model.Note, error) {
	note, err := s.GetByID(id, familyID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	newPinned := 0
	if !note.Pinned {
		newPinned = 1
	}

	_, err = s.db.Exec(`UPDATE notes SET pinned = ? WHERE id = ? AND family_id = ?`, newPinned, id, familyID)
	if err != nil {
		return nil, fmt.Errorf("toggle pinned: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *NoteStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM notes WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
