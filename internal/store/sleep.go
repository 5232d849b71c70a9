package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type SleepStore struct {
	db *sql.DB
}

func NewSleepStore(db *sql.DB) *SleepStore {
	return &SleepStore{db: db}
}

func scanSleep(scanner interface{ Scan(...any) error }) (*model.SleepSession, error) {
	var ss model.SleepSession
	var endedAt sql.NullTime

	err := scanner.Scan(
		&ss.ID, &ss.FamilyID, &ss.ChildID, &ss.Location, &ss.Notes,
		&ss.StartedAt, &endedAt, &ss.CreatedAt, &ss.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if endedAt.Valid {
		ss.EndedAt = &endedAt.Time
	}
	return &ss, nil
}

const sleepCols = `id, family_id, child_id, location, notes, started_at, ended_at, created_at, updated_at`

func (s *SleepStore) Create(familyID, childID int64, location, notes string, startedAt time.Time) (*model.SleepSession, error) {
	result, err := s.db.Exec(
		`INSERT INTO sleep_sessions (family_id, child_id, location, notes, started_at) VALUES (?, ?, ?, ?, ?)`,
		familyID, childID, location, notes, startedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sleep session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *SleepStore) GetByID(id, familyID int64) (*model.SleepSession, error) {
	row := s.db.QueryRow(`SELECT `+sleepCols+` FROM sleep_sessions WHERE id = ? AND family_id = ?`, id, familyID)
	ss, err := scanSleep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sleep session: %w", err)
	}
	return ss, nil
}

// GetOpen returns the in-progress session for a child, if any.
func (s *SleepStore) GetOpen(familyID, childID int64) (*model.SleepSession, error) {
	row := s.db.QueryRow(
		`SELECT `+sleepCols+` FROM sleep_sessions
		 WHERE family_id = ? AND child_id = ? AND ended_at IS NULL
		 ORDER BY started_at DESC LIMIT 1`,
		familyID, childID,
	)
	ss, err := scanSleep(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open sleep session: %w", err)
	}
	return ss, nil
}

func (s *SleepStore) List(familyID int64, childID *int64, limit int) ([]model.SleepSession, error) {
	query := `SELECT ` + sleepCols + ` FROM sleep_sessions WHERE family_id = ?`
	args := []any{familyID}
	if childID != nil {
		query += ` AND child_id = ?`
		args = append(args, *childID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sleep sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.SleepSession
	for rows.Next() {
		ss, err := scanSleep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sleep session: %w", err)
		}
		sessions = append(sessions, *ss)
	}
	return sessions, rows.Err()
}

// End closes an open session. Closing an already-ended session is a no-op.
func (s *SleepStore) End(id, familyID int64, endedAt time.Time) (*model.SleepSession, error) {
	_, err := s.db.Exec(
		`UPDATE sleep_sessions SET ended_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ? AND ended_at IS NULL`,
		endedAt, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("end sleep session: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *SleepStore) Update(id, familyID int64, location, notes string, startedAt time.Time, endedAt *time.Time) (*model.SleepSession, error) {
	var end sql.NullTime
	if endedAt != nil {
		end = sql.NullTime{Time: *endedAt, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE sleep_sessions SET location = ?, notes = ?, started_at = ?, ended_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		location, notes, startedAt, end, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update sleep session: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *SleepStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM sleep_sessions WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete sleep session: %w", err)
	}
	return nil
}
