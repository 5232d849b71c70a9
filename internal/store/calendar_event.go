package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type CalendarEventStore struct {
	db *sql.DB
}

func NewCalendarEventStore(db *sql.DB) *CalendarEventStore {
	return &CalendarEventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	var childID sql.NullInt64
	var endsAt sql.NullTime
	var allDay int

	err := scanner.Scan(
		&e.ID, &e.FamilyID, &childID, &e.Title, &e.Notes, &allDay,
		&e.StartsAt, &endsAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.AllDay = allDay != 0
	if childID.Valid {
		e.ChildID = &childID.Int64
	}
	if endsAt.Valid {
		e.EndsAt = &endsAt.Time
	}
	return &e, nil
}

const eventCols = `id, family_id, child_id, title, notes, all_day, starts_at, ends_at, created_at, updated_at`

func (s *CalendarEventStore) Create(familyID int64, childID *int64, title, notes string, allDay bool, startsAt time.Time, endsAt *time.Time) (*model.CalendarEvent, error) {
	var cID sql.NullInt64
	if childID != nil {
		cID = sql.NullInt64{Int64: *childID, Valid: true}
	}
	var end sql.NullTime
	if endsAt != nil {
		end = sql.NullTime{Time: *endsAt, Valid: true}
	}
	var ad int
	if allDay {
		ad = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO calendar_events (family_id, child_id, title, notes, all_day, starts_at, ends_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		familyID, cID, title, notes, ad, startsAt, end,
	)
	if err != nil {
		return nil, fmt.Errorf("insert calendar event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *CalendarEventStore) GetByID(id, familyID int64) (*model.CalendarEvent, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM calendar_events WHERE id = ? AND family_id = ?`, id, familyID)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get calendar event: %w", err)
	}
	return e, nil
}

// ListRange returns events that overlap [from, to), soonest first.
func (s *CalendarEventStore) ListRange(familyID int64, from, to time.Time) ([]model.CalendarEvent, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM calendar_events
		 WHERE family_id = ? AND starts_at < ? AND (ends_at IS NULL OR ends_at >= ?)
		 ORDER BY starts_at`,
		familyID, to, from,
	)
	if err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	defer rows.Close()

	var events []model.CalendarEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *CalendarEventStore) Update(id, familyID int64, childID *int64, title, notes string, allDay bool, startsAt time.Time, endsAt *time.Time) (*model.CalendarEvent, error) {
	var cID sql.NullInt64
	if childID != nil {
		cID = sql.NullInt64{Int64: *childID, Valid: true}
	}
	var end sql.NullTime
	if endsAt != nil {
		end = sql.NullTime{Time: *endsAt, Valid: true}
	}
	var ad int
	if allDay {
		ad = 1
	}

	_, err := s.db.Exec(
		`UPDATE calendar_events SET child_id = ?, title = ?, notes = ?, all_day = ?, starts_at = ?, ends_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		cID, title, notes, ad, startsAt, end, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update calendar event: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *CalendarEventStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM calendar_events WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete calendar event: %w", err)
	}
	return nil
}
