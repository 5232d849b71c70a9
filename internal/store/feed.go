package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type FeedStore struct {
	db *sql.DB
}

func NewFeedStore(db *sql.DB) *FeedStore {
	return &FeedStore{db: db}
}

func scanFeed(scanner interface{ Scan(...any) error }) (*model.Feed, error) {
	var f model.Feed
	var amount sql.NullFloat64
	var endedAt sql.NullTime

	err := scanner.Scan(
		&f.ID, &f.FamilyID, &f.ChildID, &f.Method, &amount, &f.Unit, &f.Side,
		&f.Notes, &f.StartedAt, &endedAt, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if amount.Valid {
		f.Amount = &amount.Float64
	}
	if endedAt.Valid {
		f.EndedAt = &endedAt.Time
	}
	return &f, nil
}

const feedCols = `id, family_id, child_id, method, amount, unit, side, notes, started_at, ended_at, created_at, updated_at`

func (s *FeedStore) Create(familyID, childID int64, method string, amount *float64, unit, side, notes string, startedAt time.Time, endedAt *time.Time) (*model.Feed, error) {
	var amt sql.NullFloat64
	if amount != nil {
		amt = sql.NullFloat64{Float64: *amount, Valid: true}
	}
	var end sql.NullTime
	if endedAt != nil {
		end = sql.NullTime{Time: *endedAt, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO feeds (family_id, child_id, method, amount, unit, side, notes, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		familyID, childID, method, amt, unit, side, notes, startedAt, end,
	)
	if err != nil {
		return nil, fmt.Errorf("insert feed: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *FeedStore) GetByID(id, familyID int64) (*model.Feed, error) {
	row := s.db.QueryRow(`SELECT `+feedCols+` FROM feeds WHERE id = ? AND family_id = ?`, id, familyID)
	f, err := scanFeed(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return f, nil
}

// List returns the most recent feeds first, optionally scoped to one child.
func (s *FeedStore) List(familyID int64, childID *int64, limit int) ([]model.Feed, error) {
	query := `SELECT ` + feedCols + ` FROM feeds WHERE family_id = ?`
	args := []any{familyID}
	if childID != nil {
		query += ` AND child_id = ?`
		args = append(args, *childID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feeds = append(feeds, *f)
	}
	return feeds, rows.Err()
}

func (s *FeedStore) Update(id, familyID int64, method string, amount *float64, unit, side, notes string, startedAt time.Time, endedAt *time.Time) (*model.Feed, error) {
	var amt sql.NullFloat64
	if amount != nil {
		amt = sql.NullFloat64{Float64: *amount, Valid: true}
	}
	var end sql.NullTime
	if endedAt != nil {
		end = sql.NullTime{Time: *endedAt, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE feeds SET method = ?, amount = ?, unit = ?, side = ?, notes = ?, started_at = ?, ended_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		method, amt, unit, side, notes, startedAt, end, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update feed: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *FeedStore) Delete(id, familyID int64) error {
	_, err := s.db.Exec(`DELETE FROM feeds WHERE id = ? AND family_id = ?`, id, familyID)
	if err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return nil
}
