package store

import (
	"database/sql"
	"fmt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanPushSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var ps model.PushSubscription
	var caretakerID sql.NullInt64

	err := scanner.Scan(
		&ps.ID, &ps.FamilyID, &caretakerID, &ps.Endpoint,
		&ps.P256dhKey, &ps.AuthKey, &ps.DeviceName, &ps.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if caretakerID.Valid {
		ps.CaretakerID = &caretakerID.Int64
	}
	return &ps, nil
}

const pushCols = `id, family_id, caretaker_id, endpoint, p256dh_key, auth_key, device_name, created_at`

// Upsert replaces a subscription when the browser re-registers the same endpoint.
func (s *PushStore) Upsert(familyID int64, caretakerID *int64, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	var cID sql.NullInt64
	if caretakerID != nil {
		cID = sql.NullInt64{Int64: *caretakerID, Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO push_subscriptions (family_id, caretaker_id, endpoint, p256dh_key, auth_key, device_name)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   family_id = excluded.family_id,
		   caretaker_id = excluded.caretaker_id,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key,
		   device_name = excluded.device_name`,
		familyID, cID, endpoint, p256dh, auth, deviceName,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert push subscription: %w", err)
	}
	return s.GetByEndpoint(endpoint)
}

func (s *PushStore) GetByEndpoint(endpoint string) (*model.PushSubscription, error) {
	row := s.db.QueryRow(`SELECT `+pushCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	ps, err := scanPushSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return ps, nil
}

func (s *PushStore) ListByFamily(familyID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.Query(`SELECT `+pushCols+` FROM push_subscriptions WHERE family_id = ?`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		ps, err := scanPushSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *ps)
	}
	return subs, rows.Err()
}

func (s *PushStore) DeleteByEndpoint(endpoint string) error {
	_, err := s.db.Exec(`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	return nil
}
