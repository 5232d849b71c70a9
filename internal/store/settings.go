package store

import (
	"database/sql"
	"fmt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

func (s *SettingsStore) Get(familyID int64) (*model.FamilySettings, error) {
	var fs model.FamilySettings
	var hasPIN int
	err := s.db.QueryRow(
		`SELECT family_id, system_pin_hash != '', auth_type, updated_at
		 FROM family_settings WHERE family_id = ?`,
		familyID,
	).Scan(&fs.FamilyID, &hasPIN, &fs.AuthType, &fs.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family settings: %w", err)
	}
	fs.HasSystemPIN = hasPIN != 0
	return &fs, nil
}

// Ensure creates the settings row if missing and returns it.
func (s *SettingsStore) Ensure(familyID int64) (*model.FamilySettings, error) {
	_, err := s.db.Exec(
		`INSERT INTO family_settings (family_id) VALUES (?)
		 ON CONFLICT(family_id) DO NOTHING`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure family settings: %w", err)
	}
	return s.Get(familyID)
}

// SystemPINHash returns the stored hash, empty when no PIN is configured.
func (s *SettingsStore) SystemPINHash(familyID int64) (string, error) {
	var hash string
	err := s.db.QueryRow(
		`SELECT system_pin_hash FROM family_settings WHERE family_id = ?`,
		familyID,
	).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get system pin hash: %w", err)
	}
	return hash, nil
}

func (s *SettingsStore) SetSystemPIN(familyID int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE family_settings SET system_pin_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE family_id = ?`,
		pinHash, familyID,
	)
	if err != nil {
		return fmt.Errorf("set system pin: %w", err)
	}
	return nil
}

func (s *SettingsStore) SetAuthType(familyID int64, authType string) error {
	_, err := s.db.Exec(
		`UPDATE family_settings SET auth_type = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE family_id = ?`,
		authType, familyID,
	)
	if err != nil {
		return fmt.Errorf("set auth type: %w", err)
	}
	return nil
}

// SetAuthTypeIfUnset persists an auto-detected auth mode. The conditional
// update keeps concurrent first logins from overwriting each other.
func (s *SettingsStore) SetAuthTypeIfUnset(familyID int64, authType string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE family_settings SET auth_type = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE family_id = ? AND auth_type = ''`,
		authType, familyID,
	)
	if err != nil {
		return false, fmt.Errorf("set auth type if unset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
