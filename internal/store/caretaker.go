package store

import (
	"database/sql"
	"fmt"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type CaretakerStore struct {
	db *sql.DB
}

func NewCaretakerStore(db *sql.DB) *CaretakerStore {
	return &CaretakerStore{db: db}
}

func scanCaretaker(scanner interface{ Scan(...any) error }) (*model.Caretaker, error) {
	var c model.Caretaker
	var system, active, hasPIN int
	var deletedAt sql.NullTime
	err := scanner.Scan(
		&c.ID, &c.FamilyID, &c.LoginID, &c.Name, &c.Role,
		&system, &active, &deletedAt, &hasPIN, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.IsSystem = system != 0
	c.IsActive = active != 0
	c.HasPIN = hasPIN != 0
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, nil
}

const caretakerCols = `id, family_id, login_id, name, role, is_system, is_active, deleted_at, pin_hash != '', created_at, updated_at`

func (s *CaretakerStore) Create(familyID int64, loginID, name, pinHash, role string) (*model.Caretaker, error) {
	result, err := s.db.Exec(
		`INSERT INTO caretakers (family_id, login_id, name, pin_hash, role) VALUES (?, ?, ?, ?, ?)`,
		familyID, loginID, name, pinHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("insert caretaker: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *CaretakerStore) GetByID(id, familyID int64) (*model.Caretaker, error) {
	row := s.db.QueryRow(
		`SELECT `+caretakerCols+` FROM caretakers WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	c, err := scanCaretaker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get caretaker: %w", err)
	}
	return c, nil
}

// GetForLogin returns the caretaker record and its PIN hash for credential
// comparison. Inactive and soft-deleted rows are returned too; the
// authenticator rejects them so the failure still counts as an attempt.
func (s *CaretakerStore) GetForLogin(familyID int64, loginID string) (*model.Caretaker, string, error) {
	row := s.db.QueryRow(
		`SELECT `+caretakerCols+`, pin_hash FROM caretakers WHERE family_id = ? AND login_id = ?`,
		familyID, loginID,
	)
	var c model.Caretaker
	var system, active, hasPIN int
	var deletedAt sql.NullTime
	var pinHash string
	err := row.Scan(
		&c.ID, &c.FamilyID, &c.LoginID, &c.Name, &c.Role,
		&system, &active, &deletedAt, &hasPIN, &c.CreatedAt, &c.UpdatedAt, &pinHash,
	)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("get caretaker for login: %w", err)
	}
	c.IsSystem = system != 0
	c.IsActive = active != 0
	c.HasPIN = hasPIN != 0
	if deletedAt.Valid {
		c.DeletedAt = &deletedAt.Time
	}
	return &c, pinHash, nil
}

// CountRegular counts live non-system caretakers. This drives auth-mode
// auto-detection and the reserved-login-id kill switch.
func (s *CaretakerStore) CountRegular(familyID int64) (int, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM caretakers
		 WHERE family_id = ? AND is_system = 0 AND is_active = 1 AND deleted_at IS NULL`,
		familyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count caretakers: %w", err)
	}
	return n, nil
}

// EnsureSystem lazily creates the family's system caretaker. The
// UNIQUE(family_id, login_id) constraint makes concurrent first logins
// safe: the losing insert is a no-op and both callers read the same row.
func (s *CaretakerStore) EnsureSystem(familyID int64, loginID, name string) (*model.Caretaker, error) {
	_, err := s.db.Exec(
		`INSERT INTO caretakers (family_id, login_id, name, role, is_system)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT(family_id, login_id) DO NOTHING`,
		familyID, loginID, name, model.RoleAdmin,
	)
	if err != nil {
		return nil, fmt.Errorf("ensure system caretaker: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+caretakerCols+` FROM caretakers WHERE family_id = ? AND login_id = ?`,
		familyID, loginID,
	)
	c, err := scanCaretaker(row)
	if err != nil {
		return nil, fmt.Errorf("get system caretaker: %w", err)
	}
	return c, nil
}

func (s *CaretakerStore) List(familyID int64) ([]model.Caretaker, error) {
	rows, err := s.db.Query(
		`SELECT `+caretakerCols+` FROM caretakers
		 WHERE family_id = ? AND deleted_at IS NULL ORDER BY login_id`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list caretakers: %w", err)
	}
	defer rows.Close()

	var caretakers []model.Caretaker
	for rows.Next() {
		c, err := scanCaretaker(rows)
		if err != nil {
			return nil, fmt.Errorf("scan caretaker: %w", err)
		}
		caretakers = append(caretakers, *c)
	}
	return caretakers, rows.Err()
}

func (s *CaretakerStore) Update(id, familyID int64, name, role string) (*model.Caretaker, error) {
	_, err := s.db.Exec(
		`UPDATE caretakers SET name = ?, role = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		name, role, id, familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("update caretaker: %w", err)
	}
	return s.GetByID(id, familyID)
}

func (s *CaretakerStore) SetPIN(id, familyID int64, pinHash string) error {
	_, err := s.db.Exec(
		`UPDATE caretakers SET pin_hash = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		pinHash, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("set caretaker pin: %w", err)
	}
	return nil
}

func (s *CaretakerStore) SetActive(id, familyID int64, active bool) error {
	var v int
	if active {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE caretakers SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		v, id, familyID,
	)
	if err != nil {
		return fmt.Errorf("set caretaker active: %w", err)
	}
	return nil
}

// SoftDelete marks a caretaker deleted without freeing its login id.
func (s *CaretakerStore) SoftDelete(id, familyID int64) error {
	_, err := s.db.Exec(
		`UPDATE caretakers SET deleted_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND family_id = ?`,
		id, familyID,
	)
	if err != nil {
		return fmt.Errorf("soft delete caretaker: %w", err)
	}
	return nil
}
