package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Oak-and-Sprout/sprout-track-sub002/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	var closed, beta int
	var planType, stripeID sql.NullString
	var planExpires, trialEnds sql.NullTime
	err := scanner.Scan(
		&a.ID, &a.Email, &closed, &beta, &planType,
		&planExpires, &trialEnds, &stripeID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Closed = closed != 0
	a.BetaParticipant = beta != 0
	if planType.Valid {
		a.PlanType = planType.String
	}
	if planExpires.Valid {
		a.PlanExpires = &planExpires.Time
	}
	if trialEnds.Valid {
		a.TrialEnds = &trialEnds.Time
	}
	if stripeID.Valid {
		a.StripeCustomerID = &stripeID.String
	}
	return &a, nil
}

const accountCols = `id, email, closed, beta_participant, plan_type, plan_expires, trial_ends, stripe_customer_id, created_at, updated_at`

func (s *AccountStore) Create(email, passwordHash string, trialEnds *time.Time) (*model.Account, error) {
	var trial sql.NullTime
	if trialEnds != nil {
		trial = sql.NullTime{Time: *trialEnds, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO accounts (email, password_hash, trial_ends) VALUES (?, ?, ?)`,
		email, passwordHash, trial,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AccountStore) GetByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(email string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountStore) GetByStripeCustomerID(customerID string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE stripe_customer_id = ?`, customerID)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by stripe customer: %w", err)
	}
	return a, nil
}

// PasswordHash returns the stored login hash for an account. Kept off the
// model so it never rides along in JSON responses.
func (s *AccountStore) PasswordHash(id int64) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT password_hash FROM accounts WHERE id = ?`, id).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get account password hash: %w", err)
	}
	return hash, nil
}

// UpdatePlan replaces the plan fields and clears any trial: once an account
// pays, stale trial dates must not shadow the plan in resolution.
func (s *AccountStore) UpdatePlan(id int64, planType string, planExpires *time.Time) error {
	var pt sql.NullString
	if planType != "" {
		pt = sql.NullString{String: planType, Valid: true}
	}
	var exp sql.NullTime
	if planExpires != nil {
		exp = sql.NullTime{Time: *planExpires, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE accounts SET plan_type = ?, plan_expires = ?, trial_ends = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		pt, exp, id,
	)
	if err != nil {
		return fmt.Errorf("update account plan: %w", err)
	}
	return nil
}

func (s *AccountStore) SetTrialEnds(id int64, trialEnds *time.Time) error {
	var trial sql.NullTime
	if trialEnds != nil {
		trial = sql.NullTime{Time: *trialEnds, Valid: true}
	}
	_, err := s.db.Exec(
		`UPDATE accounts SET trial_ends = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		trial, id,
	)
	if err != nil {
		return fmt.Errorf("set trial ends: %w", err)
	}
	return nil
}

func (s *AccountStore) SetClosed(id int64, closed bool) error {
	var v int
	if closed {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE accounts SET closed = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if err != nil {
		return fmt.Errorf("set account closed: %w", err)
	}
	return nil
}

func (s *AccountStore) SetBetaParticipant(id int64, beta bool) error {
	var v int
	if beta {
		v = 1
	}
	_, err := s.db.Exec(
		`UPDATE accounts SET beta_participant = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		v, id,
	)
	if err != nil {
		return fmt.Errorf("set beta participant: %w", err)
	}
	return nil
}

func (s *AccountStore) UpdateStripeCustomerID(id int64, customerID string) error {
	_, err := s.db.Exec(
		`UPDATE accounts SET stripe_customer_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		customerID, id,
	)
	if err != nil {
		return fmt.Errorf("update stripe customer id: %w", err)
	}
	return nil
}
