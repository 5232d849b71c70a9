package auth

import "errors"

// Credentials is the tagged union of login shapes. Exactly one arm must be
// populated; the authenticator dispatches on whichever arm is set rather
// than probing optional fields.
type Credentials struct {
	AdminPassword  *AdminPasswordLogin
	SystemPIN      *SystemPINLogin
	CaretakerLogin *CaretakerLogin
	AccountLogin   *AccountLogin
}

// AdminPasswordLogin authenticates the operator against the application's
// configured admin password.
type AdminPasswordLogin struct {
	Password string
}

// SystemPINLogin is the shared family PIN, valid only while the family is
// in SYSTEM auth mode.
type SystemPINLogin struct {
	FamilySlug string
	PIN        string
}

// CaretakerLogin is a two-character login id plus PIN scoped to a family.
type CaretakerLogin struct {
	FamilySlug string
	LoginID    string
	PIN        string
}

// AccountLogin authenticates the billing account owner by email and
// password.
type AccountLogin struct {
	Email    string
	Password string
}

var errAmbiguousCredentials = errors.New("credential bundle must have exactly one arm")

// Validate checks that exactly one arm is populated.
func (c Credentials) Validate() error {
	n := 0
	if c.AdminPassword != nil {
		n++
	}
	if c.SystemPIN != nil {
		n++
	}
	if c.CaretakerLogin != nil {
		n++
	}
	if c.AccountLogin != nil {
		n++
	}
	if n != 1 {
		return errAmbiguousCredentials
	}
	return nil
}
