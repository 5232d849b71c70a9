package model

import "time"

// Caretaker roles within a family.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Family auth modes. Empty means not yet detected; the first successful
// login against the family persists the detected mode.
const (
	AuthTypeSystem    = "SYSTEM"
	AuthTypeCaretaker = "CARETAKER"
)

type Family struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Caretaker struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	LoginID   string     `json:"login_id"`
	Name      string     `json:"name"`
	Role      string     `json:"role"`
	IsSystem  bool       `json:"is_system"`
	IsActive  bool       `json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	HasPIN    bool       `json:"has_pin"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type FamilySettings struct {
	FamilyID     int64     `json:"family_id"`
	HasSystemPIN bool      `json:"has_system_pin"`
	AuthType     string    `json:"auth_type"`
	UpdatedAt    time.Time `json:"updated_at"`
}
