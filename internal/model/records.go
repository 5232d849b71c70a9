package model

import "time"

type Child struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type Feed struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	ChildID   int64      `json:"child_id"`
	Method    string     `json:"method"`
	Amount    *float64   `json:"amount,omitempty"`
	Unit      string     `json:"unit,omitempty"`
	Side      string     `json:"side,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type SleepSession struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	ChildID   int64      `json:"child_id"`
	Location  string     `json:"location,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type DiaperChange struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	ChildID   int64     `json:"child_id"`
	Kind      string    `json:"kind"`
	Notes     string    `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MedicineDose struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	ChildID   int64     `json:"child_id"`
	Name      string    `json:"name"`
	Dose      *float64  `json:"dose,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	GivenAt   time.Time `json:"given_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Note struct {
	ID        int64     `json:"id"`
	FamilyID  int64     `json:"family_id"`
	ChildID   *int64    `json:"child_id,omitempty"`
	Body      string    `json:"body"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CalendarEvent struct {
	ID        int64      `json:"id"`
	FamilyID  int64      `json:"family_id"`
	ChildID   *int64     `json:"child_id,omitempty"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	AllDay    bool       `json:"all_day"`
	StartsAt  time.Time  `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
