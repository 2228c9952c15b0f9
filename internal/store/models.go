package store

import "time"

type User struct {
	ID                    string
	Name                  string
	Email                 string
	PasswordHash          string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	DeactivatedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Note kinds. Summary notes are generated documents; they never feed back
// into the summary renderer's input.
const (
	NoteKindNote    = "note"
	NoteKindSummary = "summary"
)

type Note struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Day         string // YYYY-MM-DD
	Time        string // HH:MM, may be empty
	Status      string
	Priority    string
	Kind        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Routine is a recurring activity. Weekdays holds time.Weekday values
// (0 = Sunday); an empty list means every day.
type Routine struct {
	ID          string
	UserID      string
	Description string
	Time        string // HH:MM, may be empty
	Weekdays    []int
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Kind      string
	Read      bool
	CreatedAt time.Time
}
