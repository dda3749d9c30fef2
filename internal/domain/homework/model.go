package homework

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the wire format for assigned dates.
const DateLayout = "2006-01-02"

// Max length constants for user-editable fields.
const (
	MaxSubjectLength = 120
)

// Domain errors
var (
	ErrEmptySubject     = errors.New("subject cannot be empty")
	ErrEmptyDescription = errors.New("description cannot be empty")
	ErrEmptyDate        = errors.New("assigned date cannot be empty")
	ErrInvalidDate      = errors.New("assigned date must be in YYYY-MM-DD format")
)

// Homework represents one homework entry.
// AssignedDate is the calendar date the homework applies to, not the
// creation date. Description supports Markdown formatting.
type Homework struct {
	ID           string
	Subject      string
	Description  string // Markdown content
	AssignedDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks if the Homework has valid data.
// PRE: Homework struct is populated
// POST: Returns nil if valid, error otherwise
func (h *Homework) Validate() error {
	if strings.TrimSpace(h.Subject) == "" {
		return ErrEmptySubject
	}
	if len(h.Subject) > MaxSubjectLength {
		return errors.New("subject cannot exceed 120 characters")
	}
	if strings.TrimSpace(h.Description) == "" {
		return ErrEmptyDescription
	}
	if h.AssignedDate.IsZero() {
		return ErrEmptyDate
	}
	return nil
}

// IsAssignedOn returns true if the homework is assigned on the given calendar date.
// Comparison is on date components only; time-of-day is ignored.
// INVARIANT: Homework fields are not mutated
func (h *Homework) IsAssignedOn(d time.Time) bool {
	return SameDate(h.AssignedDate, d)
}

// SameDate reports whether two times fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ParseDate parses a YYYY-MM-DD string into a date-only time value.
// PRE: raw is non-empty
// POST: Returns the parsed date or ErrInvalidDate
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}
