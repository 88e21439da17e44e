package event

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 255
)

// DateLayout is the calendar date format used on the wire when creating events.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrEmptyName   = errors.New("event name cannot be empty")
	ErrNameTooLong = errors.New("event name cannot exceed 255 characters")
	ErrEmptyDate   = errors.New("event date cannot be empty")
	ErrInvalidDate = errors.New("event date must be YYYY-MM-DD")
	ErrInvalidID   = errors.New("event id must be positive")
	ErrNotFound    = errors.New("event not found")
)

// Event is a dated occasion at which attendance is recorded.
// AttendanceCount is derived by the backend and counts PRESENT records only.
type Event struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Date            string `json:"date"`
	Description     string `json:"description"`
	IsService       bool   `json:"is_service"`
	AttendanceCount int    `json:"attendance_count"`
}

// Day parses the event date. Both plain dates and RFC 3339 timestamps are accepted.
// PRE: none
// POST: Returns the date at midnight UTC, or an error if Date is not parseable
func (e *Event) Day() (time.Time, error) {
	if t, err := time.Parse(DateLayout, e.Date); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, e.Date)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

// NewEvent is the body sent to create an event.
type NewEvent struct {
	Name        string `json:"name" validate:"required,max=255"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	IsService   bool   `json:"is_service"`
	Description string `json:"description,omitempty"`
}

// Validate checks if the NewEvent has valid data.
// PRE: NewEvent struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Name is non-empty, Date is a calendar date
func (n *NewEvent) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrEmptyName
	}
	if len(n.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	if strings.TrimSpace(n.Date) == "" {
		return ErrEmptyDate
	}
	if _, err := time.Parse(DateLayout, n.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// IsSunday reports whether t falls on a Sunday in its own location.
func IsSunday(t time.Time) bool {
	return t.Weekday() == time.Sunday
}
