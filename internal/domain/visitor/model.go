package visitor

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrEmptyFullName = errors.New("visitor full_name cannot be empty")
	ErrNoEvent       = errors.New("visitor must be recorded against an event")
)

// Visitor is a non-member recorded at an event. Visitors are append-only.
type Visitor struct {
	ID          int    `json:"id"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Residence   string `json:"residence"`
	Event       int    `json:"event"`
}

// NewVisitor is the body sent to record a visitor.
type NewVisitor struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"max=20"`
	Residence   string `json:"residence,omitempty" validate:"max=255"`
	Event       int    `json:"event" validate:"gt=0"`
}

// Validate checks if the NewVisitor has valid data.
// PRE: NewVisitor struct is populated
// POST: Returns nil if valid, error otherwise
func (n *NewVisitor) Validate() error {
	if strings.TrimSpace(n.FullName) == "" {
		return ErrEmptyFullName
	}
	if n.Event <= 0 {
		return ErrNoEvent
	}
	return nil
}

// MatchesName reports whether the visitor's name contains q, case-insensitively.
func (v *Visitor) MatchesName(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return q == "" || strings.Contains(strings.ToLower(v.FullName), q)
}
