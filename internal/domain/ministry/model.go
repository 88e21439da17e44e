package ministry

import (
	"errors"
	"strings"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Domain errors
var (
	ErrEmptyName   = errors.New("ministry name cannot be empty")
	ErrNameTooLong = errors.New("ministry name cannot exceed 100 characters")
	ErrInvalidID   = errors.New("ministry id must be positive")
)

// Ministry is a church department. Leader is read-only from the console.
type Ministry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Leader      *int   `json:"leader"`
	LeaderName  string `json:"leader_name"`
	MemberCount int    `json:"member_count"`
}

// NewMinistry is the body sent to create a ministry.
type NewMinistry struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty"`
}

// Validate checks if the NewMinistry has valid data.
// PRE: NewMinistry struct is populated
// POST: Returns nil if valid, error otherwise
// INVARIANT: Name is non-empty and at most MaxNameLength
func (n *NewMinistry) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return ErrEmptyName
	}
	if len(n.Name) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}

// MatchesName reports whether the ministry name contains q, case-insensitively.
func (m *Ministry) MatchesName(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	return q == "" || strings.Contains(strings.ToLower(m.Name), q)
}
