package account

import (
	"errors"
	"strings"
)

// Role constants as issued by the backend.
const (
	RoleBishop         = "BISHOP"
	RoleAdmin          = "ADMIN"
	RoleMinistryLeader = "MINISTRY_LEADER"
	RoleDataEntry      = "DATA_ENTRY"
	RoleMember         = "MEMBER"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleBishop, RoleAdmin, RoleMinistryLeader, RoleDataEntry, RoleMember}

// Domain errors
var (
	ErrEmptyUsername  = errors.New("username cannot be empty")
	ErrEmptyPassword  = errors.New("password cannot be empty")
	ErrNotSignedIn    = errors.New("not signed in")
	ErrMalformedToken = errors.New("access token payload is malformed")
)

// Credentials are the operator's sign-in details. They are forwarded to the
// backend and never stored.
type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Validate checks if the Credentials are complete.
// PRE: none
// POST: Returns nil if both fields are present
func (c *Credentials) Validate() error {
	if strings.TrimSpace(c.Username) == "" {
		return ErrEmptyUsername
	}
	if c.Password == "" {
		return ErrEmptyPassword
	}
	return nil
}

// TokenPair is the access/refresh pair returned by a successful sign-in.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// IsZero reports whether no access token is held.
func (p TokenPair) IsZero() bool {
	return p.Access == ""
}

// Identity is who the operator is, as asserted by the access token payload.
type Identity struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin returns true for roles that administer the whole church.
// INVARIANT: Identity fields are not mutated
func (i Identity) IsAdmin() bool {
	return i.Role == RoleBishop || i.Role == RoleAdmin
}

// HasRole returns true if the identity holds one of roles.
func (i Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsValidRole reports whether role is one the backend issues.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
