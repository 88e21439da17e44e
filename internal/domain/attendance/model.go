package attendance

import (
	"errors"
)

// Status constants
const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
)

// Domain errors
var (
	ErrInvalidStatus   = errors.New("status must be PRESENT or ABSENT")
	ErrInvalidMemberID = errors.New("member id must be positive")
	ErrInvalidEventID  = errors.New("event id must be positive")
)

// Status is a member's attendance state at one event.
type Status string

// Valid reports whether s is PRESENT or ABSENT.
func (s Status) Valid() bool {
	return s == StatusPresent || s == StatusAbsent
}

// Flip returns the opposite status. Anything that is not PRESENT flips to PRESENT.
func (s Status) Flip() Status {
	if s == StatusPresent {
		return StatusAbsent
	}
	return StatusPresent
}

// Record is one attendance row as the backend returns it.
type Record struct {
	ID     int    `json:"id"`
	Member int    `json:"member"`
	Event  int    `json:"event"`
	Status Status `json:"status"`
}

// ToggleRequest is the body of a toggle call. It carries no target status:
// the backend creates the record as PRESENT or flips the existing one.
type ToggleRequest struct {
	Event  int `json:"event"`
	Member int `json:"member"`
}

// Validate checks if the ToggleRequest has valid data.
// PRE: none
// POST: Returns nil if both ids are positive
func (r ToggleRequest) Validate() error {
	if r.Event <= 0 {
		return ErrInvalidEventID
	}
	if r.Member <= 0 {
		return ErrInvalidMemberID
	}
	return nil
}

// Roster maps member id to status for one event.
// A member with no entry reads as ABSENT.
type Roster map[int]Status

// FoldRoster builds a roster from records. Later records win.
func FoldRoster(records []Record) Roster {
	r := make(Roster, len(records))
	for _, rec := range records {
		r[rec.Member] = rec.Status
	}
	return r
}

// StatusOf returns the member's status, defaulting to ABSENT.
// INVARIANT: Roster is not mutated
func (r Roster) StatusOf(memberID int) Status {
	if s, ok := r[memberID]; ok {
		return s
	}
	return StatusAbsent
}

// IsPresent reports whether the member is marked PRESENT.
func (r Roster) IsPresent(memberID int) bool {
	return r.StatusOf(memberID) == StatusPresent
}

// PresentCount returns the number of members marked PRESENT.
func (r Roster) PresentCount() int {
	n := 0
	for _, s := range r {
		if s == StatusPresent {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the roster.
func (r Roster) Clone() Roster {
	c := make(Roster, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Transition is a tentative local status change awaiting server confirmation.
// It records enough to restore the exact prior state.
type Transition struct {
	MemberID int
	Previous Status
	Next     Status
	hadEntry bool
}

// Begin computes the tentative transition for toggling memberID.
// PRE: memberID > 0
// POST: Returns the transition; the roster is not mutated
func (r Roster) Begin(memberID int) Transition {
	prev, ok := r[memberID]
	if !ok {
		prev = StatusAbsent
	}
	return Transition{MemberID: memberID, Previous: prev, Next: prev.Flip(), hadEntry: ok}
}

// Apply writes the tentative status.
// POST: StatusOf(t.MemberID) == t.Next
func (r Roster) Apply(t Transition) {
	r[t.MemberID] = t.Next
}

// Compensate restores the state captured by Begin.
// POST: the member's entry is exactly as it was before Apply
func (r Roster) Compensate(t Transition) {
	if !t.hadEntry {
		delete(r, t.MemberID)
		return
	}
	r[t.MemberID] = t.Previous
}
