package deletion

import (
	"errors"
	"time"
)

// Status constants for the confirmation lifecycle.
const (
	StatusPending   = "pending"
	StatusInFlight  = "in_flight"
	StatusProcessed = "processed"
	StatusCancelled = "cancelled"
	StatusExpired   = "expired"
)

// Target kinds that can be deleted from the console.
const (
	TargetMember   = "member"
	TargetMinistry = "ministry"
)

// Warning is shown with every confirmation prompt.
const Warning = "This action is irreversible."

// ConfirmWindow is how long a pending confirmation stays usable.
const ConfirmWindow = 5 * time.Minute

// Domain errors.
var (
	ErrEmptyRequestID  = errors.New("request_id is required")
	ErrInvalidTarget   = errors.New("target must be member or ministry")
	ErrInvalidTargetID = errors.New("target id must be positive")
	ErrInvalidStatus   = errors.New("invalid status transition")
	ErrInFlight        = errors.New("deletion is already in progress")
	ErrWindowExpired   = errors.New("confirmation has expired")
	ErrNotFound        = errors.New("deletion request not found")
)

// Request is a pending confirmation for an irreversible delete.
// INVARIANT: only a pending request inside its window can be confirmed,
// and a request cannot be cancelled while its delete call is in flight.
type Request struct {
	ID          string    `json:"id"`
	Target      string    `json:"target"`
	TargetID    int       `json:"target_id"`
	Label       string    `json:"label"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	LastError   string    `json:"last_error,omitempty"`
}

// Validate checks that the Request has valid data.
// PRE: Request fields may be empty
// POST: Returns nil if valid, error otherwise
func (r *Request) Validate() error {
	if r.ID == "" {
		return ErrEmptyRequestID
	}
	if r.Target != TargetMember && r.Target != TargetMinistry {
		return ErrInvalidTarget
	}
	if r.TargetID <= 0 {
		return ErrInvalidTargetID
	}
	return nil
}

// Prompt returns the confirmation text shown to the operator.
func (r *Request) Prompt() string {
	if r.Label == "" {
		return "Delete this " + r.Target + "? " + Warning
	}
	return "Delete " + r.Label + "? " + Warning
}

// CanConfirm returns true if the request is pending and inside its window.
// INVARIANT: Request fields are not mutated
func (r *Request) CanConfirm(now time.Time) bool {
	return r.Status == StatusPending && now.Before(r.ExpiresAt)
}

// BeginConfirm moves a pending request to in-flight.
// PRE: CanConfirm(now) is true
// POST: Status is in_flight
func (r *Request) BeginConfirm(now time.Time) error {
	switch {
	case r.Status == StatusInFlight:
		return ErrInFlight
	case r.Status != StatusPending:
		return ErrInvalidStatus
	case !now.Before(r.ExpiresAt):
		r.Status = StatusExpired
		return ErrWindowExpired
	}
	r.Status = StatusInFlight
	r.LastError = ""
	return nil
}

// MarkProcessed records that the backend deleted the target.
// PRE: Status is in_flight
// POST: Status is processed
func (r *Request) MarkProcessed() error {
	if r.Status != StatusInFlight {
		return ErrInvalidStatus
	}
	r.Status = StatusProcessed
	return nil
}

// MarkFailed returns an in-flight request to pending so the operator can retry or cancel.
// PRE: Status is in_flight
// POST: Status is pending, LastError set
func (r *Request) MarkFailed(reason string) error {
	if r.Status != StatusInFlight {
		return ErrInvalidStatus
	}
	r.Status = StatusPending
	r.LastError = reason
	return nil
}

// MarkCancelled abandons the request.
// PRE: Status is pending
// POST: Status is cancelled
func (r *Request) MarkCancelled() error {
	if r.Status == StatusInFlight {
		return ErrInFlight
	}
	if r.Status != StatusPending {
		return ErrInvalidStatus
	}
	r.Status = StatusCancelled
	return nil
}

// IsTerminal returns true if the request reached a final state.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusProcessed || r.Status == StatusCancelled || r.Status == StatusExpired
}

// NewRequest creates a pending confirmation for target/targetID.
func NewRequest(id, target string, targetID int, label string, now time.Time) *Request {
	return &Request{
		ID:          id,
		Target:      target,
		TargetID:    targetID,
		Label:       label,
		Status:      StatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(ConfirmWindow),
	}
}
