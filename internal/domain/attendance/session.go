package attendance

import (
	"errors"
	"time"

	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/visitor"
)

// View constants for the sign-in screen.
const (
	ViewEventList     View = "event_list"
	ViewActiveSession View = "active_session"
)

// Tab constants for the active session.
const (
	TabMembers  Tab = "members"
	TabVisitors Tab = "visitors"
)

// Session errors
var (
	ErrNoActiveSession = errors.New("no event is open for sign-in")
	ErrStaleSession    = errors.New("result belongs to a session that is no longer open")
	ErrInvalidTab      = errors.New("tab must be members or visitors")
	ErrNotSunday       = errors.New("sunday sign-in is only offered on sundays")
	ErrSessionLoading  = errors.New("attendance for this event is still loading")
)

// SundaySignInAvailable reports whether the quick Sunday start is offered.
func SundaySignInAvailable(now time.Time) bool {
	return event.IsSunday(now)
}

// View is the top-level state of the sign-in screen.
type View string

// Tab selects which list the active session shows.
type Tab string

// Session is the operator's sign-in state: either the event list, or one open
// event with its roster and visitors.
// Every Enter and End advances the generation; results issued under an older
// generation are rejected so a late response cannot land on another event.
type Session struct {
	View     View
	Event    *event.Event
	Roster   Roster
	Visitors []visitor.Visitor
	Tab      Tab
	Loaded   bool

	generation uint64
}

// NewSession returns a session showing the event list.
func NewSession() *Session {
	return &Session{View: ViewEventList, Tab: TabMembers, Roster: Roster{}}
}

// Generation returns the current generation.
func (s *Session) Generation() uint64 {
	return s.generation
}

// IsActive reports whether an event is open.
// INVARIANT: Session fields are not mutated
func (s *Session) IsActive() bool {
	return s.View == ViewActiveSession && s.Event != nil
}

// Enter opens ev with an empty roster and visitor list.
// PRE: none
// POST: View is active, Tab is members, Loaded is false; returns the new generation
func (s *Session) Enter(ev event.Event) uint64 {
	s.generation++
	s.View = ViewActiveSession
	s.Event = &ev
	s.Roster = Roster{}
	s.Visitors = nil
	s.Tab = TabMembers
	s.Loaded = false
	return s.generation
}

// Load installs the roster and visitors fetched for generation gen.
// PRE: gen was returned by Enter
// POST: Loaded is true, or ErrStaleSession if the operator has moved on
func (s *Session) Load(gen uint64, roster Roster, visitors []visitor.Visitor) error {
	if gen != s.generation || !s.IsActive() {
		return ErrStaleSession
	}
	if roster == nil {
		roster = Roster{}
	}
	s.Roster = roster
	s.Visitors = visitors
	s.Loaded = true
	return nil
}

// End returns to the event list. It performs no I/O and discards nothing on the server.
// POST: View is the event list, generation advanced
func (s *Session) End() {
	s.generation++
	s.View = ViewEventList
	s.Event = nil
	s.Roster = Roster{}
	s.Visitors = nil
	s.Tab = TabMembers
	s.Loaded = false
}

// BeginToggle applies the tentative flip for memberID.
// PRE: an event is open and its roster has loaded
// POST: roster shows the flipped status; returns the transition and its generation
func (s *Session) BeginToggle(memberID int) (Transition, uint64, error) {
	if !s.IsActive() {
		return Transition{}, 0, ErrNoActiveSession
	}
	if !s.Loaded {
		return Transition{}, 0, ErrSessionLoading
	}
	if memberID <= 0 {
		return Transition{}, 0, ErrInvalidMemberID
	}
	t := s.Roster.Begin(memberID)
	s.Roster.Apply(t)
	return t, s.generation, nil
}

// Rollback applies the compensating transition for a failed toggle.
// It is a no-op if the session has moved on since the toggle began.
// POST: returns true if the roster was restored
func (s *Session) Rollback(gen uint64, t Transition) bool {
	if gen != s.generation || !s.IsActive() {
		return false
	}
	s.Roster.Compensate(t)
	return true
}

// AddVisitor appends a recorded visitor and switches to the visitors tab.
// PRE: gen is the generation the visitor was recorded under
// POST: visitor appended and Tab is visitors, or ErrStaleSession
func (s *Session) AddVisitor(gen uint64, v visitor.Visitor) error {
	if gen != s.generation || !s.IsActive() {
		return ErrStaleSession
	}
	s.Visitors = append(s.Visitors, v)
	s.Tab = TabVisitors
	return nil
}

// SetTab switches between the members and visitors lists.
func (s *Session) SetTab(tab Tab) error {
	if !s.IsActive() {
		return ErrNoActiveSession
	}
	if tab != TabMembers && tab != TabVisitors {
		return ErrInvalidTab
	}
	s.Tab = tab
	return nil
}
