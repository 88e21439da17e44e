// Package signin runs the attendance sign-in screen for one operator.
package signin

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"churchconsole/internal/application/inputcheck"
	"churchconsole/internal/application/projections"
	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/visitor"
)

// API is the backend surface the sign-in screen needs.
type API interface {
	ListEvents(ctx context.Context) ([]event.Event, error)
	TodayEvent(ctx context.Context) (event.Event, error)
	CreateEvent(ctx context.Context, ev event.NewEvent) (event.Event, error)
	ListMembers(ctx context.Context) ([]member.Member, error)
	ListAttendance(ctx context.Context, eventID int) ([]attendance.Record, error)
	ToggleAttendance(ctx context.Context, req attendance.ToggleRequest) error
	ListVisitors(ctx context.Context, eventID int) ([]visitor.Visitor, error)
	CreateVisitor(ctx context.Context, v visitor.NewVisitor) (visitor.Visitor, error)
}

var rollbacks = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "church_console_attendance_rollbacks_total",
	Help: "Optimistic attendance toggles reverted after the backend refused them.",
})

// Collectors returns the sign-in metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{rollbacks}
}

// Manager owns one operator's sign-in state. Network calls are made without
// holding mu; results are applied under mu and checked against the session
// generation they were issued for.
type Manager struct {
	api API
	Now func() time.Time

	mu          sync.Mutex
	session     *attendance.Session
	events      []event.Event
	members     []member.Member
	memberLocks map[int]*memberLock
}

// memberLock serializes toggles of one member. refs counts the toggles
// holding or waiting for it and is guarded by Manager.mu.
type memberLock struct {
	sync.Mutex
	refs int
}

// NewManager returns a manager showing the event list.
func NewManager(api API) *Manager {
	return &Manager{
		api:         api,
		Now:         time.Now,
		session:     attendance.NewSession(),
		memberLocks: make(map[int]*memberLock),
	}
}

// View is a copy of the sign-in state for rendering.
type View struct {
	View            attendance.View         `json:"view"`
	Event           *event.Event            `json:"event,omitempty"`
	Tab             attendance.Tab          `json:"tab"`
	Loaded          bool                    `json:"loaded"`
	PresentCount    int                     `json:"present_count"`
	Members         []projections.RosterRow `json:"members"`
	Visitors        []visitor.Visitor       `json:"visitors"`
	Events          []event.Event           `json:"events"`
	SundayAvailable bool                    `json:"sunday_available"`
}

// Snapshot renders the current state. q narrows only the list of the
// active tab; the other list is returned whole.
// INVARIANT: filtering never calls the backend
func (m *Manager) Snapshot(q string) View {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session
	v := View{
		View:            s.View,
		Tab:             s.Tab,
		Loaded:          s.Loaded,
		Events:          slices.Clone(m.events),
		SundayAvailable: attendance.SundaySignInAvailable(m.Now()),
		Members:         []projections.RosterRow{},
		Visitors:        []visitor.Visitor{},
	}
	if v.Events == nil {
		v.Events = []event.Event{}
	}
	if s.IsActive() {
		ev := *s.Event
		v.Event = &ev
		v.PresentCount = s.Roster.PresentCount()
		memberQ, visitorQ := q, ""
		if s.Tab == attendance.TabVisitors {
			memberQ, visitorQ = "", q
		}
		v.Members = projections.FilterRoster(m.members, s.Roster, memberQ)
		v.Visitors = projections.FilterVisitors(s.Visitors, visitorQ)
	}
	return v
}

// Refresh loads the event list and the member list concurrently.
// POST: both lists replaced, or neither on error
func (m *Manager) Refresh(ctx context.Context) error {
	var (
		events  []event.Event
		members []member.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = m.api.ListEvents(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = m.api.ListMembers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}
	m.mu.Lock()
	m.events = events
	m.members = members
	m.mu.Unlock()
	return nil
}

// Open enters the session for eventID and loads its roster and visitors.
// PRE: eventID is in the event list
// POST: the session is active; Loaded once both reads resolved
func (m *Manager) Open(ctx context.Context, eventID int) error {
	m.mu.Lock()
	idx := slices.IndexFunc(m.events, func(e event.Event) bool { return e.ID == eventID })
	m.mu.Unlock()
	if idx < 0 {
		if err := m.Refresh(ctx); err != nil {
			return err
		}
		m.mu.Lock()
		idx = slices.IndexFunc(m.events, func(e event.Event) bool { return e.ID == eventID })
		m.mu.Unlock()
		if idx < 0 {
			return event.ErrNotFound
		}
	}
	m.mu.Lock()
	ev := m.events[idx]
	m.mu.Unlock()
	return m.enter(ctx, ev)
}

// StartSunday opens today's service. It is offered only on Sundays.
func (m *Manager) StartSunday(ctx context.Context) error {
	if !attendance.SundaySignInAvailable(m.Now()) {
		return attendance.ErrNotSunday
	}
	ev, err := m.api.TodayEvent(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if !slices.ContainsFunc(m.events, func(e event.Event) bool { return e.ID == ev.ID }) {
		m.events = append([]event.Event{ev}, m.events...)
	}
	m.mu.Unlock()
	return m.enter(ctx, ev)
}

func (m *Manager) enter(ctx context.Context, ev event.Event) error {
	m.mu.Lock()
	gen := m.session.Enter(ev)
	needMembers := m.members == nil
	m.mu.Unlock()
	slog.Info("signin_event", "event", "session_opened", "event_id", ev.ID, "name", ev.Name)

	var (
		records  []attendance.Record
		visitors []visitor.Visitor
		members  []member.Member
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		records, err = m.api.ListAttendance(gctx, ev.ID)
		return err
	})
	g.Go(func() (err error) {
		visitors, err = m.api.ListVisitors(gctx, ev.ID)
		return err
	})
	if needMembers {
		g.Go(func() (err error) {
			members, err = m.api.ListMembers(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		// The session stays open with Loaded false, so toggles are refused
		// until the operator reopens the event.
		slog.Warn("signin_event", "event", "session_load_failed", "event_id", ev.ID, "error", err)
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if needMembers && m.members == nil {
		m.members = members
	}
	if err := m.session.Load(gen, attendance.FoldRoster(records), visitors); err != nil {
		slog.Info("signin_event", "event", "stale_load_discarded", "event_id", ev.ID)
		return err
	}
	return nil
}

// End returns to the event list. Nothing is sent to the backend.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.End()
}

// SetTab switches between the members and visitors lists.
func (m *Manager) SetTab(tab attendance.Tab) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.SetTab(tab)
}

// ToggleOutcome reports the member's status after a toggle.
type ToggleOutcome struct {
	MemberID   int               `json:"member_id"`
	Status     attendance.Status `json:"status"`
	RolledBack bool              `json:"rolled_back"`
}

// lockMember blocks until the caller holds id's toggle lock.
func (m *Manager) lockMember(id int) *memberLock {
	m.mu.Lock()
	l, ok := m.memberLocks[id]
	if !ok {
		l = &memberLock{}
		m.memberLocks[id] = l
	}
	l.refs++
	m.mu.Unlock()
	l.Lock()
	return l
}

// unlockMember releases id's toggle lock and drops it once no toggle needs it.
func (m *Manager) unlockMember(id int, l *memberLock) {
	l.Unlock()
	m.mu.Lock()
	defer m.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(m.memberLocks, id)
	}
}

// Toggle flips memberID optimistically and confirms with the backend.
// Toggles of the same member run one at a time; different members are independent.
// PRE: the open event's roster has loaded, else ErrSessionLoading
// POST: on backend failure the roster entry is restored exactly and the
// outcome reports RolledBack; the failure is not returned to the operator
func (m *Manager) Toggle(ctx context.Context, memberID int) (ToggleOutcome, error) {
	l := m.lockMember(memberID)
	defer m.unlockMember(memberID, l)

	m.mu.Lock()
	t, gen, err := m.session.BeginToggle(memberID)
	var eventID int
	if err == nil {
		eventID = m.session.Event.ID
	}
	m.mu.Unlock()
	if err != nil {
		return ToggleOutcome{}, err
	}

	callErr := m.api.ToggleAttendance(ctx, attendance.ToggleRequest{Event: eventID, Member: memberID})

	m.mu.Lock()
	defer m.mu.Unlock()
	out := ToggleOutcome{MemberID: memberID, Status: t.Next}
	if callErr != nil {
		restored := m.session.Rollback(gen, t)
		rollbacks.Inc()
		slog.Warn("signin_event", "event", "toggle_rolled_back", "event_id", eventID, "member_id", memberID, "restored", restored, "error", callErr)
		out.Status = t.Previous
		out.RolledBack = true
	}
	if gen == m.session.Generation() {
		out.Status = m.session.Roster.StatusOf(memberID)
	}
	return out, nil
}

// RecordVisitor records a visitor against the open event.
// PRE: a session is active
// POST: the visitor is appended and the visitors tab shown, unless the
// operator left the session while the call was in flight
func (m *Manager) RecordVisitor(ctx context.Context, in visitor.NewVisitor) (visitor.Visitor, error) {
	m.mu.Lock()
	if !m.session.IsActive() {
		m.mu.Unlock()
		return visitor.Visitor{}, attendance.ErrNoActiveSession
	}
	gen := m.session.Generation()
	in.Event = m.session.Event.ID
	m.mu.Unlock()

	if err := inputcheck.Struct(&in); err != nil {
		return visitor.Visitor{}, err
	}
	if err := in.Validate(); err != nil {
		return visitor.Visitor{}, err
	}
	v, err := m.api.CreateVisitor(ctx, in)
	if err != nil {
		return visitor.Visitor{}, err
	}
	slog.Info("signin_event", "event", "visitor_recorded", "event_id", in.Event, "visitor_id", v.ID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.session.AddVisitor(gen, v); err != nil {
		slog.Info("signin_event", "event", "stale_visitor_discarded", "event_id", in.Event, "visitor_id", v.ID)
	}
	return v, nil
}

// CreateEvent creates an event and reloads the event list.
// It does not open or affect any session.
func (m *Manager) CreateEvent(ctx context.Context, in event.NewEvent) (event.Event, error) {
	if err := inputcheck.Struct(&in); err != nil {
		return event.Event{}, err
	}
	if err := in.Validate(); err != nil {
		return event.Event{}, err
	}
	ev, err := m.api.CreateEvent(ctx, in)
	if err != nil {
		return event.Event{}, err
	}
	slog.Info("signin_event", "event", "event_created", "event_id", ev.ID, "name", ev.Name)
	events, err := m.api.ListEvents(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		slog.Warn("signin_event", "event", "event_list_refetch_failed", "error", err)
		m.events = append(m.events, ev)
		return ev, nil
	}
	m.events = events
	return ev, nil
}
