package signin

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"churchconsole/internal/application/inputcheck"
	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/visitor"
)

var (
	sunday    = time.Date(2024, 3, 3, 9, 0, 0, 0, time.UTC)
	wednesday = time.Date(2024, 3, 6, 18, 0, 0, 0, time.UTC)
)

type mockAPI struct {
	mu          sync.Mutex
	events      []event.Event
	members     []member.Member
	records     map[int][]attendance.Record
	visitors    map[int][]visitor.Visitor
	toggleErr   error
	toggleGate  chan struct{}
	attendGate  chan struct{}
	attendErr   error
	toggles     int
	visitorCall int
	listEvents  int
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newMockAPI() *mockAPI {
	return &mockAPI{
		events: []event.Event{
			{ID: 1, Name: "Midweek Service", Date: "2024-03-06"},
			{ID: 2, Name: "Sunday Service - 03 Mar 2024", Date: "2024-03-03", IsService: true},
		},
		members: []member.Member{
			{ID: 10, MemberID: "COC20240010", FullName: "Grace Wanjiku"},
			{ID: 11, MemberID: "COC20240011", FullName: "Peter Otieno"},
		},
		records:  map[int][]attendance.Record{1: {{ID: 1, Member: 11, Event: 1, Status: attendance.StatusPresent}}},
		visitors: map[int][]visitor.Visitor{},
	}
}

func (m *mockAPI) ListEvents(context.Context) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listEvents++
	return append([]event.Event(nil), m.events...), nil
}

func (m *mockAPI) TodayEvent(context.Context) (event.Event, error) {
	return event.Event{ID: 3, Name: "Sunday Service - 03 Mar 2024", Date: "2024-03-03", IsService: true}, nil
}

func (m *mockAPI) CreateEvent(_ context.Context, in event.NewEvent) (event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := event.Event{ID: 50 + len(m.events), Name: in.Name, Date: in.Date}
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *mockAPI) ListMembers(context.Context) ([]member.Member, error) {
	return m.members, nil
}

func (m *mockAPI) ListAttendance(ctx context.Context, eventID int) ([]attendance.Record, error) {
	if m.attendGate != nil {
		select {
		case <-m.attendGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attendErr != nil {
		return nil, m.attendErr
	}
	return m.records[eventID], nil
}

func (m *mockAPI) ToggleAttendance(_ context.Context, req attendance.ToggleRequest) error {
	n := m.inFlight.Add(1)
	for {
		cur := m.maxInFlight.Load()
		if n <= cur || m.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}
	defer m.inFlight.Add(-1)
	if m.toggleGate != nil {
		<-m.toggleGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toggles++
	return m.toggleErr
}

func (m *mockAPI) ListVisitors(_ context.Context, eventID int) ([]visitor.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visitors[eventID], nil
}

func (m *mockAPI) CreateVisitor(_ context.Context, in visitor.NewVisitor) (visitor.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visitorCall++
	return visitor.Visitor{ID: 100 + m.visitorCall, FullName: in.FullName, Event: in.Event}, nil
}

func openManager(t *testing.T, api *mockAPI, eventID int) *Manager {
	t.Helper()
	m := NewManager(api)
	m.Now = func() time.Time { return wednesday }
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if err := m.Open(context.Background(), eventID); err != nil {
		t.Fatalf("Open: %v", err)
	}
	return m
}

// TestOpen_LoadsRosterAndVisitors verifies both reads land before Loaded.
func TestOpen_LoadsRosterAndVisitors(t *testing.T) {
	api := newMockAPI()
	api.visitors[1] = []visitor.Visitor{{ID: 5, FullName: "Ann Njeri", Event: 1}}
	m := openManager(t, api, 1)

	v := m.Snapshot("")
	if v.View != attendance.ViewActiveSession || !v.Loaded || v.Event.ID != 1 {
		t.Fatalf("view = %+v", v)
	}
	if v.PresentCount != 1 || len(v.Visitors) != 1 || len(v.Members) != 2 {
		t.Errorf("present=%d visitors=%d members=%d", v.PresentCount, len(v.Visitors), len(v.Members))
	}
	if err := m.Open(context.Background(), 999); !errors.Is(err, event.ErrNotFound) {
		t.Errorf("Open(unknown) = %v", err)
	}
}

// TestToggle_FailureLeavesRosterUnchanged verifies the compensating rollback.
func TestToggle_FailureLeavesRosterUnchanged(t *testing.T) {
	api := newMockAPI()
	api.toggleErr = errors.New("backend returned 500")
	m := openManager(t, api, 1)

	before := m.Snapshot("")
	for _, id := range []int{10, 11} {
		out, err := m.Toggle(context.Background(), id)
		if err != nil {
			t.Fatalf("Toggle(%d) returned %v; failures must stay silent", id, err)
		}
		if !out.RolledBack {
			t.Errorf("Toggle(%d) RolledBack = false", id)
		}
	}
	after := m.Snapshot("")
	for i := range before.Members {
		if before.Members[i].Status != after.Members[i].Status {
			t.Errorf("member %d status %s -> %s", before.Members[i].ID, before.Members[i].Status, after.Members[i].Status)
		}
	}
	m.mu.Lock()
	_, has10 := m.session.Roster[10]
	m.mu.Unlock()
	if has10 {
		t.Error("rollback should remove the entry it created")
	}
}

// TestToggle_SuccessFlips verifies commit and a second flip.
func TestToggle_SuccessFlips(t *testing.T) {
	api := newMockAPI()
	m := openManager(t, api, 1)

	out, err := m.Toggle(context.Background(), 10)
	if err != nil || out.Status != attendance.StatusPresent || out.RolledBack {
		t.Fatalf("first toggle = %+v, %v", out, err)
	}
	out, _ = m.Toggle(context.Background(), 10)
	if out.Status != attendance.StatusAbsent {
		t.Errorf("second toggle status = %s", out.Status)
	}
	if api.toggles != 2 {
		t.Errorf("toggles sent = %d", api.toggles)
	}
}

// TestToggle_SameMemberSerialized verifies one in-flight toggle per member.
func TestToggle_SameMemberSerialized(t *testing.T) {
	api := newMockAPI()
	m := openManager(t, api, 1)
	api.toggleGate = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Toggle(context.Background(), 10)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	if got := api.inFlight.Load(); got != 1 {
		t.Errorf("in flight for one member = %d, want 1", got)
	}
	api.toggleGate <- struct{}{}
	api.toggleGate <- struct{}{}
	wg.Wait()
	if api.maxInFlight.Load() != 1 {
		t.Errorf("max in flight = %d, want 1", api.maxInFlight.Load())
	}
	if v := m.Snapshot(""); v.PresentCount != 1 {
		t.Errorf("present = %d, want 1 (member 11 only after two flips of 10)", v.PresentCount)
	}
}

// TestToggle_DifferentMembersIndependent verifies toggles on distinct members overlap.
func TestToggle_DifferentMembersIndependent(t *testing.T) {
	api := newMockAPI()
	m := openManager(t, api, 1)
	api.toggleGate = make(chan struct{})

	var wg sync.WaitGroup
	for _, id := range []int{10, 11} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			m.Toggle(context.Background(), id)
		}(id)
	}
	deadline := time.Now().Add(time.Second)
	for api.inFlight.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if api.inFlight.Load() != 2 {
		t.Errorf("in flight = %d, want 2", api.inFlight.Load())
	}
	close(api.toggleGate)
	wg.Wait()
}

// TestOpen_StaleLoadDiscarded verifies a late load cannot land after End.
func TestOpen_StaleLoadDiscarded(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api)
	m.Now = func() time.Time { return wednesday }
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	api.attendGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- m.Open(context.Background(), 1) }()
	deadline := time.Now().Add(time.Second)
	for m.Snapshot("").View != attendance.ViewActiveSession && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.End()
	close(api.attendGate)

	if err := <-done; !errors.Is(err, attendance.ErrStaleSession) {
		t.Fatalf("Open = %v, want ErrStaleSession", err)
	}
	v := m.Snapshot("")
	if v.View != attendance.ViewEventList || v.Loaded {
		t.Errorf("view after stale load = %+v", v)
	}
}

// TestRecordVisitor tests scoping, validation and the tab switch.
func TestRecordVisitor(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api)
	if _, err := m.RecordVisitor(context.Background(), visitor.NewVisitor{FullName: "Peter Kamau"}); !errors.Is(err, attendance.ErrNoActiveSession) {
		t.Fatalf("no session err = %v", err)
	}

	m = openManager(t, api, 1)
	_, err := m.RecordVisitor(context.Background(), visitor.NewVisitor{})
	var ferrs inputcheck.Errors
	if !errors.As(err, &ferrs) || ferrs["full_name"] == "" {
		t.Fatalf("empty visitor err = %v", err)
	}
	if api.visitorCall != 0 {
		t.Fatal("invalid visitor reached the backend")
	}

	for i := 0; i < 2; i++ {
		v, err := m.RecordVisitor(context.Background(), visitor.NewVisitor{FullName: "Peter Kamau", Event: 99})
		if err != nil {
			t.Fatalf("RecordVisitor: %v", err)
		}
		if v.Event != 1 {
			t.Errorf("visitor event = %d, want the open event", v.Event)
		}
	}
	view := m.Snapshot("")
	if view.Tab != attendance.TabVisitors || len(view.Visitors) != 2 {
		t.Errorf("tab=%s visitors=%d (duplicates are allowed)", view.Tab, len(view.Visitors))
	}
	if got := m.Snapshot("ann").Visitors; len(got) != 0 {
		t.Errorf("filtered visitors = %+v", got)
	}
}

// TestStartSunday tests weekday gating and today's lookup.
func TestStartSunday(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api)
	m.Now = func() time.Time { return wednesday }
	if m.Snapshot("").SundayAvailable {
		t.Error("Sunday start offered on a Wednesday")
	}
	if err := m.StartSunday(context.Background()); !errors.Is(err, attendance.ErrNotSunday) {
		t.Fatalf("StartSunday on Wednesday = %v", err)
	}

	m.Now = func() time.Time { return sunday }
	if err := m.StartSunday(context.Background()); err != nil {
		t.Fatalf("StartSunday: %v", err)
	}
	v := m.Snapshot("")
	if v.Event == nil || v.Event.ID != 3 || !v.Loaded {
		t.Errorf("view = %+v", v)
	}
	if len(v.Events) == 0 || v.Events[0].ID != 3 {
		t.Errorf("today's event not listed: %+v", v.Events)
	}
}

// TestCreateEvent_RefetchesListWithoutOpening verifies creation leaves the session alone.
func TestCreateEvent_RefetchesListWithoutOpening(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api)
	ev, err := m.CreateEvent(context.Background(), event.NewEvent{Name: "Midweek Service", Date: "2024-03-06"})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	v := m.Snapshot("")
	if v.View != attendance.ViewEventList {
		t.Error("CreateEvent opened a session")
	}
	if len(v.Events) != 3 || v.Events[2].ID != ev.ID {
		t.Errorf("events = %+v", v.Events)
	}
	if api.listEvents != 1 {
		t.Errorf("ListEvents calls = %d, want 1", api.listEvents)
	}

	if _, err := m.CreateEvent(context.Background(), event.NewEvent{Name: "x", Date: "tomorrow"}); err == nil {
		t.Error("invalid date should fail")
	}
}

// TestSnapshot_FiltersRosterLocally verifies search never calls the backend.
func TestSnapshot_FiltersRosterLocally(t *testing.T) {
	api := newMockAPI()
	m := openManager(t, api, 1)
	calls := api.listEvents
	rows := m.Snapshot("coc20240011").Members
	if len(rows) != 1 || rows[0].FullName != "Peter Otieno" || !rows[0].Present {
		t.Errorf("rows = %+v", rows)
	}
	if api.listEvents != calls {
		t.Error("filtering called the backend")
	}
}

// TestToggle_RefusedWhileRosterLoading verifies a toggle cannot be computed
// against the empty roster installed before attendance arrives.
func TestToggle_RefusedWhileRosterLoading(t *testing.T) {
	api := newMockAPI()
	m := NewManager(api)
	m.Now = func() time.Time { return wednesday }
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	api.attendGate = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- m.Open(context.Background(), 1) }()
	deadline := time.Now().Add(time.Second)
	for m.Snapshot("").View != attendance.ViewActiveSession && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	// member 11 is PRESENT on the backend
	if _, err := m.Toggle(context.Background(), 11); !errors.Is(err, attendance.ErrSessionLoading) {
		t.Fatalf("Toggle while loading = %v, want ErrSessionLoading", err)
	}
	close(api.attendGate)
	if err := <-done; err != nil {
		t.Fatalf("Open: %v", err)
	}
	if api.toggles != 0 {
		t.Errorf("toggles sent while loading = %d, want 0", api.toggles)
	}
	for _, row := range m.Snapshot("").Members {
		if row.ID == 11 && !row.Present {
			t.Error("member 11 should still be PRESENT after the load")
		}
	}

	out, err := m.Toggle(context.Background(), 11)
	if err != nil || out.Status != attendance.StatusAbsent {
		t.Errorf("Toggle after load = %+v, %v; want ABSENT", out, err)
	}
}

// TestToggle_RefusedAfterFailedLoad verifies a session whose reads failed never accepts toggles.
func TestToggle_RefusedAfterFailedLoad(t *testing.T) {
	api := newMockAPI()
	api.attendErr = errors.New("backend returned 500")
	m := NewManager(api)
	m.Now = func() time.Time { return wednesday }
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := m.Open(context.Background(), 1); err == nil {
		t.Fatal("Open should report the failed attendance read")
	}
	if v := m.Snapshot(""); v.Loaded {
		t.Fatalf("view after failed load = %+v", v)
	}
	if _, err := m.Toggle(context.Background(), 10); !errors.Is(err, attendance.ErrSessionLoading) {
		t.Errorf("Toggle after failed load = %v, want ErrSessionLoading", err)
	}
	if api.toggles != 0 {
		t.Errorf("toggles sent = %d, want 0", api.toggles)
	}
}

// TestSnapshot_FiltersActiveTabOnly verifies q narrows one list at a time.
func TestSnapshot_FiltersActiveTabOnly(t *testing.T) {
	api := newMockAPI()
	api.visitors[1] = []visitor.Visitor{
		{ID: 5, FullName: "Ann Njeri", Event: 1},
		{ID: 6, FullName: "Peter Kamau", Event: 1},
	}
	m := openManager(t, api, 1)

	tests := []struct {
		tab          attendance.Tab
		wantMembers  int
		wantVisitors int
	}{
		{attendance.TabMembers, 0, 2},
		{attendance.TabVisitors, 2, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.tab), func(t *testing.T) {
			if err := m.SetTab(tt.tab); err != nil {
				t.Fatalf("SetTab: %v", err)
			}
			v := m.Snapshot("ann")
			if len(v.Members) != tt.wantMembers || len(v.Visitors) != tt.wantVisitors {
				t.Errorf("members=%d visitors=%d, want %d and %d",
					len(v.Members), len(v.Visitors), tt.wantMembers, tt.wantVisitors)
			}
		})
	}
}

// TestToggle_MemberLocksReleased verifies per-member locks live only while a toggle needs them.
func TestToggle_MemberLocksReleased(t *testing.T) {
	api := newMockAPI()
	m := openManager(t, api, 1)
	api.toggleGate = make(chan struct{})

	var wg sync.WaitGroup
	for _, id := range []int{10, 10, 11} {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			m.Toggle(context.Background(), id)
		}(id)
	}
	deadline := time.Now().Add(time.Second)
	for api.inFlight.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	m.mu.Lock()
	held := len(m.memberLocks)
	m.mu.Unlock()
	if held != 2 {
		t.Errorf("locks while toggling = %d, want 2", held)
	}

	close(api.toggleGate)
	wg.Wait()
	m.mu.Lock()
	held = len(m.memberLocks)
	m.mu.Unlock()
	if held != 0 {
		t.Errorf("locks after toggles = %d, want 0", held)
	}
}
