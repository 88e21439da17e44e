// Package apitest provides an in-memory church backend for tests.
package apitest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/dashboard"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
	"churchconsole/internal/domain/visitor"
)

// SigningKey signs the fake access tokens.
var SigningKey = []byte("apitest-signing-key")

// Call is one request the backend received.
type Call struct {
	Op          string
	Method      string
	Path        string
	ContentType string
	Body        []byte
}

type failure struct {
	status int
	body   string
}

type user struct {
	password string
	role     string
}

// Backend is a fake of the church REST API rooted at /api/v1/.
type Backend struct {
	Server *httptest.Server
	Now    func() time.Time

	mu         sync.Mutex
	users      map[string]user
	members    map[int]member.Member
	events     map[int]event.Event
	records    []attendance.Record
	visitors   []visitor.Visitor
	ministries map[int]ministry.Ministry
	photos     map[int][]byte
	nextID     int
	failures   map[string][]failure
	holds      map[string]chan struct{}
	calls      []Call
}

// New starts a fake backend. Close it when done.
func New() *Backend {
	b := &Backend{
		Now:        time.Now,
		users:      map[string]user{},
		members:    map[int]member.Member{},
		events:     map[int]event.Event{},
		ministries: map[int]ministry.Ministry{},
		photos:     map[int][]byte{},
		failures:   map[string][]failure{},
		holds:      map[string]chan struct{}{},
		nextID:     100,
	}
	mux := http.NewServeMux()
	b.handle(mux, "login", "POST /api/v1/accounts/auth/login/{$}", b.login)
	b.handle(mux, "list_events", "GET /api/v1/events/{$}", b.listEvents)
	b.handle(mux, "today_event", "GET /api/v1/events/today/{$}", b.todayEvent)
	b.handle(mux, "create_event", "POST /api/v1/events/{$}", b.createEvent)
	b.handle(mux, "list_members", "GET /api/v1/members/{$}", b.listMembers)
	b.handle(mux, "get_member", "GET /api/v1/members/{id}/{$}", b.getMember)
	b.handle(mux, "create_member", "POST /api/v1/members/{$}", b.createMember)
	b.handle(mux, "update_member", "PATCH /api/v1/members/{id}/{$}", b.patchMember)
	b.handle(mux, "delete_member", "DELETE /api/v1/members/{id}/{$}", b.deleteMember)
	b.handle(mux, "list_attendance", "GET /api/v1/attendance/{$}", b.listAttendance)
	b.handle(mux, "toggle_attendance", "POST /api/v1/attendance/toggle/{$}", b.toggle)
	b.handle(mux, "list_visitors", "GET /api/v1/visitors/{$}", b.listVisitors)
	b.handle(mux, "create_visitor", "POST /api/v1/visitors/{$}", b.createVisitor)
	b.handle(mux, "list_ministries", "GET /api/v1/ministries/{$}", b.listMinistries)
	b.handle(mux, "create_ministry", "POST /api/v1/ministries/{$}", b.createMinistry)
	b.handle(mux, "delete_ministry", "DELETE /api/v1/ministries/{id}/{$}", b.deleteMinistry)
	b.handle(mux, "global_search", "GET /api/v1/global-search/{$}", b.search)
	b.handle(mux, "dashboard_stats", "GET /api/v1/dashboard-stats/{$}", b.stats)
	b.Server = httptest.NewServer(mux)
	return b
}

// URL is the API base URL to configure a client with.
func (b *Backend) URL() string {
	return b.Server.URL + "/api/v1/"
}

// Close stops the server and releases any held calls.
func (b *Backend) Close() {
	b.mu.Lock()
	for op, ch := range b.holds {
		close(ch)
		delete(b.holds, op)
	}
	b.mu.Unlock()
	b.Server.Close()
}

// AddUser registers a sign-in account.
func (b *Backend) AddUser(username, password, role string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[username] = user{password: password, role: role}
}

// SeedMember stores m as-is and returns it.
func (b *Backend) SeedMember(m member.Member) member.Member {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID == 0 {
		m.ID = b.allocID()
	}
	if m.MemberID == "" {
		m.MemberID = fmt.Sprintf("COC%d%04d", b.Now().Year(), m.ID)
	}
	b.members[m.ID] = m
	return m
}

// SeedEvent stores e and returns it.
func (b *Backend) SeedEvent(e event.Event) event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e.ID == 0 {
		e.ID = b.allocID()
	}
	b.events[e.ID] = e
	return e
}

// SeedMinistry stores m and returns it.
func (b *Backend) SeedMinistry(m ministry.Ministry) ministry.Ministry {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m.ID == 0 {
		m.ID = b.allocID()
	}
	b.ministries[m.ID] = m
	return m
}

// SeedAttendance stores an attendance record.
func (b *Backend) SeedAttendance(r attendance.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if r.ID == 0 {
		r.ID = b.allocID()
	}
	b.records = append(b.records, r)
}

// FailNext makes the next call to op answer status with body.
func (b *Backend) FailNext(op string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = append(b.failures[op], failure{status: status, body: body})
}

// Hold makes calls to op block until the returned release func is called.
func (b *Backend) Hold(op string) (release func()) {
	ch := make(chan struct{})
	b.mu.Lock()
	b.holds[op] = ch
	b.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.holds[op] == ch {
				delete(b.holds, op)
				close(ch)
			}
		})
	}
}

// Calls returns every request received so far.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallCount returns how many times op was called.
func (b *Backend) CallCount(op string) int {
	n := 0
	for _, c := range b.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Member returns the stored member.
func (b *Backend) Member(id int) (member.Member, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.members[id]
	return m, ok
}

// Ministry returns the stored ministry.
func (b *Backend) Ministry(id int) (ministry.Ministry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.ministries[id]
	return m, ok
}

// Photo returns the uploaded passport photo bytes for member id.
func (b *Backend) Photo(id int) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.photos[id]
}

// Roster returns the stored statuses of one event.
func (b *Backend) Roster(eventID int) attendance.Roster {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := attendance.Roster{}
	for _, rec := range b.records {
		if rec.Event == eventID {
			r[rec.Member] = rec.Status
		}
	}
	return r
}

// Visitors returns the stored visitors of one event.
func (b *Backend) Visitors(eventID int) []visitor.Visitor {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []visitor.Visitor
	for _, v := range b.visitors {
		if v.Event == eventID {
			out = append(out, v)
		}
	}
	return out
}

// Events returns every stored event ordered by id.
func (b *Backend) Events() []event.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sortedEvents()
}

// IssueToken signs an access token for username/role.
func IssueToken(username, role string, expiresAt time.Time) string {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"token_type": "access",
		"username":   username,
		"role":       role,
		"exp":        expiresAt.Unix(),
	})
	s, err := tok.SignedString(SigningKey)
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Backend) allocID() int {
	b.nextID++
	return b.nextID
}

func (b *Backend) handle(mux *http.ServeMux, op, pattern string, h func(w http.ResponseWriter, r *http.Request, body []byte)) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.calls = append(b.calls, Call{Op: op, Method: r.Method, Path: r.URL.Path, ContentType: r.Header.Get("Content-Type"), Body: body})
		hold := b.holds[op]
		var fail *failure
		if queue := b.failures[op]; len(queue) > 0 {
			fail = &queue[0]
			b.failures[op] = queue[1:]
		}
		b.mu.Unlock()

		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		if fail != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fail.status)
			_, _ = io.WriteString(w, fail.body)
			return
		}
		if op != "login" && !b.authorized(r) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
			return
		}
		h(w, r, body)
	})
}

func (b *Backend) authorized(r *http.Request) bool {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	_, err := jwt.Parse(raw, func(*jwt.Token) (interface{}, error) { return SigningKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func required(field string) map[string][]string {
	return map[string][]string{field: {"This field is required."}}
}

func pathID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	return id, err == nil
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request, body []byte) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed"})
		return
	}
	b.mu.Lock()
	u, ok := b.users[in.Username]
	b.mu.Unlock()
	if !ok || u.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	exp := b.Now().Add(time.Hour)
	writeJSON(w, http.StatusOK, map[string]string{
		"access":  IssueToken(in.Username, u.role, exp),
		"refresh": IssueToken(in.Username, u.role, exp.Add(24*time.Hour)),
	})
}

func (b *Backend) sortedEvents() []event.Event {
	out := make([]event.Event, 0, len(b.events))
	for _, e := range b.events {
		n := 0
		for _, rec := range b.records {
			if rec.Event == e.ID && rec.Status == attendance.StatusPresent {
				n++
			}
		}
		e.AttendanceCount = n
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *Backend) listEvents(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.sortedEvents())
}

func (b *Backend) todayEvent(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.Now()
	today := now.Format(event.DateLayout)
	for _, e := range b.events {
		if e.IsService && e.Date == today {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	e := event.Event{
		ID:        b.allocID(),
		Name:      "Sunday Service - " + now.Format("02 Jan 2006"),
		Date:      today,
		IsService: true,
	}
	b.events[e.ID] = e
	writeJSON(w, http.StatusOK, e)
}

func (b *Backend) createEvent(w http.ResponseWriter, _ *http.Request, body []byte) {
	var in event.NewEvent
	if err := json.Unmarshal(body, &in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, required("name"))
		return
	}
	if in.Date == "" {
		writeJSON(w, http.StatusBadRequest, required("date"))
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e := event.Event{ID: b.allocID(), Name: in.Name, Date: in.Date, IsService: in.IsService, Description: in.Description}
	b.events[e.ID] = e
	writeJSON(w, http.StatusCreated, e)
}

func (b *Backend) listMembers(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]member.Member, 0, len(b.members))
	for _, m := range b.members {
		out = append(out, b.withMinistryName(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) withMinistryName(m member.Member) member.Member {
	m.MainMinistryName = ""
	if m.MainMinistry != nil {
		m.MainMinistryName = b.ministries[*m.MainMinistry].Name
	}
	return m
}

func (b *Backend) getMember(w http.ResponseWriter, r *http.Request, _ []byte) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.members[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	writeJSON(w, http.StatusOK, b.withMinistryName(m))
}

// merge overlays the JSON object body onto m.
func merge(m member.Member, body []byte) (member.Member, error) {
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(body, &patch); err != nil {
		return m, err
	}
	current, err := json.Marshal(m)
	if err != nil {
		return m, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(current, &fields); err != nil {
		return m, err
	}
	for k, v := range patch {
		switch k {
		case "id", "member_id", "created_at", "updated_at", "main_ministry_name":
			continue
		}
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return m, err
	}
	var out member.Member
	if err := json.Unmarshal(merged, &out); err != nil {
		return m, err
	}
	return out, nil
}

func (b *Backend) phoneTaken(phone string, except int) bool {
	for id, m := range b.members {
		if id != except && m.Phone == phone {
			return true
		}
	}
	return false
}

func (b *Backend) createMember(w http.ResponseWriter, _ *http.Request, body []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m, err := merge(member.Member{MemberType: member.TypeNew, Gender: member.GenderMale, MaritalStatus: member.MaritalSingle}, body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if m.FullName == "" {
		writeJSON(w, http.StatusBadRequest, required("full_name"))
		return
	}
	if m.Phone == "" {
		writeJSON(w, http.StatusBadRequest, required("phone"))
		return
	}
	if b.phoneTaken(m.Phone, 0) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"phone": {"member with this phone already exists."}})
		return
	}
	m.ID = b.allocID()
	m.MemberID = fmt.Sprintf("COC%d%04d", b.Now().Year(), m.ID)
	m.CreatedAt = b.Now().UTC()
	m.UpdatedAt = m.CreatedAt
	b.members[m.ID] = m
	writeJSON(w, http.StatusCreated, b.withMinistryName(m))
}

func (b *Backend) patchMember(w http.ResponseWriter, r *http.Request, body []byte) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	m, ok := b.members[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}

	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		rd := multipartReader(body, params["boundary"])
		part, err := rd.NextPart()
		if err != nil || part.FormName() != "passport_photo" {
			writeJSON(w, http.StatusBadRequest, required("passport_photo"))
			return
		}
		data, _ := io.ReadAll(part)
		b.photos[id] = data
		m.PassportPhoto = "/media/members/photos/" + part.FileName()
		b.members[id] = m
		writeJSON(w, http.StatusOK, b.withMinistryName(m))
		return
	}

	updated, err := merge(m, body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": err.Error()})
		return
	}
	if b.phoneTaken(updated.Phone, id) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"phone": {"member with this phone already exists."}})
		return
	}
	updated.UpdatedAt = b.Now().UTC()
	b.members[id] = updated
	writeJSON(w, http.StatusOK, b.withMinistryName(updated))
}

func (b *Backend) deleteMember(w http.ResponseWriter, r *http.Request, _ []byte) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.members[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	delete(b.members, id)
	w.WriteHeader(http.StatusNoContent)
}

func multipartReader(body []byte, boundary string) *multipart.Reader {
	return multipart.NewReader(bytes.NewReader(body), boundary)
}

func queryEvent(r *http.Request) int {
	id, _ := strconv.Atoi(r.URL.Query().Get("event"))
	return id
}

func (b *Backend) listAttendance(w http.ResponseWriter, r *http.Request, _ []byte) {
	eventID := queryEvent(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []attendance.Record{}
	for _, rec := range b.records {
		if eventID == 0 || rec.Event == eventID {
			out = append(out, rec)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) toggle(w http.ResponseWriter, _ *http.Request, body []byte) {
	var in attendance.ToggleRequest
	if err := json.Unmarshal(body, &in); err != nil || in.Validate() != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Event and Member IDs are required"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, rec := range b.records {
		if rec.Event == in.Event && rec.Member == in.Member {
			b.records[i].Status = rec.Status.Flip()
			writeJSON(w, http.StatusOK, b.records[i])
			return
		}
	}
	rec := attendance.Record{ID: b.allocID(), Member: in.Member, Event: in.Event, Status: attendance.StatusPresent}
	b.records = append(b.records, rec)
	writeJSON(w, http.StatusOK, rec)
}

func (b *Backend) listVisitors(w http.ResponseWriter, r *http.Request, _ []byte) {
	eventID := queryEvent(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []visitor.Visitor{}
	for _, v := range b.visitors {
		if eventID == 0 || v.Event == eventID {
			out = append(out, v)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createVisitor(w http.ResponseWriter, _ *http.Request, body []byte) {
	var in visitor.NewVisitor
	if err := json.Unmarshal(body, &in); err != nil || in.FullName == "" {
		writeJSON(w, http.StatusBadRequest, required("full_name"))
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.events[in.Event]; !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"event": {"Invalid pk - object does not exist."}})
		return
	}
	v := visitor.Visitor{ID: b.allocID(), FullName: in.FullName, PhoneNumber: in.PhoneNumber, Residence: in.Residence, Event: in.Event}
	b.visitors = append(b.visitors, v)
	writeJSON(w, http.StatusCreated, v)
}

func (b *Backend) listMinistries(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]ministry.Ministry, 0, len(b.ministries))
	for _, m := range b.ministries {
		m.MemberCount = 0
		for _, mem := range b.members {
			if mem.MainMinistry != nil && *mem.MainMinistry == m.ID {
				m.MemberCount++
			}
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createMinistry(w http.ResponseWriter, _ *http.Request, body []byte) {
	var in ministry.NewMinistry
	if err := json.Unmarshal(body, &in); err != nil || in.Name == "" {
		writeJSON(w, http.StatusBadRequest, required("name"))
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range b.ministries {
		if strings.EqualFold(m.Name, in.Name) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"ministry with this name already exists."}})
			return
		}
	}
	m := ministry.Ministry{ID: b.allocID(), Name: in.Name, Description: in.Description}
	b.ministries[m.ID] = m
	writeJSON(w, http.StatusCreated, m)
}

func (b *Backend) deleteMinistry(w http.ResponseWriter, r *http.Request, _ []byte) {
	id, _ := pathID(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.ministries[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return
	}
	delete(b.ministries, id)
	for mid, m := range b.members {
		if m.MainMinistry != nil && *m.MainMinistry == id {
			m.MainMinistry = nil
			b.members[mid] = m
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) search(w http.ResponseWriter, r *http.Request, _ []byte) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	out := []dashboard.SearchHit{}
	if q == "" {
		writeJSON(w, http.StatusOK, out)
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]int, 0, len(b.members))
	for id := range b.members {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	n := 0
	for _, id := range ids {
		m := b.members[id]
		if n < 5 && strings.Contains(strings.ToLower(m.FullName), q) {
			out = append(out, dashboard.SearchHit{ID: m.ID, Type: dashboard.HitMember, Title: m.FullName, Subtitle: m.MemberID, Path: "/members/" + strconv.Itoa(m.ID)})
			n++
		}
	}
	n = 0
	for _, m := range b.ministries {
		if n < 3 && strings.Contains(strings.ToLower(m.Name), q) {
			out = append(out, dashboard.SearchHit{ID: m.ID, Type: dashboard.HitMinistry, Title: m.Name, Subtitle: "Ministry", Path: "/ministries/" + strconv.Itoa(m.ID)})
			n++
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) stats(w http.ResponseWriter, _ *http.Request, _ []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := dashboard.Stats{TotalMembers: len(b.members), ActiveMinistries: len(b.ministries), Activities: []dashboard.Activity{}}
	for _, m := range b.members {
		if m.MemberType == member.TypeNew {
			s.NewMembers++
		}
		if m.Baptized {
			s.BaptizedMembers++
		}
	}
	now := b.Now()
	for i := 5; i >= 0; i-- {
		month := now.AddDate(0, 0, -30*i)
		n := 0
		for _, m := range b.members {
			if m.CreatedAt.Year() == month.Year() && m.CreatedAt.Month() == month.Month() {
				n++
			}
		}
		s.GrowthData = append(s.GrowthData, dashboard.GrowthPoint{Month: month.Format("Jan"), Members: n})
	}
	writeJSON(w, http.StatusOK, s)
}
