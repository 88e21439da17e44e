package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"churchconsole/internal/domain/account"
	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/dashboard"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
	"churchconsole/internal/domain/visitor"
)

// PhotoField is the multipart field name of the passport photo.
const PhotoField = "passport_photo"

func memberPath(id int) string {
	return "members/" + strconv.Itoa(id) + "/"
}

func eventQuery(eventID int) url.Values {
	return url.Values{"event": {strconv.Itoa(eventID)}}
}

// Login exchanges credentials for a token pair. No bearer token is sent.
func (c *Client) Login(ctx context.Context, creds account.Credentials) (account.TokenPair, error) {
	in, err := jsonBody(creds)
	if err != nil {
		return account.TokenPair{}, err
	}
	anon := c.WithTokens(nil)
	var out account.TokenPair
	if err := anon.do(ctx, "login", http.MethodPost, "accounts/auth/login/", nil, in, &out); err != nil {
		return account.TokenPair{}, err
	}
	return out, nil
}

// ListEvents returns every event.
func (c *Client) ListEvents(ctx context.Context) ([]event.Event, error) {
	var out []event.Event
	err := c.do(ctx, "list_events", http.MethodGet, "events/", nil, nil, &out)
	return out, err
}

// TodayEvent returns today's service, which the backend creates on first request.
func (c *Client) TodayEvent(ctx context.Context) (event.Event, error) {
	var out event.Event
	err := c.do(ctx, "today_event", http.MethodGet, "events/today/", nil, nil, &out)
	return out, err
}

// CreateEvent creates an event.
func (c *Client) CreateEvent(ctx context.Context, ev event.NewEvent) (event.Event, error) {
	in, err := jsonBody(ev)
	if err != nil {
		return event.Event{}, err
	}
	var out event.Event
	err = c.do(ctx, "create_event", http.MethodPost, "events/", nil, in, &out)
	return out, err
}

// ListMembers returns every member.
func (c *Client) ListMembers(ctx context.Context) ([]member.Member, error) {
	var out []member.Member
	err := c.do(ctx, "list_members", http.MethodGet, "members/", nil, nil, &out)
	return out, err
}

// GetMember returns one member.
func (c *Client) GetMember(ctx context.Context, id int) (member.Member, error) {
	var out member.Member
	err := c.do(ctx, "get_member", http.MethodGet, memberPath(id), nil, nil, &out)
	return out, err
}

// CreateMember creates a member and returns the stored record.
func (c *Client) CreateMember(ctx context.Context, p member.Payload) (member.Member, error) {
	in, err := jsonBody(p)
	if err != nil {
		return member.Member{}, err
	}
	var out member.Member
	err = c.do(ctx, "create_member", http.MethodPost, "members/", nil, in, &out)
	return out, err
}

// UpdateMember applies a partial JSON update to member id.
func (c *Client) UpdateMember(ctx context.Context, id int, p member.Payload) (member.Member, error) {
	in, err := jsonBody(p)
	if err != nil {
		return member.Member{}, err
	}
	var out member.Member
	err = c.do(ctx, "update_member", http.MethodPatch, memberPath(id), nil, in, &out)
	return out, err
}

// AssignMinistry sets or clears the member's main ministry.
func (c *Client) AssignMinistry(ctx context.Context, id int, ministryID *int) (member.Member, error) {
	in, err := jsonBody(member.MinistryAssignment{Ministry: ministryID})
	if err != nil {
		return member.Member{}, err
	}
	var out member.Member
	err = c.do(ctx, "assign_ministry", http.MethodPatch, memberPath(id), nil, in, &out)
	return out, err
}

// UploadMemberPhoto sends a multipart update carrying only the passport photo.
func (c *Client) UploadMemberPhoto(ctx context.Context, id int, filename, contentType string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, PhotoField, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("upload_member_photo: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("upload_member_photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("upload_member_photo: %w", err)
	}
	in := &body{contentType: mw.FormDataContentType(), data: buf.Bytes()}
	return c.do(ctx, "upload_member_photo", http.MethodPatch, memberPath(id), nil, in, nil)
}

// DeleteMember removes member id.
func (c *Client) DeleteMember(ctx context.Context, id int) error {
	return c.do(ctx, "delete_member", http.MethodDelete, memberPath(id), nil, nil, nil)
}

// ListAttendance returns the attendance records of one event.
func (c *Client) ListAttendance(ctx context.Context, eventID int) ([]attendance.Record, error) {
	var out []attendance.Record
	err := c.do(ctx, "list_attendance", http.MethodGet, "attendance/", eventQuery(eventID), nil, &out)
	return out, err
}

// ToggleAttendance asks the backend to flip a member's status at an event.
func (c *Client) ToggleAttendance(ctx context.Context, req attendance.ToggleRequest) error {
	in, err := jsonBody(req)
	if err != nil {
		return err
	}
	return c.do(ctx, "toggle_attendance", http.MethodPost, "attendance/toggle/", nil, in, nil)
}

// ListVisitors returns the visitors of one event.
func (c *Client) ListVisitors(ctx context.Context, eventID int) ([]visitor.Visitor, error) {
	var out []visitor.Visitor
	err := c.do(ctx, "list_visitors", http.MethodGet, "visitors/", eventQuery(eventID), nil, &out)
	return out, err
}

// CreateVisitor records a visitor.
func (c *Client) CreateVisitor(ctx context.Context, v visitor.NewVisitor) (visitor.Visitor, error) {
	in, err := jsonBody(v)
	if err != nil {
		return visitor.Visitor{}, err
	}
	var out visitor.Visitor
	err = c.do(ctx, "create_visitor", http.MethodPost, "visitors/", nil, in, &out)
	return out, err
}

// ListMinistries returns every ministry.
func (c *Client) ListMinistries(ctx context.Context) ([]ministry.Ministry, error) {
	var out []ministry.Ministry
	err := c.do(ctx, "list_ministries", http.MethodGet, "ministries/", nil, nil, &out)
	return out, err
}

// CreateMinistry creates a ministry.
func (c *Client) CreateMinistry(ctx context.Context, m ministry.NewMinistry) (ministry.Ministry, error) {
	in, err := jsonBody(m)
	if err != nil {
		return ministry.Ministry{}, err
	}
	var out ministry.Ministry
	err = c.do(ctx, "create_ministry", http.MethodPost, "ministries/", nil, in, &out)
	return out, err
}

// DeleteMinistry removes ministry id.
func (c *Client) DeleteMinistry(ctx context.Context, id int) error {
	return c.do(ctx, "delete_ministry", http.MethodDelete, "ministries/"+strconv.Itoa(id)+"/", nil, nil, nil)
}

// GlobalSearch searches members and ministries by name.
func (c *Client) GlobalSearch(ctx context.Context, q string) ([]dashboard.SearchHit, error) {
	var out []dashboard.SearchHit
	err := c.do(ctx, "global_search", http.MethodGet, "global-search/", url.Values{"q": {q}}, nil, &out)
	return out, err
}

// DashboardStats returns the church overview.
func (c *Client) DashboardStats(ctx context.Context) (dashboard.Stats, error) {
	var out dashboard.Stats
	err := c.do(ctx, "dashboard_stats", http.MethodGet, "dashboard-stats/", nil, nil, &out)
	return out, err
}
