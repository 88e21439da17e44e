package projections

import (
	"strings"

	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/visitor"
)

// RosterRow is one member line in an open sign-in session.
type RosterRow struct {
	ID       int               `json:"id"`
	MemberID string            `json:"member_id"`
	FullName string            `json:"full_name"`
	Status   attendance.Status `json:"status"`
	Present  bool              `json:"present"`
}

// FilterRoster lists members whose name or member number contains q,
// annotated with their status in roster.
// INVARIANT: pure; members and roster are not modified and no I/O happens
func FilterRoster(members []member.Member, roster attendance.Roster, q string) []RosterRow {
	q = strings.ToLower(strings.TrimSpace(q))
	rows := make([]RosterRow, 0, len(members))
	for _, m := range members {
		if q != "" &&
			!strings.Contains(strings.ToLower(m.FullName), q) &&
			!strings.Contains(strings.ToLower(m.MemberID), q) {
			continue
		}
		status := roster.StatusOf(m.ID)
		rows = append(rows, RosterRow{
			ID:       m.ID,
			MemberID: m.MemberID,
			FullName: m.FullName,
			Status:   status,
			Present:  status == attendance.StatusPresent,
		})
	}
	return rows
}

// FilterVisitors lists visitors whose name contains q.
// INVARIANT: pure; visitors is not modified
func FilterVisitors(visitors []visitor.Visitor, q string) []visitor.Visitor {
	out := make([]visitor.Visitor, 0, len(visitors))
	for _, v := range visitors {
		if v.MatchesName(q) {
			out = append(out, v)
		}
	}
	return out
}
