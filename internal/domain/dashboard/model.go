package dashboard

import (
	"strings"
	"time"
)

// MinSearchLength is the shortest query that reaches the backend.
const MinSearchLength = 2

// Search hit kinds
const (
	HitMember   = "member"
	HitMinistry = "ministry"
)

// Activity is one entry in the recent activity feed.
type Activity struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// GrowthPoint is the number of members registered in one month.
type GrowthPoint struct {
	Month   string `json:"month"`
	Members int    `json:"members"`
}

// Stats is the church overview shown after sign-in.
type Stats struct {
	TotalMembers     int           `json:"total_members"`
	NewMembers       int           `json:"new_members"`
	BaptizedMembers  int           `json:"baptized_members"`
	ActiveMinistries int           `json:"active_ministries"`
	Activities       []Activity    `json:"activities"`
	GrowthData       []GrowthPoint `json:"growth_data"`
}

// SearchHit is one global search result.
type SearchHit struct {
	ID       int    `json:"id"`
	Type     string `json:"type"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Path     string `json:"path"`
}

// ShouldSearch reports whether q is long enough to send.
func ShouldSearch(q string) bool {
	return len([]rune(strings.TrimSpace(q))) >= MinSearchLength
}
