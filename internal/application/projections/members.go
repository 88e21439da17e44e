package projections

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"churchconsole/internal/application/listutil"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
)

// Member type filter values. TypeAll disables the filter.
const TypeAll = "ALL"

// MemberSortKeys are the accepted sort columns of the member list.
var MemberSortKeys = []string{"full_name", "member_id", "created_at"}

// MemberLister lists members.
type MemberLister interface {
	ListMembers(ctx context.Context) ([]member.Member, error)
}

// MemberRow is one line of the member list.
type MemberRow struct {
	ID               int    `json:"id"`
	MemberID         string `json:"member_id"`
	FullName         string `json:"full_name"`
	Phone            string `json:"phone"`
	MemberType       string `json:"member_type"`
	MainMinistryName string `json:"main_ministry_name"`
}

// GetMemberListQuery carries query parameters.
type GetMemberListQuery struct {
	List listutil.Params
	Type string
}

// GetMemberListDeps holds dependencies for GetMemberList.
type GetMemberListDeps struct {
	Members MemberLister
}

// GetMemberListResult carries the query result.
type GetMemberListResult struct {
	Members []MemberRow       `json:"members"`
	Page    listutil.PageInfo `json:"page"`
}

// QueryGetMemberList retrieves members filtered by search text and type.
// PRE: query.Type is "", ALL, NEW or OLD
// POST: rows match the search on name, member number or phone
func QueryGetMemberList(ctx context.Context, query GetMemberListQuery, deps GetMemberListDeps) (GetMemberListResult, error) {
	all, err := deps.Members.ListMembers(ctx)
	if err != nil {
		return GetMemberListResult{}, err
	}
	sortMembers(all, query.List.Sort, query.List.Desc)
	page, info := listutil.Page(all, query.List, func(m member.Member) bool {
		return MatchesMemberFilter(m, query.List.Search, query.Type)
	})
	rows := make([]MemberRow, 0, len(page))
	for _, m := range page {
		rows = append(rows, MemberRow{
			ID:               m.ID,
			MemberID:         m.MemberID,
			FullName:         m.FullName,
			Phone:            m.Phone,
			MemberType:       m.MemberType,
			MainMinistryName: m.MainMinistryName,
		})
	}
	return GetMemberListResult{Members: rows, Page: info}, nil
}

// MatchesMemberFilter applies the member list search and type filter.
func MatchesMemberFilter(m member.Member, search, memberType string) bool {
	t := strings.ToUpper(strings.TrimSpace(memberType))
	if t != "" && t != TypeAll && m.MemberType != t {
		return false
	}
	return m.MatchesQuery(search)
}

func sortMembers(ms []member.Member, key string, desc bool) {
	if key == "" {
		return
	}
	slices.SortStableFunc(ms, func(a, b member.Member) int {
		var c int
		switch key {
		case "full_name":
			c = cmp.Compare(strings.ToLower(a.FullName), strings.ToLower(b.FullName))
		case "member_id":
			c = cmp.Compare(a.MemberID, b.MemberID)
		case "created_at":
			c = a.CreatedAt.Compare(b.CreatedAt)
		}
		if desc {
			return -c
		}
		return c
	})
}

// MemberProfileAPI reads a member and the ministries they can be assigned to.
type MemberProfileAPI interface {
	GetMember(ctx context.Context, id int) (member.Member, error)
	ListMinistries(ctx context.Context) ([]ministry.Ministry, error)
}

// GetMemberProfileResult carries the profile and assignable ministries.
type GetMemberProfileResult struct {
	Member     member.Member       `json:"member"`
	Ministries []ministry.Ministry `json:"ministries"`
}

// QueryGetMemberProfile loads a member and the ministry list concurrently.
// PRE: id > 0
// POST: both reads succeeded, or the first error is returned
func QueryGetMemberProfile(ctx context.Context, id int, api MemberProfileAPI) (GetMemberProfileResult, error) {
	if err := member.ValidateID(id); err != nil {
		return GetMemberProfileResult{}, err
	}
	var res GetMemberProfileResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := api.GetMember(gctx, id)
		res.Member = m
		return err
	})
	g.Go(func() error {
		ms, err := api.ListMinistries(gctx)
		res.Ministries = ms
		return err
	})
	if err := g.Wait(); err != nil {
		return GetMemberProfileResult{}, err
	}
	return res, nil
}
