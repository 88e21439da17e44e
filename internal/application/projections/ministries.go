package projections

import (
	"context"
	"slices"
	"strings"

	"churchconsole/internal/domain/ministry"
)

// MinistryLister lists ministries.
type MinistryLister interface {
	ListMinistries(ctx context.Context) ([]ministry.Ministry, error)
}

// QueryGetMinistryList returns ministries whose name contains search.
func QueryGetMinistryList(ctx context.Context, search string, api MinistryLister) ([]ministry.Ministry, error) {
	all, err := api.ListMinistries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ministry.Ministry, 0, len(all))
	for _, m := range all {
		if m.MatchesName(search) {
			out = append(out, m)
		}
	}
	return out, nil
}

// QueryMinistrySuggestions returns the distinct ministry names, sorted, for
// the desired ministry field. The field stays free text.
func QueryMinistrySuggestions(ctx context.Context, api MinistryLister) ([]string, error) {
	all, err := api.ListMinistries(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(all))
	for _, m := range all {
		if name := strings.TrimSpace(m.Name); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return slices.Compact(names), nil
}
