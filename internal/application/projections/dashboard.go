package projections

import (
	"context"
	"strings"

	"churchconsole/internal/domain/dashboard"
)

// DashboardAPI reads the overview and runs global search.
type DashboardAPI interface {
	DashboardStats(ctx context.Context) (dashboard.Stats, error)
	GlobalSearch(ctx context.Context, q string) ([]dashboard.SearchHit, error)
}

// QueryGetDashboard returns the church overview.
func QueryGetDashboard(ctx context.Context, api DashboardAPI) (dashboard.Stats, error) {
	stats, err := api.DashboardStats(ctx)
	if err != nil {
		return dashboard.Stats{}, err
	}
	if stats.Activities == nil {
		stats.Activities = []dashboard.Activity{}
	}
	if stats.GrowthData == nil {
		stats.GrowthData = []dashboard.GrowthPoint{}
	}
	return stats, nil
}

// QueryGlobalSearch searches members and ministries.
// POST: queries shorter than dashboard.MinSearchLength return no hits without a backend call
func QueryGlobalSearch(ctx context.Context, q string, api DashboardAPI) ([]dashboard.SearchHit, error) {
	if !dashboard.ShouldSearch(q) {
		return []dashboard.SearchHit{}, nil
	}
	hits, err := api.GlobalSearch(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []dashboard.SearchHit{}
	}
	return hits, nil
}
