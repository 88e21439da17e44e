package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// Query parameter names shared by every list endpoint.
const (
	ParamSearch  = "q"
	ParamPage    = "page"
	ParamPerPage = "per_page"
	ParamSort    = "sort"
	ParamDir     = "dir"
)

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 25

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 25, 50, 100}

// Params are the list options parsed from a request.
type Params struct {
	Search  string `json:"q,omitempty"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Sort    string `json:"sort,omitempty"`
	Desc    bool   `json:"desc,omitempty"`
}

// Parse extracts list options from URL query values.
// PRE: sortable lists the accepted sort keys
// POST: Page >= 1, PerPage is one of PerPageOptions, Sort is "" or in sortable
func Parse(q url.Values, sortable []string) Params {
	p := Params{Search: strings.TrimSpace(q.Get(ParamSearch))}
	p.Page, _ = strconv.Atoi(q.Get(ParamPage))
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage, _ = strconv.Atoi(q.Get(ParamPerPage))
	if !slices.Contains(PerPageOptions, p.PerPage) {
		p.PerPage = DefaultPerPage
	}
	if s := q.Get(ParamSort); slices.Contains(sortable, s) {
		p.Sort = s
	}
	p.Desc = q.Get(ParamDir) == "desc"
	return p
}

// PageInfo carries pagination metadata for the client.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: Page is clamped to [1, TotalPages]
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the index of the first row on the page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// Slice returns the rows of items on page p.
// INVARIANT: items is not modified
func Slice[T any](items []T, p PageInfo) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}

// Page filters items with keep, then paginates the survivors.
func Page[T any](items []T, params Params, keep func(T) bool) ([]T, PageInfo) {
	matched := make([]T, 0, len(items))
	for _, it := range items {
		if keep == nil || keep(it) {
			matched = append(matched, it)
		}
	}
	info := NewPageInfo(params.Page, params.PerPage, len(matched))
	return Slice(matched, info), info
}
