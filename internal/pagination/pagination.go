// Package pagination parses page/size query parameters and shapes the
// paged response envelope.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage = 1
	DefaultSize = 10
	MaxSize     = 100
)

// Params holds normalized paging and sorting parameters. Page is
// one-based.
type Params struct {
	Page      int
	Size      int
	SortBy    string
	Ascending bool
}

// Offset returns the row offset for the current page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Size
}

// Parse reads page, size, sortBy and isAsc from the request's query
// string. Out-of-range values fall back to the defaults; sortBy is
// reduced to the allowed set, falling back to the first entry.
func Parse(r *http.Request, allowedSorts ...string) Params {
	q := r.URL.Query()

	page := DefaultPage
	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		page = v
	}

	size := DefaultSize
	if v, err := strconv.Atoi(q.Get("size")); err == nil && v > 0 {
		size = v
	}
	if size > MaxSize {
		size = MaxSize
	}

	sortBy := ""
	if len(allowedSorts) > 0 {
		sortBy = allowedSorts[0]
		requested := q.Get("sortBy")
		for _, allowed := range allowedSorts {
			if requested == allowed {
				sortBy = requested
				break
			}
		}
	}

	ascending := false
	if v, err := strconv.ParseBool(q.Get("isAsc")); err == nil {
		ascending = v
	}

	return Params{
		Page:      page,
		Size:      size,
		SortBy:    sortBy,
		Ascending: ascending,
	}
}

// Page is the envelope every list endpoint returns.
type Page[T any] struct {
	TotalPages    int `json:"total_pages"`
	TotalElements int `json:"total_elements"`
	Page          int `json:"page"`
	Size          int `json:"size"`
	Data          []T `json:"data"`
}

// NewPage wraps one page of items with its counts. Data is never nil
// so the JSON always carries an array.
func NewPage[T any](items []T, total int, params Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if params.Size > 0 {
		totalPages = (total + params.Size - 1) / params.Size
	}
	return Page[T]{
		TotalPages:    totalPages,
		TotalElements: total,
		Page:          params.Page,
		Size:          params.Size,
		Data:          items,
	}
}
