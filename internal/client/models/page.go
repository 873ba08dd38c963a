package models

import (
	"net/url"
	"strconv"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListQuery is the pagination and sort state of one collection request.
type ListQuery struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder SortOrder
}

// Values encodes the query as page/limit/sortBy/sortOrder parameters.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", string(q.SortOrder))
	}
	return v
}

// Page is one page of a paginated note collection.
type Page struct {
	Notes      []Note `json:"notes"`
	Page       int    `json:"currentPage"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"totalNotes"`
}
