package paging

import (
	"net/url"
	"sort"
	"strconv"
)

// Page is a response of list endpoints.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Query is a request of list endpoints.
type Query struct {
	// 1-origin page number.
	Page int

	PageSize int

	// filter conditions. Keys with empty value are not sent.
	Filters map[string]string
}

// Values encodes q as query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if 0 < q.Page {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if 0 < q.PageSize {
		v.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if val := q.Filters[k]; val != "" {
			v.Set(k, val)
		}
	}
	return v
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total int, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Slice cuts out the page-th page (1-origin) of items.
//
// It returns an empty slice for out-of-range pages.
func Slice[T any](items []T, page int, pageSize int) Page[T] {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = len(items)
	}

	ret := Page[T]{
		Items:      []T{},
		Total:      len(items),
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(len(items), pageSize),
	}

	begin := (page - 1) * pageSize
	if len(items) <= begin {
		return ret
	}
	end := min(begin+pageSize, len(items))
	ret.Items = append(ret.Items, items[begin:end]...)
	return ret
}
