package pagination

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

// PageRequest represents a client request for a page of data with an optional
// case-insensitive substring filter.
type PageRequest struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Search   *string `json:"search,omitempty"`
}

// Normalize adjusts the request to ensure valid pagination values based on the config.
func (r *PageRequest) Normalize(cfg Config) {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize < 1 {
		r.PageSize = cfg.DefaultPageSize
	}
	if r.PageSize > cfg.MaxPageSize {
		r.PageSize = cfg.MaxPageSize
	}
}

// Offset calculates the number of records to skip based on page and page size.
// It saturates at math.MaxInt instead of overflowing.
func (r *PageRequest) Offset() int {
	if r.Page <= 1 || r.PageSize < 1 {
		return 0
	}
	if r.Page-1 > math.MaxInt/r.PageSize {
		return math.MaxInt
	}
	return (r.Page - 1) * r.PageSize
}

// PageRequestFromQuery parses pagination parameters from URL query values.
// Supported parameters: page, page_size, search.
func PageRequestFromQuery(values url.Values, cfg Config) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	pageSize, _ := strconv.Atoi(values.Get("page_size"))

	var search *string
	if s := values.Get("search"); s != "" {
		search = &s
	}

	req := PageRequest{
		Page:     page,
		PageSize: pageSize,
		Search:   search,
	}

	req.Normalize(cfg)
	return req
}

// PageResult holds a page of data along with pagination metadata.
type PageResult[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalPages int `json:"total_pages"`
}

// NewPageResult creates a PageResult with calculated total pages.
func NewPageResult[T any](data []T, total, page, pageSize int) PageResult[T] {
	totalPages := total / pageSize
	if total%pageSize != 0 {
		totalPages++
	}
	if totalPages < 1 {
		totalPages = 1
	}

	if data == nil {
		data = []T{}
	}

	return PageResult[T]{
		Data:       data,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// Paginate filters items by the request's search term, matched against
// text(item), and returns the requested page. Order is preserved.
func Paginate[T any](items []T, req PageRequest, text func(T) string) PageResult[T] {
	if req.Search != nil && *req.Search != "" {
		term := strings.ToLower(*req.Search)
		filtered := make([]T, 0, len(items))
		for _, item := range items {
			if strings.Contains(strings.ToLower(text(item)), term) {
				filtered = append(filtered, item)
			}
		}
		items = filtered
	}

	size := max(req.PageSize, 1)
	total := len(items)
	start := min(req.Offset(), total)
	end := start + min(size, total-start)

	return NewPageResult(items[start:end], total, req.Page, size)
}
