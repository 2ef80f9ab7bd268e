// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// Pagination defaults and bounds applied by ParsePagination.
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination is the skip/take/orderBy triple derived from list query
// parameters, ready to feed a repository query.
type Pagination struct {
	Page    int
	Limit   int
	Skip    int
	OrderBy string
}

// ParsePagination reads page, limit, sortBy, and sortOrder from query
// values, applying defaults and clamping: page >= 1, limit within
// [1, MaxLimit]. sortBy is accepted only when listed in allowedSorts
// (guarding against SQL injection through ORDER BY); otherwise defaultSort
// is used. sortOrder is "asc" or "desc", defaulting to "desc".
func ParsePagination(q url.Values, defaultSort string, allowedSorts ...string) Pagination {
	page := AtoiDefault(q.Get("page"), DefaultPage)
	if page < 1 {
		page = 1
	}

	limit := AtoiDefault(q.Get("limit"), DefaultLimit)
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	sortBy := defaultSort
	if requested := strings.TrimSpace(q.Get("sortBy")); requested != "" {
		for _, allowed := range allowedSorts {
			if requested == allowed {
				sortBy = requested
				break
			}
		}
	}

	order := "desc"
	if strings.EqualFold(strings.TrimSpace(q.Get("sortOrder")), "asc") {
		order = "asc"
	}

	return Pagination{
		Page:    page,
		Limit:   limit,
		Skip:    (page - 1) * limit,
		OrderBy: sortBy + " " + order,
	}
}

// TotalPages computes the page count for a total row count under the given
// limit. A zero total yields zero pages.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// AtoiDefault converts a string to an int using strconv.Atoi.
// If the string is empty or cannot be parsed as an integer,
// it returns the provided default value instead.
//
// Example:
//
//	n := utils.AtoiDefault("42", 0) // returns 42
//	n = utils.AtoiDefault("", 10)   // returns 10
//	n = utils.AtoiDefault("x", 5)   // returns 5
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}
