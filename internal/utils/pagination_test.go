package utils

import (
	"net/url"
	"testing"
)

func TestAtoiDefault(t *testing.T) {
	cases := []struct {
		s    string
		def  int
		want int
	}{
		// empty -> default
		{"", 10, 10},
		// valid ints
		{"42", 0, 42},
		{"-13", 1, -13},
		{"0012", 99, 12},
		// invalid -> default (no trim)
		{"x", 5, 5},
		{" 42", 7, 7},
		// overflow -> default
		{"999999999999999999999999", -1, -1},
	}

	for _, tc := range cases {
		if got := AtoiDefault(tc.s, tc.def); got != tc.want {
			t.Fatalf("AtoiDefault(%q, %d) = %d; want %d", tc.s, tc.def, got, tc.want)
		}
	}
}

func TestParsePagination_Defaults(t *testing.T) {
	p := ParsePagination(url.Values{}, "created_at", "created_at", "title")
	if p.Page != DefaultPage || p.Limit != DefaultLimit {
		t.Fatalf("defaults not applied: %+v", p)
	}
	if p.Skip != 0 {
		t.Fatalf("skip = %d, want 0", p.Skip)
	}
	if p.OrderBy != "created_at desc" {
		t.Fatalf("orderBy = %q, want created_at desc", p.OrderBy)
	}
}

func TestParsePagination_Clamping(t *testing.T) {
	cases := []struct {
		page, limit   string
		wantPage      int
		wantLimit     int
		wantSkip      int
	}{
		{"0", "0", 1, 1, 0},
		{"-3", "-1", 1, 1, 0},
		{"2", "500", 2, MaxLimit, MaxLimit},
		{"3", "10", 3, 10, 20},
		{"junk", "junk", DefaultPage, DefaultLimit, 0},
	}
	for _, tc := range cases {
		q := url.Values{"page": {tc.page}, "limit": {tc.limit}}
		p := ParsePagination(q, "created_at", "created_at")
		if p.Page != tc.wantPage || p.Limit != tc.wantLimit || p.Skip != tc.wantSkip {
			t.Fatalf("page=%q limit=%q: got %+v, want page=%d limit=%d skip=%d",
				tc.page, tc.limit, p, tc.wantPage, tc.wantLimit, tc.wantSkip)
		}
	}
}

func TestParsePagination_SortAllowlist(t *testing.T) {
	q := url.Values{"sortBy": {"price"}, "sortOrder": {"asc"}}
	p := ParsePagination(q, "created_at", "created_at", "price", "title")
	if p.OrderBy != "price asc" {
		t.Fatalf("orderBy = %q, want price asc", p.OrderBy)
	}

	// Columns outside the allowlist fall back to the default sort.
	q = url.Values{"sortBy": {"password_hash; DROP TABLE users"}}
	p = ParsePagination(q, "created_at", "created_at", "price")
	if p.OrderBy != "created_at desc" {
		t.Fatalf("orderBy = %q, want created_at desc", p.OrderBy)
	}

	// Unknown sort order falls back to desc.
	q = url.Values{"sortOrder": {"upwards"}}
	if p = ParsePagination(q, "created_at", "created_at"); p.OrderBy != "created_at desc" {
		t.Fatalf("orderBy = %q, want created_at desc", p.OrderBy)
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{101, 20, 6},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Fatalf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
