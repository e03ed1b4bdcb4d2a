// Package utils provides small, generic helpers independent of the corpus
// and query logic.
package utils

import "strconv"

// AtoiDefault converts s with strconv.Atoi, returning def when s is empty or
// not an integer.
func AtoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

// Page describes a window over an ordered list.
type Page struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
	Start    int `json:"-"`
	End      int `json:"-"`
}

// Paginate clamps page (1-based) and size to sane values and returns the
// [Start, End) bounds over total items. A page past the end yields an empty
// window.
//
//	p := utils.Paginate(45, 2, 20, 100) // Start=20 End=40
func Paginate(total, page, size, maxSize int) Page {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}
	if maxSize > 0 && size > maxSize {
		size = maxSize
	}
	if total < 0 {
		total = 0
	}
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return Page{Page: page, PageSize: size, Total: total, Start: start, End: end}
}
