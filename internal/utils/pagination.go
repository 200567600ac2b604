// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import "strconv"

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

// PageBounds are the defaults and cap applied by ClampPage.
type PageBounds struct {
	DefaultSize int
	MaxSize     int
}

// ClampPage parses raw page and page_size values. Missing or malformed values
// fall back to page 1 and b.DefaultSize; the size is kept within
// [1, b.MaxSize].
func ClampPage(page, size string, b PageBounds) (int, int) {
	p := AtoiDefault(page, 1)
	if p < 1 {
		p = 1
	}
	s := AtoiDefault(size, b.DefaultSize)
	if s < 1 {
		s = 1
	}
	if b.MaxSize > 0 && s > b.MaxSize {
		s = b.MaxSize
	}
	return p, s
}

// TotalPages returns how many pages of size are needed for total items.
func TotalPages(total int64, size int) int {
	if size <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
