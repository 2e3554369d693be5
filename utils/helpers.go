package utils

import (
	"strconv"
	"strings"
	"time"

	ierr "tuition_go/errors"
)

// apiDateLayouts are accepted for every date query parameter and body field.
var apiDateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// ParseAPIDate parses YYYY-MM-DD (and a few common variants) into a UTC calendar day.
func ParseAPIDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ierr.NewError("empty date").
			WithHint("Date is required in YYYY-MM-DD format").
			Mark(ierr.ErrValidation)
	}
	for _, l := range apiDateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, ierr.NewErrorf("unparseable date %q", s).
		WithHintf("Invalid date %q, use YYYY-MM-DD", s).
		Mark(ierr.ErrValidation)
}

// ParseOptionalDate returns nil for an empty value.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseAPIDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ParseID parses a positive numeric path parameter.
func ParseID(raw, name string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
	if err != nil || id == 0 {
		return 0, ierr.NewErrorf("invalid %s %q", name, raw).
			WithHintf("Invalid %s", name).
			Mark(ierr.ErrValidation)
	}
	return uint(id), nil
}

// ParseLimit reads a positive limit, falling back to def and capping at max.
func ParseLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
