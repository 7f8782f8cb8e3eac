package model

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTimestamp is returned when a timestamp matches none of the known layouts.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// timestampLayouts lists the layouts seen in bookmark exports.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
	time.RubyDate, // legacy X API "created_at"
	time.RFC1123Z,
	time.RFC1123,
}

// ParseTimestamp parses an export timestamp. Layouts without a zone are read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidTimestamp
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// ValidTimestamp reports whether s parses as a date-time.
func ValidTimestamp(s string) bool {
	_, err := ParseTimestamp(s)
	return err == nil
}
