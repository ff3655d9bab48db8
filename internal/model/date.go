package model

import (
	"strings"
	"time"

	"github.com/templui/goalsetter/internal/apperror"
)

// dateLayouts are the ISO-8601 shapes clients send, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 date or date-time. Values without an offset
// are read as UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseRequiredDate is ParseDate for a named field. An empty value yields the
// zero time so the validator reports the field as missing.
func ParseRequiredDate(field, s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	t, ok := ParseDate(s)
	if !ok {
		return time.Time{}, apperror.Validation(field, "%s must be an ISO-8601 date", field)
	}
	return t, nil
}

// ParseOptionalDate parses s, returning nil when it is empty.
func ParseOptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, ok := ParseDate(s)
	if !ok {
		return nil, apperror.Validation(field, "%s must be an ISO-8601 date", field)
	}
	return &t, nil
}
