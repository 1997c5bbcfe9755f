// internal/api/apiutil/fields.go
package apiutil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

func ParsePositiveInt64Field(raw string, field string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, FieldError{Field: field, Reason: "is required"}
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return value, nil
}

func ParseOptionalInt64Field(raw string, field string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return nil, FieldError{Field: field, Reason: "must be a positive integer"}
	}
	return &value, nil
}

func PathID(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.PathValue(name))
	if raw == "" {
		return 0, fmt.Errorf("invalid %s", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// ParseInstant accepts timezone-qualified instants only. Naive, zone-less
// timestamps are rejected at the boundary to avoid misinterpretation.
func ParseInstant(raw, field string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, FieldError{Field: field, Reason: "must be an RFC3339 timestamp with a timezone offset"}
	}
	return parsed, nil
}

// ParseLocalTime validates a "15:04" wall-clock string.
func ParseLocalTime(raw, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", FieldError{Field: field, Reason: "is required"}
	}
	parsed, err := time.Parse("15:04", raw)
	if err != nil {
		return "", FieldError{Field: field, Reason: "must be in HH:MM format"}
	}
	return parsed.Format("15:04"), nil
}
