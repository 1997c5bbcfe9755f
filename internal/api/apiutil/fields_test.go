package apiutil

import (
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"utc", "2026-03-10T10:00:00Z", false},
		{"offset", "2026-03-10T15:30:00+05:30", false},
		{"naive", "2026-03-10T10:00:00", true},
		{"date only", "2026-03-10", true},
		{"empty", "", true},
		{"garbage", "tomorrow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInstant(tt.raw, "start_time")
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseInstant(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestParseInstant_PreservesOffset(t *testing.T) {
	parsed, err := ParseInstant("2026-03-10T15:30:00+05:30", "start_time")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	if !parsed.Equal(want) {
		t.Errorf("instant = %v, want same instant as %v", parsed, want)
	}
}

func TestParseLocalTime(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"08:00", "08:00", false},
		{"23:59", "23:59", false},
		{"8am", "", true},
		{"25:00", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseLocalTime(tt.raw, "opens_at")
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLocalTime(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLocalTime(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestParsePositiveInt64Field(t *testing.T) {
	if _, err := ParsePositiveInt64Field("", "court_id"); err == nil {
		t.Error("empty value should be rejected")
	}
	if _, err := ParsePositiveInt64Field("0", "court_id"); err == nil {
		t.Error("zero should be rejected")
	}
	if _, err := ParsePositiveInt64Field("-3", "court_id"); err == nil {
		t.Error("negative should be rejected")
	}
	value, err := ParsePositiveInt64Field("42", "court_id")
	if err != nil || value != 42 {
		t.Errorf("ParsePositiveInt64Field(42) = (%d, %v), want (42, nil)", value, err)
	}
}

func TestParseOptionalInt64Field(t *testing.T) {
	value, err := ParseOptionalInt64Field("", "format_id")
	if err != nil || value != nil {
		t.Errorf("empty optional = (%v, %v), want (nil, nil)", value, err)
	}
	value, err = ParseOptionalInt64Field("7", "format_id")
	if err != nil || value == nil || *value != 7 {
		t.Errorf("ParseOptionalInt64Field(7) = (%v, %v), want 7", value, err)
	}
	if _, err := ParseOptionalInt64Field("nope", "format_id"); err == nil {
		t.Error("garbage optional should be rejected")
	}
}
