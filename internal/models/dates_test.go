package models

import (
	"errors"
	"testing"
	"time"

	"boxdsync/internal/shared"
)

func TestParseWatchedDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"date only", "2023-01-01", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"rfc3339", "2023-01-01T20:30:00Z", time.Date(2023, 1, 1, 20, 30, 0, 0, time.UTC)},
		{"space separated", "2023-01-01 20:30:00", time.Date(2023, 1, 1, 20, 30, 0, 0, time.UTC)},
		{"day month year", "01 Jan 2023", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWatchedDate(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseWatchedDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseWatchedDate("someday soon")
		if !errors.Is(err, shared.ErrBadWatchedDate) {
			t.Fatalf("expected bad watched date error, got %v", err)
		}
	})
}

func TestWatchedTimestamp(t *testing.T) {
	// Time-of-day is discarded; the submission is always that day's
	// midnight UTC with millisecond precision.
	in := time.Date(2023, 1, 1, 20, 30, 45, 123456789, time.UTC)
	if got := WatchedTimestamp(in); got != "2023-01-01T00:00:00.000Z" {
		t.Errorf("WatchedTimestamp = %q", got)
	}

	offset := time.Date(2023, 1, 1, 1, 0, 0, 0, time.FixedZone("AEDT", 11*3600))
	if got := WatchedTimestamp(offset); got != "2022-12-31T00:00:00.000Z" {
		t.Errorf("expected UTC day after conversion, got %q", got)
	}
}

func TestSameCalendarDay(t *testing.T) {
	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"same day different hours",
			time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2023, 1, 1, 23, 59, 59, 0, time.UTC),
			true,
		},
		{
			"adjacent days",
			time.Date(2023, 1, 1, 23, 59, 59, 0, time.UTC),
			time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"same instant across zones",
			time.Date(2023, 1, 2, 1, 0, 0, 0, time.FixedZone("CET", 3600)),
			time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"local day differs from utc day",
			time.Date(2023, 1, 1, 23, 0, 0, 0, time.FixedZone("EST", -5*3600)),
			time.Date(2023, 1, 1, 12, 0, 0, 0, time.UTC),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameCalendarDay(tt.a, tt.b); got != tt.want {
				t.Errorf("SameCalendarDay = %v, want %v", got, tt.want)
			}
		})
	}
}
