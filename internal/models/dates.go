package models

import (
	"fmt"
	"strings"
	"time"

	"boxdsync/internal/shared"
)

// traktTimeLayout is the timestamp format Trakt accepts for watched_at and
// rated_at values.
const traktTimeLayout = "2006-01-02T15:04:05.000Z"

// watchedDateLayouts are the date formats seen in Letterboxd exports,
// most specific first.
var watchedDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
}

// ParseWatchedDate parses the raw watched-date text from an export.
// Returns [shared.ErrBadWatchedDate] when no known layout matches.
func ParseWatchedDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: empty", shared.ErrBadWatchedDate)
	}
	for _, layout := range watchedDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", shared.ErrBadWatchedDate, raw)
}

// WatchedTimestamp expands a watched date to the full timestamp submitted
// to Trakt: midnight UTC on that calendar day.
func WatchedTimestamp(t time.Time) string {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.Format(traktTimeLayout)
}

// SameCalendarDay reports whether two timestamps fall on the same UTC
// calendar day. Rewatch detection compares days, not instants.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
