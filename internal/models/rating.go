package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"boxdsync/internal/shared"
)

// ConvertRating maps a Letterboxd rating (0-5, half-star steps) to the
// Trakt 1-10 integer scale: the value is doubled and rounded to the
// nearest integer, rounding halves up.
//
// An empty input returns 0, meaning unrated; callers must not submit a
// rating write for a 0 result. A non-numeric input returns
// [shared.ErrInvalidRating] and likewise must never be submitted. No upper
// clamp is applied.
func ConvertRating(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", shared.ErrInvalidRating, raw)
	}

	return int(math.Floor(v*2 + 0.5)), nil
}
