// Package importer reads Letterboxd CSV exports into watch records.
//
// The diary and ratings exports share a header-driven layout (Date, Name,
// Year, Rating, Watched Date, ...), so columns are resolved by header name
// rather than position. Rows for the same title and year are collapsed,
// keeping the later row, so re-importing an updated export is safe.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"boxdsync/internal/models"
	"boxdsync/internal/shared"
)

// column headers recognized in Letterboxd exports, lowercased.
const (
	headerName        = "name"
	headerTitle       = "title"
	headerYear        = "year"
	headerRating      = "rating"
	headerWatchedDate = "watched date"
	headerDate        = "date"
)

// ParseCSV reads a Letterboxd export and returns records in file order,
// with later duplicates replacing earlier ones in place.
func ParseCSV(r io.Reader) ([]*models.WatchRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	cols := indexColumns(header)
	if _, ok := cols[headerName]; !ok {
		if _, ok := cols[headerTitle]; !ok {
			return nil, fmt.Errorf("%w: no title column found", shared.ErrInvalidInput)
		}
	}

	var records []*models.WatchRecord
	seen := map[string]int{}
	line := 1

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}

		rec, err := rowToRecord(cols, row)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}
		if rec == nil {
			continue
		}

		if prev, ok := seen[rec.Key()]; ok {
			records[prev] = rec
			continue
		}
		seen[rec.Key()] = len(records)
		records = append(records, rec)
	}

	return records, nil
}

// indexColumns maps lowercased header names to their positions.
func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

// rowToRecord converts one CSV row. Rows without a title are skipped
// rather than treated as errors; exports sometimes carry trailing blanks.
func rowToRecord(cols map[string]int, row []string) (*models.WatchRecord, error) {
	title := field(cols, row, headerName)
	if title == "" {
		title = field(cols, row, headerTitle)
	}
	if title == "" {
		return nil, nil
	}

	rec := &models.WatchRecord{
		Title:  title,
		Rating: field(cols, row, headerRating),
		Status: models.StatusUnchecked,
	}

	if raw := field(cols, row, headerYear); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("bad year %q", raw)
		}
		rec.Year = year
	}

	// Diary exports carry both Date (logged) and Watched Date; the
	// watched date is the one that matters for history.
	watched := field(cols, row, headerWatchedDate)
	if watched == "" {
		watched = field(cols, row, headerDate)
	}
	if watched != "" {
		if _, err := models.ParseWatchedDate(watched); err != nil {
			return nil, fmt.Errorf("bad watched date %q", watched)
		}
		rec.WatchedDate = watched
	}

	return rec, nil
}

func field(cols map[string]int, row []string, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
