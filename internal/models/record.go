package models

import (
	"fmt"
	"time"
)

// SyncStatus is the per-record sync state machine.
type SyncStatus int

const (
	StatusUnchecked SyncStatus = iota // imported, not yet reconciled
	StatusReadyToSync                 // missing remotely, or a rewatch
	StatusAlreadyPresent              // remote history has the same calendar day
	StatusSynced                      // submitted successfully; never re-submitted
	StatusFailed                      // a write attempt failed; see LastError
)

func (s SyncStatus) String() string {
	switch s {
	case StatusUnchecked:
		return "unchecked"
	case StatusReadyToSync:
		return "ready"
	case StatusAlreadyPresent:
		return "present"
	case StatusSynced:
		return "synced"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ParseSyncStatus converts the persisted string form back to a [SyncStatus].
func ParseSyncStatus(raw string) (SyncStatus, error) {
	switch raw {
	case "unchecked":
		return StatusUnchecked, nil
	case "ready":
		return StatusReadyToSync, nil
	case "present":
		return StatusAlreadyPresent, nil
	case "synced":
		return StatusSynced, nil
	case "failed":
		return StatusFailed, nil
	default:
		return StatusUnchecked, fmt.Errorf("unknown sync status %q", raw)
	}
}

// WatchRecord represents one imported watch-history entry.
//
// Title and Year come from the export and identify the movie remotely;
// duplicates with identical title/year collapse at import time. Rating and
// WatchedDate keep the export's raw text so parse failures surface per
// record during a sync pass rather than at import.
type WatchRecord struct {
	ID          string
	Sequence    int
	Title       string
	Year        int
	Rating      string // source scale 0-5, fractional, may be empty
	WatchedDate string // raw date text from the export, may be empty

	RemoteRating    *int       // rating already on the remote service
	RemoteWatchedAt *time.Time // most recent remote history entry

	Status    SyncStatus
	LastError string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the (title, year) composite identity used for collapsing
// duplicates at import time.
func (r *WatchRecord) Key() string {
	return fmt.Sprintf("%s|%d", r.Title, r.Year)
}

// Validate checks the fields every record must carry.
func (r *WatchRecord) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("record has no ID")
	}
	if r.Title == "" {
		return fmt.Errorf("record has no title")
	}
	return nil
}

// ResetCheck reverts a record to Unchecked ahead of a new check pass,
// clearing any previous failure. Synced records are left alone.
func (r *WatchRecord) ResetCheck() {
	if r.Status == StatusSynced {
		return
	}
	r.Status = StatusUnchecked
	r.LastError = ""
}

// MarkFailed records a write failure with its human-readable cause.
func (r *WatchRecord) MarkFailed(err error) {
	r.Status = StatusFailed
	if err != nil {
		r.LastError = err.Error()
	}
}
