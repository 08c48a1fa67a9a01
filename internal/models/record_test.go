package models

import (
	"errors"
	"testing"
)

func TestSyncStatusRoundTrip(t *testing.T) {
	statuses := []SyncStatus{
		StatusUnchecked,
		StatusReadyToSync,
		StatusAlreadyPresent,
		StatusSynced,
		StatusFailed,
	}

	for _, status := range statuses {
		t.Run(status.String(), func(t *testing.T) {
			parsed, err := ParseSyncStatus(status.String())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed != status {
				t.Errorf("round trip changed status: %v -> %v", status, parsed)
			}
		})
	}

	if _, err := ParseSyncStatus("limbo"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestResetCheck(t *testing.T) {
	rec := &WatchRecord{Title: "Heat", Year: 1995, Status: StatusFailed, LastError: "boom"}
	rec.ResetCheck()
	if rec.Status != StatusUnchecked || rec.LastError != "" {
		t.Errorf("expected clean unchecked record, got %+v", rec)
	}

	synced := &WatchRecord{Title: "Heat", Year: 1995, Status: StatusSynced}
	synced.ResetCheck()
	if synced.Status != StatusSynced {
		t.Error("synced records must survive a reset")
	}
}

func TestMarkFailed(t *testing.T) {
	rec := &WatchRecord{Title: "Heat", Year: 1995, Status: StatusReadyToSync}
	rec.MarkFailed(errors.New("write rejected"))
	if rec.Status != StatusFailed {
		t.Errorf("expected failed, got %v", rec.Status)
	}
	if rec.LastError != "write rejected" {
		t.Errorf("expected cause on record, got %q", rec.LastError)
	}
}

func TestRecordKey(t *testing.T) {
	a := &WatchRecord{Title: "Solaris", Year: 1972}
	b := &WatchRecord{Title: "Solaris", Year: 2002}
	if a.Key() == b.Key() {
		t.Error("remakes must not collide")
	}
	if a.Key() != (&WatchRecord{Title: "Solaris", Year: 1972}).Key() {
		t.Error("identical title and year must share a key")
	}
}
