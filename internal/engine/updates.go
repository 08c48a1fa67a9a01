package engine

import (
	"fmt"

	"boxdsync/internal/models"
)

// ProgressUpdate represents a progress event during a long-running pass.
//
// Used to send real-time updates to the CLI or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current record number within the pass
	Total   int    // Total records in the pass
	Message string // Human-readable message for display
	Record  *models.WatchRecord
}

// Operation phase enumeration
type Phase int

const (
	CheckRecord Phase = iota
	RecordChecked
	SubmitRecord
	RecordSynced
	RecordSkipped
	RecordFailed
)

func (p Phase) String() string {
	switch p {
	case CheckRecord:
		return "check_record"
	case RecordChecked:
		return "record_checked"
	case SubmitRecord:
		return "submit_record"
	case RecordSynced:
		return "record_synced"
	case RecordSkipped:
		return "record_skipped"
	case RecordFailed:
		return "record_failed"
	default:
		return ""
	}
}

func checkingUpdate(step, total int, rec *models.WatchRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckRecord,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking %s (%d)...", step, total, rec.Title, rec.Year),
		Record:  rec,
	}
}

func checkedUpdate(step, total int, rec *models.WatchRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordChecked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d): %s", step, total, rec.Title, rec.Year, rec.Status),
		Record:  rec,
	}
}

func checkErrorUpdate(step, total int, rec *models.WatchRecord, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordChecked,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%d): check failed, will retry: %v", step, total, rec.Title, rec.Year, err),
		Record:  rec,
	}
}

func submittingUpdate(step, total int, rec *models.WatchRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitRecord,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Submitting %s (%d)...", step, total, rec.Title, rec.Year),
		Record:  rec,
	}
}

func syncedUpdate(step, total int, rec *models.WatchRecord) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordSynced,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d)", step, total, rec.Title, rec.Year),
		Record:  rec,
	}
}

func skippedUpdate(step, total int, rec *models.WatchRecord, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordSkipped,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] — %s (%d): %s", step, total, rec.Title, rec.Year, reason),
		Record:  rec,
	}
}

func failedUpdate(step, total int, rec *models.WatchRecord, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordFailed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s (%d): %v", step, total, rec.Title, rec.Year, err),
		Record:  rec,
	}
}
