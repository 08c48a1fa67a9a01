package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"boxdsync/internal/models"
	"boxdsync/internal/shared"
	"boxdsync/internal/trakt"
	"github.com/charmbracelet/log"
)

// Gateway defines the remote calls the engine needs.
// This abstraction allows for easier testing and decoupling from the
// concrete Trakt client.
type Gateway interface {
	SearchMovie(ctx context.Context, title string, year int) ([]trakt.SearchResult, error)
	MovieHistory(ctx context.Context, traktID int) ([]trakt.HistoryEntry, error)
	AddToHistory(ctx context.Context, movies []trakt.HistoryMovie) (*trakt.SyncResult, error)
	AddRatings(ctx context.Context, movies []trakt.RatingMovie) (*trakt.SyncResult, error)
}

// RecordSaver persists a record's state after each status change.
// A nil saver is allowed; the pass then runs purely in memory.
type RecordSaver interface {
	Save(rec *models.WatchRecord) error
}

// Classification is the outcome of reconciling one record against the
// remote state. The trakt identifier is transient: a title/year pair may
// resolve differently on a later pass, so it is never cached on the record.
type Classification struct {
	Status          models.SyncStatus
	TraktID         int
	RemoteWatchedAt *time.Time
}

// CheckSummary aggregates one check pass.
type CheckSummary struct {
	Total   int
	Ready   int
	Present int
	Errored int // left Unchecked after a transient failure
}

// SyncSummary aggregates one sync pass.
type SyncSummary struct {
	Total   int
	Synced  int
	Skipped int
	Failed  int
}

// Engine reconciles local watch records against Trakt and drives bulk
// submission. All remote traffic flows through the gateway, which owns
// pacing; the engine is strictly sequential.
type Engine struct {
	gw     Gateway
	saver  RecordSaver
	logger *log.Logger
}

// New creates an Engine. saver may be nil.
func New(gw Gateway, saver RecordSaver, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Engine{gw: gw, saver: saver, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls a pass.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Classify determines one record's remote status without mutating remote
// state. On success the record's Status and RemoteWatchedAt are updated in
// place. A transport or decode failure leaves the record Unchecked and
// returns the error for logging; the record is simply retried on the next
// pass. Only a missing credential is fatal to the caller.
func (e *Engine) Classify(ctx context.Context, rec *models.WatchRecord) (Classification, error) {
	none := Classification{Status: models.StatusUnchecked}

	results, err := e.gw.SearchMovie(ctx, rec.Title, rec.Year)
	if err != nil {
		return none, err
	}

	match := firstMovie(results)
	if match == nil {
		rec.Status = models.StatusReadyToSync
		rec.RemoteWatchedAt = nil
		return Classification{Status: models.StatusReadyToSync}, nil
	}

	entries, err := e.gw.MovieHistory(ctx, match.IDs.Trakt)
	if err != nil {
		return none, err
	}

	cls := Classification{Status: models.StatusReadyToSync, TraktID: match.IDs.Trakt}
	if len(entries) > 0 {
		// Most recent entry first; kept for display either way.
		watched := entries[0].WatchedAt
		cls.RemoteWatchedAt = &watched

		if rec.WatchedDate == "" {
			// Nothing to distinguish the local event from the remote one.
			cls.Status = models.StatusAlreadyPresent
		} else {
			local, err := models.ParseWatchedDate(rec.WatchedDate)
			if err != nil {
				return none, err
			}
			if models.SameCalendarDay(local, watched) {
				cls.Status = models.StatusAlreadyPresent
			}
			// Differing days are a rewatch: a distinct viewing, ready to sync.
		}
	}

	rec.Status = cls.Status
	rec.RemoteWatchedAt = cls.RemoteWatchedAt
	return cls, nil
}

// CheckAll runs a check pass over records in order. Failed records revert
// to Unchecked before classification so a re-check never requires a manual
// reset. Transient failures leave the record Unchecked and the pass moves
// on; a missing credential aborts the whole pass. Cancellation is checked
// before each record.
func (e *Engine) CheckAll(ctx context.Context, records []*models.WatchRecord, progress chan<- ProgressUpdate) (*CheckSummary, error) {
	if e.gw == nil {
		return nil, fmt.Errorf("%w: gateway not initialized", shared.ErrNotAuthenticated)
	}

	summary := &CheckSummary{Total: len(records)}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if rec.Status == models.StatusSynced {
			e.sendProgress(progress, skippedUpdate(i+1, len(records), rec, "already synced"))
			continue
		}

		rec.ResetCheck()
		e.sendProgress(progress, checkingUpdate(i+1, len(records), rec))

		cls, err := e.Classify(ctx, rec)
		if err != nil {
			if errors.Is(err, shared.ErrNotAuthenticated) {
				return summary, err
			}
			if errors.Is(err, shared.ErrBadWatchedDate) {
				// Bad local data will not fix itself on retry.
				rec.MarkFailed(err)
				e.persist(rec)
				e.sendProgress(progress, failedUpdate(i+1, len(records), rec, err))
				continue
			}
			summary.Errored++
			e.logger.Warn("check failed, record left unchecked", "title", rec.Title, "year", rec.Year, "error", err)
			e.sendProgress(progress, checkErrorUpdate(i+1, len(records), rec, err))
			continue
		}

		switch cls.Status {
		case models.StatusReadyToSync:
			summary.Ready++
		case models.StatusAlreadyPresent:
			summary.Present++
		}

		e.persist(rec)
		e.sendProgress(progress, checkedUpdate(i+1, len(records), rec))
	}

	return summary, nil
}

// SyncAll submits the selected records in order. Records already Synced
// are skipped unconditionally, so re-invoking the pass resumes from the
// first non-Synced record with zero additional writes for completed ones.
//
// Per record: the remote identifier is resolved fresh, the watched date
// (when present) becomes a history-add at that day's midnight UTC, and a
// non-zero converted rating becomes a ratings-add sharing the same
// timestamp. A history-add failure marks the record Failed and skips its
// rating write, but the pass continues. Only cancellation or a lost
// credential halts the pass early, and cancellation only lands between
// records: the record in flight always finishes both of its writes.
func (e *Engine) SyncAll(ctx context.Context, records []*models.WatchRecord, progress chan<- ProgressUpdate) (*SyncSummary, error) {
	if e.gw == nil {
		return nil, fmt.Errorf("%w: gateway not initialized", shared.ErrNotAuthenticated)
	}

	summary := &SyncSummary{Total: len(records)}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if rec.Status == models.StatusSynced {
			summary.Skipped++
			e.sendProgress(progress, skippedUpdate(i+1, len(records), rec, "already synced"))
			continue
		}

		e.sendProgress(progress, submittingUpdate(i+1, len(records), rec))

		// The in-flight record is shielded from the pass cancellation so
		// its history and rating writes always land or fail together.
		// Cancellation takes effect at the next loop iteration.
		err := e.syncOne(context.WithoutCancel(ctx), rec)
		e.persist(rec)

		switch {
		case err == nil:
			summary.Synced++
			e.sendProgress(progress, syncedUpdate(i+1, len(records), rec))
		case errors.Is(err, shared.ErrNotAuthenticated):
			summary.Failed++
			e.sendProgress(progress, failedUpdate(i+1, len(records), rec, err))
			return summary, err
		default:
			summary.Failed++
			e.sendProgress(progress, failedUpdate(i+1, len(records), rec, err))
		}
	}

	return summary, nil
}

// syncOne performs the writes for a single record and sets its final
// status. The returned error mirrors rec.LastError for the caller.
func (e *Engine) syncOne(ctx context.Context, rec *models.WatchRecord) error {
	rating, ratingErr := models.ConvertRating(rec.Rating)
	if ratingErr != nil {
		// Malformed rating means "no rating", never a zero submission.
		rating = 0
	}

	if rec.WatchedDate == "" && rating <= 0 {
		// Nothing to write; the record is still settled.
		rec.Status = models.StatusSynced
		rec.LastError = ""
		return nil
	}

	cls, err := e.Classify(ctx, rec)
	if err != nil {
		rec.MarkFailed(err)
		return err
	}
	if cls.TraktID == 0 {
		err := fmt.Errorf("%w: no match for %q (%d)", shared.ErrNotFound, rec.Title, rec.Year)
		rec.MarkFailed(err)
		return err
	}

	ids := trakt.IDs{Trakt: cls.TraktID}
	var timestamp string

	if rec.WatchedDate != "" {
		watched, err := models.ParseWatchedDate(rec.WatchedDate)
		if err != nil {
			rec.MarkFailed(err)
			return err
		}
		timestamp = models.WatchedTimestamp(watched)

		if _, err := e.gw.AddToHistory(ctx, []trakt.HistoryMovie{{WatchedAt: timestamp, IDs: ids}}); err != nil {
			rec.MarkFailed(err)
			return err
		}
	}

	if rating > 0 {
		if _, err := e.gw.AddRatings(ctx, []trakt.RatingMovie{{Rating: rating, RatedAt: timestamp, IDs: ids}}); err != nil {
			rec.MarkFailed(err)
			return err
		}
		rec.RemoteRating = &rating
	}

	rec.Status = models.StatusSynced
	rec.LastError = ""
	return nil
}

func (e *Engine) persist(rec *models.WatchRecord) {
	if e.saver == nil {
		return
	}
	if err := e.saver.Save(rec); err != nil {
		e.logger.Warn("failed to persist record state", "title", rec.Title, "error", err)
	}
}

func firstMovie(results []trakt.SearchResult) *trakt.Movie {
	for _, r := range results {
		if r.Movie != nil {
			// The remote relevance ranking is trusted; no local re-ranking.
			return r.Movie
		}
	}
	return nil
}
