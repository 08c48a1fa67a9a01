package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/engine"
	"boxdsync/internal/models"
)

// Sync submits records to Trakt in import order.
//
// By default only records known to be missing remotely (ready or failed
// on a previous run, plus anything unchecked) are submitted; --all also
// re-submits records already present on Trakt as rewatches. Records
// marked synced are always skipped, so an interrupted run resumes where
// it stopped.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuth(ctx); err != nil {
		return r.hintLogin(err)
	}

	db, repo, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := repo.List("")
	if err != nil {
		return err
	}

	var targets []*models.WatchRecord
	for _, rec := range all {
		if rec.Status == models.StatusAlreadyPresent && !cmd.Bool("all") {
			continue
		}
		targets = append(targets, rec)
	}
	if len(targets) == 0 {
		return r.writePlain("Nothing to sync.\n")
	}

	r.writePlain("Syncing %d records to Trakt...\n\n", len(targets))

	progressCh := make(chan engine.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case engine.RecordSynced, engine.RecordSkipped, engine.RecordFailed:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	eng := r.newEngine(repo)
	summary, err := eng.SyncAll(ctx, targets, progressCh)
	close(progressCh)
	if err != nil {
		if summary != nil {
			r.writePlain("\nStopped after %d of %d records.\n", summary.Synced+summary.Skipped+summary.Failed, summary.Total)
		}
		return r.hintLogin(err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Synced:  %d\n", summary.Synced)
	r.writePlain("Skipped: %d\n", summary.Skipped)
	r.writePlain("Failed:  %d\n", summary.Failed)

	if summary.Failed > 0 {
		r.writePlain("\nFailed records:\n")
		for _, rec := range targets {
			if rec.Status == models.StatusFailed {
				r.writePlain("  - %s (%d): %s\n", rec.Title, rec.Year, rec.LastError)
			}
		}
		r.writePlain("\nRe-run 'boxdsync sync' to retry failed records.\n")
	}
	return nil
}
