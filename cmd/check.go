package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/engine"
)

// Check reconciles every non-synced record against the user's Trakt
// history without writing anything remotely.
func (r *Runner) Check(ctx context.Context, cmd *cli.Command) error {
	if err := r.ensureAuth(ctx); err != nil {
		return r.hintLogin(err)
	}

	db, repo, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := repo.List("")
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No records imported yet. Run 'boxdsync import <file>' first.\n")
	}

	r.writePlain("Checking %d records against Trakt...\n\n", len(records))

	progressCh := make(chan engine.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case engine.RecordChecked, engine.RecordFailed:
				r.writePlain("  %s\n", update.Message)
			}
		}
	}()

	eng := r.newEngine(repo)
	summary, err := eng.CheckAll(ctx, records, progressCh)
	close(progressCh)
	if err != nil {
		return r.hintLogin(err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Check Complete")
	r.writePlain("Ready to sync:    %d\n", summary.Ready)
	r.writePlain("Already on Trakt: %d\n", summary.Present)
	if summary.Errored > 0 {
		r.writePlain("Unchecked (transient errors, re-run check): %d\n", summary.Errored)
	}
	return nil
}
