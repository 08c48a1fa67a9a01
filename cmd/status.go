package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/models"
)

// Status summarizes the local store by sync state.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	counts, err := repo.CountByStatus()
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"total":  total,
			"counts": counts,
		}, cmd.Bool("pretty"))
	}

	if total == 0 {
		return r.writePlain("No records imported yet. Run 'boxdsync import <file>' first.\n")
	}

	r.writePlainHeader("Watch Records")
	r.writePlain("Total:             %d\n", total)
	r.writePlain("Unchecked:         %d\n", counts[models.StatusUnchecked.String()])
	r.writePlain("Ready to sync:     %d\n", counts[models.StatusReadyToSync.String()])
	r.writePlain("Already on Trakt:  %d\n", counts[models.StatusAlreadyPresent.String()])
	r.writePlain("Synced:            %d\n", counts[models.StatusSynced.String()])
	r.writePlain("Failed:            %d\n", counts[models.StatusFailed.String()])
	return nil
}

// Clear deletes every imported record after confirmation.
func (r *Runner) Clear(ctx context.Context, cmd *cli.Command) error {
	db, repo, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if !cmd.Bool("force") {
		r.writePlain("This deletes all imported records and their sync state.\n")
		r.writePlain("Re-run with --force to confirm.\n")
		return nil
	}

	if err := repo.Clear(); err != nil {
		return err
	}
	r.logger.Info("store cleared")
	return r.writePlain("✓ All records deleted\n")
}
