package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/importer"
	"boxdsync/internal/shared"
)

// Import loads a Letterboxd CSV export into the local store.
//
// Records already present (same title and year) are left untouched unless
// --replace clears the store first.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path to a CSV export is required", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	records, err := importer.ParseCSV(f)
	if err != nil {
		return err
	}
	r.logger.Info("parsed export", "path", path, "records", len(records))

	db, repo, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.Bool("replace") {
		r.logger.Info("clearing existing records")
		if err := repo.Clear(); err != nil {
			return err
		}
	}

	created, skipped := 0, 0
	for _, rec := range records {
		if _, err := repo.GetByKey(rec.Title, rec.Year); err == nil {
			skipped++
			continue
		}
		if err := repo.Create(rec); err != nil {
			return fmt.Errorf("failed to store %q: %w", rec.Title, err)
		}
		created++
	}

	r.writePlain("✓ Imported %d records", created)
	if skipped > 0 {
		r.writePlain(" (%d already present)", skipped)
	}
	r.writePlain("\n")
	return nil
}
