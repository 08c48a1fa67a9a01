package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"boxdsync/internal/shared"
	"boxdsync/internal/ui"
)

// TUI launches the interactive record picker.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
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

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := filepath.Join(os.TempDir(), "boxdsync-tui.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	r.SetLogger(shared.NewLogger(logFile))

	model := ui.NewModel(ctx, r.newEngine(repo), records)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
