package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/models"
	"boxdsync/internal/shared"
	"boxdsync/internal/trakt"
)

func writeFile(t *testing.T, path, content string) error {
	t.Helper()
	return os.WriteFile(path, []byte(content), 0644)
}

func testRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	config := shared.DefaultConfig()
	config.Database.Path = filepath.Join(t.TempDir(), "test.db")
	config.Trakt.TokenPath = filepath.Join(t.TempDir(), "token.json")

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: shared.NewLogger(output),
		Output: output,
	})
	return runner, output
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			client := trakt.NewClient("id", "secret", trakt.Options{})

			runner := NewRunner(RunnerOpts{
				Config: config,
				Client: client,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.client != client {
				t.Error("expected client to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.client == nil {
				t.Error("expected a client built from config")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})
	})

	t.Run("register returns all commands", func(t *testing.T) {
		runner, _ := testRunner(t)
		commands := runner.register()

		names := map[string]bool{}
		for _, cmd := range commands {
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "import", "check", "sync", "status", "clear", "tui"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		runner, output := testRunner(t)

		if err := runner.writeJSON(map[string]int{"total": 3}, false); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := output.String(); !strings.Contains(got, `"total":3`) {
			t.Errorf("unexpected output: %q", got)
		}
	})

	t.Run("openStore runs migrations", func(t *testing.T) {
		runner, _ := testRunner(t)

		db, repo, err := runner.openStore()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer db.Close()

		if err := repo.Create(&models.WatchRecord{Title: "Heat", Year: 1995}); err != nil {
			t.Errorf("store not usable after open: %v", err)
		}
	})
}

func TestStatusCommand(t *testing.T) {
	runner, output := testRunner(t)

	db, repo, err := runner.openStore()
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	rec := &models.WatchRecord{Title: "Heat", Year: 1995}
	if err := repo.Create(rec); err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	rec.Status = models.StatusSynced
	if err := repo.Save(rec); err != nil {
		t.Fatalf("failed to save record: %v", err)
	}
	db.Close()

	app := &cli.Command{Commands: runner.register()}
	if err := app.Run(context.Background(), []string{"boxdsync", "status"}); err != nil {
		t.Fatalf("status failed: %v", err)
	}

	got := output.String()
	if !strings.Contains(got, "Total:") || !strings.Contains(got, "Synced:") {
		t.Errorf("expected status summary in output, got %q", got)
	}
}

func TestImportCommand(t *testing.T) {
	runner, output := testRunner(t)

	csvPath := filepath.Join(t.TempDir(), "diary.csv")
	csv := "Date,Name,Year,Rating,Watched Date\n2023-01-02,Heat,1995,4.5,2023-01-01\n"
	if err := writeFile(t, csvPath, csv); err != nil {
		t.Fatal(err)
	}

	app := &cli.Command{Commands: runner.register()}
	if err := app.Run(context.Background(), []string{"boxdsync", "import", csvPath}); err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(output.String(), "Imported 1 records") {
		t.Errorf("unexpected output: %q", output.String())
	}

	// A second import of the same file stores nothing new.
	output.Reset()
	if err := app.Run(context.Background(), []string{"boxdsync", "import", csvPath}); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if !strings.Contains(output.String(), "Imported 0 records") {
		t.Errorf("expected duplicate import to skip, got %q", output.String())
	}
}

func TestCheckRequiresAuth(t *testing.T) {
	runner, _ := testRunner(t)
	runner.config.Trakt.ClientID = "cid"

	app := &cli.Command{Commands: runner.register()}
	err := app.Run(context.Background(), []string{"boxdsync", "check"})
	if err == nil {
		t.Fatal("expected auth error without a saved token")
	}
}
