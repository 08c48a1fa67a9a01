package trakt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"boxdsync/internal/shared"
	"golang.org/x/oauth2"
)

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	tok := &oauth2.Token{
		AccessToken:  "at",
		RefreshToken: "rt",
		TokenType:    "bearer",
		Expiry:       time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("failed to save token: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("token file missing: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected 0600 permissions, got %o", perm)
	}

	loaded, err := LoadToken(path)
	if err != nil {
		t.Fatalf("failed to load token: %v", err)
	}
	if loaded.AccessToken != "at" || loaded.RefreshToken != "rt" {
		t.Errorf("token did not round-trip: %+v", loaded)
	}
	if !loaded.Expiry.Equal(tok.Expiry) {
		t.Errorf("expiry did not round-trip: %v", loaded.Expiry)
	}
}

func TestLoadTokenMissingFile(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestExpandTokenPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	got, err := ExpandTokenPath("~/.boxdsync/token.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != filepath.Join(home, ".boxdsync", "token.json") {
		t.Errorf("unexpected expansion: %s", got)
	}

	plain := filepath.Join(os.TempDir(), "token.json")
	got, err = ExpandTokenPath(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != plain {
		t.Errorf("absolute path should pass through, got %s", got)
	}
}
