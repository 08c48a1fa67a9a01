package trakt

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"boxdsync/internal/shared"
	"golang.org/x/oauth2"
)

// ExpandTokenPath resolves a leading ~ in a configured token path.
func ExpandTokenPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}

// SaveToken writes the OAuth token to disk, creating parent directories.
// The file is user-readable only.
func SaveToken(path string, tok *oauth2.Token) error {
	path, err := ExpandTokenPath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// LoadToken reads a previously saved OAuth token. A missing file maps to
// [shared.ErrNotAuthenticated].
func LoadToken(path string) (*oauth2.Token, error) {
	path, err := ExpandTokenPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no saved token at %s", shared.ErrNotAuthenticated, path)
		}
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}
	return &tok, nil
}
