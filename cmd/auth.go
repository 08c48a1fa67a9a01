package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"boxdsync/internal/shared"
	"boxdsync/internal/trakt"
)

// AuthLogin runs the Trakt device-code flow and saves the resulting token.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if r.config.Trakt.ClientID == "" || r.config.Trakt.ClientSecret == "" {
		return fmt.Errorf("%w: set trakt.client_id and trakt.client_secret in config.toml", shared.ErrMissingCredentials)
	}

	r.logger.Info("requesting device code")
	dc, err := r.client.GetDeviceCode(ctx)
	if err != nil {
		return err
	}

	r.writePlainHeader("Trakt Authorization")
	r.writePlain("Visit:  %s\n", dc.VerificationURL)
	r.writePlain("Enter:  %s\n\n", dc.UserCode)
	r.writePlain("Waiting for approval (expires in %d minutes)...\n", dc.ExpiresIn/60)

	tok, err := r.client.WaitForDeviceToken(ctx, dc)
	if err != nil {
		return err
	}

	if err := trakt.SaveToken(r.config.Trakt.TokenPath, tok); err != nil {
		return err
	}
	r.client.SetToken(tok)

	r.logger.Info("authentication successful")
	return r.writePlain("✓ Authenticated with Trakt\n")
}

// AuthStatus reports whether a usable token is saved and when it expires.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	tok, err := trakt.LoadToken(r.config.Trakt.TokenPath)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return r.writePlain("✗ Not authenticated\nRun 'boxdsync auth login' to connect your Trakt account.\n")
		}
		return err
	}

	r.writePlain("✓ Token saved\n")
	if tok.Expiry.IsZero() {
		r.writePlain("Expiry: unknown\n")
	} else if tok.Valid() {
		r.writePlain("Expires: %s\n", tok.Expiry.Format("2006-01-02 15:04 MST"))
	} else if tok.RefreshToken != "" {
		r.writePlain("Token expired; it will be refreshed on the next run.\n")
	} else {
		r.writePlain("Token expired with no refresh token. Run 'boxdsync auth login' again.\n")
	}
	return nil
}

// AuthLogout removes the saved token.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	path, err := trakt.ExpandTokenPath(r.config.Trakt.TokenPath)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return r.writePlain("No saved token.\n")
		}
		return fmt.Errorf("failed to remove token file: %w", err)
	}

	r.logger.Info("token removed", "path", path)
	return r.writePlain("✓ Logged out\n")
}
