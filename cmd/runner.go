package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"boxdsync/internal/engine"
	"boxdsync/internal/shared"
	"boxdsync/internal/store"
	"boxdsync/internal/trakt"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	client *trakt.Client
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Client *trakt.Client
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Client == nil {
		opts.Client = newClient(opts.Config, opts.Logger)
	}

	return &Runner{
		config: opts.Config,
		client: opts.Client,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// newClient builds the Trakt gateway from configuration, applying any
// pacing overrides.
func newClient(config *shared.Config, logger *log.Logger) *trakt.Client {
	return trakt.NewClient(config.Trakt.ClientID, config.Trakt.ClientSecret, trakt.Options{
		BaseURL:       config.Trakt.BaseURL,
		Logger:        logger,
		Interval:      time.Duration(config.Pacing.IntervalMS) * time.Millisecond,
		Cooldown:      time.Duration(config.Pacing.CooldownMS) * time.Millisecond,
		CooldownEvery: config.Pacing.CooldownEvery,
		MaxRetries:    config.Pacing.MaxRetries,
	})
}

// SetLogger replaces the runner's logger, including the gateway's.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, importCommand, checkCommand, syncCommand, statusCommand, clearCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore opens the configured database and returns the record
// repository. The caller closes the database.
func (r *Runner) openStore() (*sql.DB, *store.RecordRepository, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, store.NewRecordRepository(db), nil
}

// ensureAuth installs the saved token on the gateway, refreshing it first
// when expired. Commands that touch the API call this before any traffic.
func (r *Runner) ensureAuth(ctx context.Context) error {
	if r.config.Trakt.ClientID == "" {
		return fmt.Errorf("%w: trakt.client_id is not configured", shared.ErrMissingCredentials)
	}

	tok, err := trakt.LoadToken(r.config.Trakt.TokenPath)
	if err != nil {
		return err
	}

	if !tok.Valid() && tok.RefreshToken != "" {
		r.logger.Info("access token expired, refreshing")
		fresh, err := r.client.OAuthConfig().TokenSource(ctx, tok).Token()
		if err != nil {
			return fmt.Errorf("%w: token refresh failed: %v", shared.ErrTokenExpired, err)
		}
		if err := trakt.SaveToken(r.config.Trakt.TokenPath, fresh); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
		}
		tok = fresh
	}

	r.client.SetToken(tok)
	return nil
}

// newEngine wires the gateway and repository into a sync engine.
func (r *Runner) newEngine(saver engine.RecordSaver) *engine.Engine {
	return engine.New(r.client, saver, shared.WithLogger(r.logger, "component", "engine"))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// hintLogin turns auth errors into an actionable message.
func (r *Runner) hintLogin(err error) error {
	if errors.Is(err, shared.ErrNotAuthenticated) {
		r.writePlain("Not authenticated with Trakt. Run 'boxdsync auth login' first.\n")
	}
	return err
}
