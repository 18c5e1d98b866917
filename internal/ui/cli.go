// Package ui implements the weekgrid command line. Every command that changes
// the calendar runs through the same drag and drop coordinator the TUI uses.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekgrid/internal/config"
	"github.com/javiermolinar/weekgrid/internal/db"
	"github.com/javiermolinar/weekgrid/internal/logging"
	"github.com/javiermolinar/weekgrid/internal/tui"
	"github.com/javiermolinar/weekgrid/internal/workspace"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	store  workspace.Store
	ws     *workspace.Workspace
	log    *logging.Logger
	out    io.Writer
	now    func() time.Time
	root   *cobra.Command

	debug   bool // Enable debug logging
	noColor bool
}

// AppOption configures the application.
type AppOption func(*App)

// WithStore uses an already opened store instead of the configured database.
func WithStore(s workspace.Store) AppOption {
	return func(a *App) {
		a.store = s
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) AppOption {
	return func(a *App) {
		a.out = w
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) AppOption {
	return func(a *App) {
		a.now = now
	}
}

// NewApp creates a new CLI application with the given config.
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	a := &App{config: cfg, out: os.Stdout, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}

	a.root = &cobra.Command{
		Use:   "weekgrid",
		Short: "Drag work onto a weekly calendar",
		Long: `Weekgrid keeps projects, tasks and routines in a side list and lets you
drag them onto a seven-day grid running from 05:00 to midnight.

Run without a command to open the interactive grid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor || noColorRequested() {
				DisableColor()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The TUI owns the terminal, so logs only go to the file.
			ws, err := a.workspace(cmd.Context(), nil)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), ws, a.config, a.log.Logger)
		},
	}

	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.projectCmd())
	a.root.AddCommand(a.taskCmd())
	a.root.AddCommand(a.routineCmd())
	a.root.AddCommand(a.weekCmd())
	a.root.AddCommand(a.placeCmd())
	a.root.AddCommand(a.moveCmd())
	a.root.AddCommand(a.unscheduleCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(a.out, "weekgrid %s (commit: %s)\n", Version, Commit)
		},
	}
}

// workspace opens the logger, the store and the workspace on first use.
// console receives log output besides the log file; nil keeps it file-only.
func (a *App) workspace(ctx context.Context, console io.Writer) (*workspace.Workspace, error) {
	if a.ws != nil {
		return a.ws, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if a.log == nil {
		logCfg := a.config.Log
		if a.debug {
			logCfg.Level = zerolog.LevelDebugValue
		}
		l, err := logging.New(logCfg, console)
		if err != nil {
			return nil, err
		}
		a.log = l
	}

	if a.store == nil {
		path := a.config.Storage.DBPath
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		store, err := db.New(path)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	ws, err := workspace.Open(ctx, a.store,
		workspace.WithLogger(a.log.Logger),
		workspace.WithRetention(a.config.Retention()),
		workspace.WithClock(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("opening workspace: %w", err)
	}
	a.ws = ws
	a.log.Debug().Str("db", a.config.Storage.DBPath).Msg("workspace opened")
	return ws, nil
}

// open is the workspace for plain commands. With --debug they also log to
// stderr.
func (a *App) open(cmd *cobra.Command) (*workspace.Workspace, error) {
	if a.debug {
		return a.workspace(cmd.Context(), cmd.ErrOrStderr())
	}
	return a.workspace(cmd.Context(), nil)
}

// SetArgs overrides the command line arguments.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// ExecuteContext runs the CLI application with ctx.
func (a *App) ExecuteContext(ctx context.Context) error {
	return a.root.ExecuteContext(ctx)
}

// Close releases the store and the log file.
func (a *App) Close() error {
	var err error
	if a.store != nil {
		err = a.store.Close()
		a.store = nil
		a.ws = nil
	}
	if a.log != nil {
		if cerr := a.log.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
