package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/config"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/sqlite"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "notiontime",
		Short: "Relay Notion task webhooks into Clockify time entries",
		Long: `notiontime receives Notion database webhooks and keeps Clockify in step:
project pages become Clockify projects, and tasks moved to "In progress"
start a Clockify timer.

Running without a subcommand starts the HTTP server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newProjectsCommand())
	return root
}

func newLogger(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openDB opens the configured database and brings its schema up to date.
func openDB(path string) (*sqlite.DB, error) {
	if err := ensureDBDir(path); err != nil {
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func newClockifyClient(cfg config.Config, logger *slog.Logger) *clockify.Client {
	return clockify.New(clockify.Config{
		BaseURL:     cfg.Clockify.BaseURL,
		APIKey:      cfg.Clockify.APIKey,
		WorkspaceID: cfg.Clockify.WorkspaceID,
		Timeout:     cfg.Clockify.Timeout,
	}, clockify.WithLogger(logger))
}

// projectStore opens the database and returns the project service over it.
// The caller closes the returned DB.
func projectStore(cfg config.Config, logger *slog.Logger) (*sqlite.DB, *project.Service, error) {
	db, err := openDB(cfg.DB.Path)
	if err != nil {
		return nil, nil, err
	}
	repo := sqlite.NewProjectRepository(db)
	return db, project.NewService(repo, newClockifyClient(cfg, logger), logger), nil
}
