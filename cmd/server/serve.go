package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/notiontime/internal/config"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
	"github.com/rpggio/notiontime/internal/mcp"
	"github.com/rpggio/notiontime/internal/sqlite"
	"github.com/rpggio/notiontime/internal/transport"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg.DB.Path)
			if err != nil {
				return err
			}
			defer db.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database ready at %s\n", cfg.DB.Path)
			return nil
		},
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := newLogger(cmd.OutOrStdout(), cfg.Log.Level)

	db, err := openDB(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return err
	}
	defer db.Close()

	handler, err := buildHandler(cmd.Context(), cfg, db, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr(), "version", version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
		return nil
	case <-cmd.Context().Done():
	}
	return waitForShutdown(logger, httpServer)
}

// buildHandler wires storage, the Clockify client, the domain services and
// both the webhook and MCP surfaces into one router.
func buildHandler(ctx context.Context, cfg config.Config, db *sqlite.DB, logger *slog.Logger) (http.Handler, error) {
	clockifyClient := newClockifyClient(cfg, logger)

	projectSvc := project.NewService(sqlite.NewProjectRepository(db), clockifyClient, logger)
	mappings, err := projectSvc.Mappings(ctx)
	if err != nil {
		logger.Error("failed to load project mappings", "error", err)
		return nil, err
	}
	logger.Info("project mappings loaded", "count", len(mappings))

	engine := tracking.NewEngine(projectSvc, clockifyClient, tracking.Options{
		AutoCreateProjects: cfg.Tracking.AutoCreateProjects,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{
		Projects: projectSvc,
		Tracking: engine,
		Version:  version,
		Logger:   logger,
	})

	return transport.NewServer(transport.Config{
		Projects: projectSvc,
		Tasks:    engine,
		Secret:   cfg.Notion.WebhookSecret,
		MCP:      mcp.NewHTTPHandler(mcpServer),
		Logger:   logger,
	}), nil
}

func waitForShutdown(logger *slog.Logger, server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return nil
}
