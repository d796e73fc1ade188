// Package mcp exposes the relay's admin operations as MCP tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
)

// ProjectService defines project operations needed by MCP.
type ProjectService interface {
	Sync(ctx context.Context, req project.SyncRequest) (*project.SyncResult, error)
	List(ctx context.Context) ([]project.Mapping, error)
	Delete(ctx context.Context, id int64) (*project.Mapping, error)
}

// TrackingService defines tracking operations needed by MCP.
type TrackingService interface {
	Active() []tracking.ActiveEntry
	StopAll(ctx context.Context) (int, error)
}

// Config contains server configuration.
type Config struct {
	Projects ProjectService
	Tracking TrackingService
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "notiontime",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(requestMiddleware())
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg)

	return server
}

// NewHTTPHandler serves the server over stateless streamable HTTP.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, &sdkmcp.StreamableHTTPOptions{Stateless: true, JSONResponse: true})
}
