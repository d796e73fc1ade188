// Package testserver runs the full relay against a fake Clockify API and a
// private in-memory database.
package testserver

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/notiontime/internal/clockify/clockifytest"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
	"github.com/rpggio/notiontime/internal/mcp"
	"github.com/rpggio/notiontime/internal/sqlite"
	"github.com/rpggio/notiontime/internal/transport"
)

// Secret is the webhook secret the test server accepts.
const Secret = "test-secret"

type Options struct {
	AutoCreateProjects bool
}

type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Clockify *clockifytest.Server
	Projects *project.Service
	Engine   *tracking.Engine
}

func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	logger := slog.New(slog.NewTextHandler(t.Output(), &slog.HandlerOptions{Level: slog.LevelDebug}))

	fake := clockifytest.New(t)
	client := fake.Client()

	projectSvc := project.NewService(sqlite.NewProjectRepository(db), client, logger)
	engine := tracking.NewEngine(projectSvc, client, tracking.Options{
		AutoCreateProjects: opts.AutoCreateProjects,
	}, logger)

	mcpServer := mcp.NewServer(mcp.Config{Projects: projectSvc, Tracking: engine, Logger: logger})
	server := httptest.NewServer(transport.NewServer(transport.Config{
		Projects: projectSvc,
		Tasks:    engine,
		Secret:   Secret,
		MCP:      mcp.NewHTTPHandler(mcpServer),
		Logger:   logger,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Clockify: fake,
		Projects: projectSvc,
		Engine:   engine,
	}
}

// Do sends a request with the webhook secret and returns the status and body.
func (ts *TestServer) Do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set(transport.SecretHeader, Secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}
