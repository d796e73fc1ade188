package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NOTIONTIME_CONFIG_PATH", "NOTIONTIME_SERVER_HOST", "NOTIONTIME_SERVER_PORT", "PORT",
		"NOTIONTIME_DB_PATH", "NOTIONTIME_LOG_LEVEL", "VERBOSE",
		"CLOCKIFY_BASE_URL", "CLOCKIFY_API_KEY", "CLOCKIFY_WORKSPACE_ID", "CLOCKIFY_TIMEOUT",
		"NOTION_WEBHOOK_SECRET", "NOTIONTIME_AUTO_CREATE_PROJECTS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:3000", cfg.Addr())
	require.Equal(t, "notiontime.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Empty(t, cfg.Clockify.BaseURL)
	require.Zero(t, cfg.Clockify.Timeout)
	require.False(t, cfg.Tracking.AutoCreateProjects)

	require.Error(t, cfg.Validate())
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
db:
  path: /data/file.db
clockify:
  api_key: file-key
  workspace_id: ws-file
  timeout: 10s
notion:
  webhook_secret: file-secret
tracking:
  auto_create_projects: true
`), 0o600))

	t.Setenv("NOTIONTIME_CONFIG_PATH", path)
	t.Setenv("CLOCKIFY_API_KEY", "env-key")
	t.Setenv("PORT", "8081")
	t.Setenv("VERBOSE", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 8081, cfg.Server.Port)
	require.Equal(t, "/data/file.db", cfg.DB.Path)
	require.Equal(t, "env-key", cfg.Clockify.APIKey)
	require.Equal(t, "ws-file", cfg.Clockify.WorkspaceID)
	require.Equal(t, 10*time.Second, cfg.Clockify.Timeout)
	require.Equal(t, "file-secret", cfg.Notion.WebhookSecret)
	require.True(t, cfg.Tracking.AutoCreateProjects)
	require.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidEnv(t *testing.T) {
	cases := map[string]string{
		"NOTIONTIME_SERVER_PORT":          "eighty",
		"CLOCKIFY_TIMEOUT":                "soon",
		"NOTIONTIME_AUTO_CREATE_PROJECTS": "maybe",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("NOTIONTIME_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	require.ErrorContains(t, err, "read config file")
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Port: 3000},
		DB:       DBConfig{Path: "x.db"},
		Clockify: ClockifyConfig{APIKey: "k", WorkspaceID: "w"},
		Notion:   NotionConfig{WebhookSecret: "s"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Notion.WebhookSecret = ""
	cfg.Server.Port = 0
	err := cfg.Validate()
	require.ErrorContains(t, err, "NOTION_WEBHOOK_SECRET")
	require.ErrorContains(t, err, "invalid server port")
}
