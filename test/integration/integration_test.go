package integration_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/notiontime/internal/testserver"
	"github.com/rpggio/notiontime/internal/transport"
)

func projectEvent(id, name string) string {
	return fmt.Sprintf(`{"data":{"id":%q,"icon":{"type":"emoji","emoji":"🚀"},"properties":{"Project name":{"title":[{"text":{"content":%q}}]}}}}`, id, name)
}

func taskEvent(id, name, status, projectID string) string {
	relation := ""
	if projectID != "" {
		relation = fmt.Sprintf(`,"Project":{"relation":[{"id":%q}]}`, projectID)
	}
	return fmt.Sprintf(`{"data":{"id":%q,"properties":{"Task name":{"title":[{"text":{"content":%q}}]},"Status":{"status":{"id":%q,"name":"x"}},"ID":{"unique_id":{"prefix":"TSK","number":7}}%s}}}`,
		id, name, status, relation)
}

func action(t *testing.T, body string) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &decoded), body)
	return decoded
}

func TestIntegration_TrackingLifecycle(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	status, body := ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P1", "Website"))
	require.Equal(t, http.StatusOK, status, body)
	require.Equal(t, true, action(t, body)["created"])

	remote := ts.Clockify.Projects()
	require.Len(t, remote, 1)
	require.Equal(t, "🚀 Website", remote[0].Name)

	status, body = ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "in-progress", "P1"))
	require.Equal(t, http.StatusOK, status, body)
	started := action(t, body)
	require.Equal(t, "started", started["action"])
	require.Equal(t, remote[0].ID, started["clockifyProjectId"])

	running := ts.Clockify.Running()
	require.Len(t, running, 1)
	require.Equal(t, remote[0].ID, running[0].ProjectID)
	require.Equal(t, "TSK-7 : Write spec", running[0].Description)
	require.Len(t, ts.Clockify.Tasks(remote[0].ID), 1)

	status, body = ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "in-progress", "P1"))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "already_tracking", action(t, body)["action"])
	require.Len(t, ts.Clockify.Entries(), 1)

	status, body = ts.Do(t, http.MethodGet, "/active", "")
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, running[0].ID)

	status, body = ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "done", "P1"))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "stopped_all", action(t, body)["action"])
	require.Empty(t, ts.Clockify.Running())
	require.Empty(t, ts.Engine.Active())

	status, body = ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "done", "P1"))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "ignored", action(t, body)["action"])
}

func TestIntegration_MultipleTasks(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	for _, id := range []string{"T1", "T2"} {
		status, _ := ts.Do(t, http.MethodPost, "/webhook", taskEvent(id, "Task "+id, "in-progress", ""))
		require.Equal(t, http.StatusOK, status)
	}
	require.Len(t, ts.Clockify.Running(), 2)

	_, body := ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Task T1", "done", ""))
	require.Equal(t, "stopped", action(t, body)["action"])
	require.Len(t, ts.Clockify.Running(), 1)

	ts.Do(t, http.MethodPost, "/webhook", taskEvent("T3", "Task T3", "in-progress", ""))
	_, body = ts.Do(t, http.MethodPost, "/webhook", taskEvent("T2", "Renamed", "done", ""))
	require.Equal(t, "name_mismatch", action(t, body)["action"])
	require.Len(t, ts.Clockify.Running(), 2)
	require.Len(t, ts.Engine.Active(), 2)
}

func TestIntegration_ProjectRenameAndDelete(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P1", "Website"))
	status, body := ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P1", "Landing page"))
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, true, action(t, body)["updated"])
	require.Equal(t, "🚀 Landing page", ts.Clockify.Projects()[0].Name)

	status, body = ts.Do(t, http.MethodGet, "/projects", "")
	require.Equal(t, http.StatusOK, status)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &listed))
	require.Len(t, listed, 1)
	require.Equal(t, "Landing page", listed[0]["name"])

	status, _ = ts.Do(t, http.MethodDelete, "/projects/1", "")
	require.Equal(t, http.StatusOK, status)
	status, _ = ts.Do(t, http.MethodDelete, "/projects/1", "")
	require.Equal(t, http.StatusNotFound, status)

	status, body = ts.Do(t, http.MethodGet, "/projects", "")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "[]\n", body)
}

func TestIntegration_UnmappedProject(t *testing.T) {
	t.Run("starts without project", func(t *testing.T) {
		ts := testserver.New(t, testserver.Options{})

		_, body := ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Loose task", "in-progress", "P9"))
		require.Equal(t, "started", action(t, body)["action"])
		require.Nil(t, action(t, body)["clockifyProjectId"])
		require.Empty(t, ts.Clockify.Projects())
		require.Empty(t, ts.Clockify.Running()[0].ProjectID)
	})

	t.Run("auto-creates project", func(t *testing.T) {
		ts := testserver.New(t, testserver.Options{AutoCreateProjects: true})

		_, body := ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Loose task", "in-progress", "P9"))
		require.Equal(t, "started", action(t, body)["action"])
		remote := ts.Clockify.Projects()
		require.Len(t, remote, 1)
		require.Equal(t, "Project P9", remote[0].Name)
		require.Equal(t, remote[0].ID, action(t, body)["clockifyProjectId"])

		mappings, err := ts.Projects.List(t.Context())
		require.NoError(t, err)
		require.Len(t, mappings, 1)
		require.Equal(t, "P9", mappings[0].NotionID)
	})
}

func TestIntegration_ConcurrentProjectWebhooks(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, body := ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P1", "Website"))
			assert.Equal(t, http.StatusOK, status, body)
		}()
	}
	wg.Wait()

	require.Len(t, ts.Clockify.Projects(), 1)
}

func TestIntegration_ProjectWebhookRacesAutoCreate(t *testing.T) {
	ts := testserver.New(t, testserver.Options{AutoCreateProjects: true})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		status, body := ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P2", "Docs"))
		assert.Equal(t, http.StatusOK, status, body)
	}()
	go func() {
		defer wg.Done()
		status, body := ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write docs", "in-progress", "P2"))
		assert.Equal(t, http.StatusOK, status, body)
	}()
	wg.Wait()

	remote := ts.Clockify.Projects()
	require.Len(t, remote, 1)
	require.Equal(t, "🚀 Docs", remote[0].Name)
	require.Equal(t, remote[0].ID, ts.Clockify.Running()[0].ProjectID)
}

func TestIntegration_UpstreamFailureKeepsRegistry(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})
	ts.Clockify.FailOn(http.MethodPost, "/workspaces/ws1/time-entries", http.StatusBadRequest, "Workspace is locked")

	status, body := ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "in-progress", ""))
	require.Equal(t, http.StatusInternalServerError, status)
	require.Equal(t, "Error processing webhook: Workspace is locked\n", body)
	require.Empty(t, ts.Engine.Active())
}

type secretTransport struct{}

func (secretTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set(transport.SecretHeader, testserver.Secret)
	return http.DefaultTransport.RoundTrip(req)
}

func TestIntegration_MCPOverHTTP(t *testing.T) {
	ts := testserver.New(t, testserver.Options{})
	ts.Do(t, http.MethodPost, "/project-webhook", projectEvent("P1", "Website"))
	ts.Do(t, http.MethodPost, "/webhook", taskEvent("T1", "Write spec", "in-progress", "P1"))

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "integration", Version: "0"}, nil)
	cs, err := client.Connect(t.Context(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: secretTransport{}},
		MaxRetries: -1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })

	res, err := cs.CallTool(t.Context(), &sdkmcp.CallToolParams{Name: "list_projects", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Contains(t, res.Content[0].(*sdkmcp.TextContent).Text, "Website")

	res, err = cs.CallTool(t.Context(), &sdkmcp.CallToolParams{Name: "stop_all_tracking", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	require.Empty(t, ts.Clockify.Running())
	require.Empty(t, ts.Engine.Active())
}
