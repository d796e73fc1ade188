package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
)

type projectStub struct {
	syncFn   func(context.Context, project.SyncRequest) (*project.SyncResult, error)
	listFn   func(context.Context) ([]project.Mapping, error)
	deleteFn func(context.Context, int64) (*project.Mapping, error)
}

func (p projectStub) Sync(ctx context.Context, req project.SyncRequest) (*project.SyncResult, error) {
	return p.syncFn(ctx, req)
}
func (p projectStub) List(ctx context.Context) ([]project.Mapping, error) {
	return p.listFn(ctx)
}
func (p projectStub) Delete(ctx context.Context, id int64) (*project.Mapping, error) {
	return p.deleteFn(ctx, id)
}

type trackingStub struct {
	active    []tracking.ActiveEntry
	stopAllFn func(context.Context) (int, error)
}

func (s trackingStub) Active() []tracking.ActiveEntry { return s.active }
func (s trackingStub) StopAll(ctx context.Context) (int, error) {
	return s.stopAllFn(ctx)
}

func connect(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test", Version: "0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func callTool(t *testing.T, cs *sdkmcp.ClientSession, name string, args any) *sdkmcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

func text(t *testing.T, res *sdkmcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(*sdkmcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestTools_Listed(t *testing.T) {
	cs := connect(t, Config{Projects: projectStub{}, Tracking: trackingStub{}})

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{"list_projects", "sync_project", "delete_project", "list_active_tasks", "stop_all_tracking"}, names)
}

func TestTools_ListProjects(t *testing.T) {
	cs := connect(t, Config{
		Projects: projectStub{listFn: func(context.Context) ([]project.Mapping, error) {
			return []project.Mapping{{ID: 1, NotionID: "n1", ClockifyID: "c1", Name: "Website", Color: "#000000"}}, nil
		}},
		Tracking: trackingStub{},
	})

	res := callTool(t, cs, "list_projects", map[string]any{})
	require.False(t, res.IsError)

	var out listProjectsOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Len(t, out.Projects, 1)
	require.Equal(t, "c1", out.Projects[0].ClockifyID)
}

func TestTools_SyncProject(t *testing.T) {
	var got project.SyncRequest
	cs := connect(t, Config{
		Projects: projectStub{syncFn: func(_ context.Context, req project.SyncRequest) (*project.SyncResult, error) {
			got = req
			return &project.SyncResult{Mapping: &project.Mapping{NotionID: req.NotionID, ClockifyID: "c1", Name: req.Name}, Created: true}, nil
		}},
		Tracking: trackingStub{},
	})

	res := callTool(t, cs, "sync_project", map[string]any{"notion_id": "n1", "name": "Website"})
	require.False(t, res.IsError, text(t, res))
	require.Equal(t, project.SyncRequest{NotionID: "n1", Name: "Website"}, got)

	var out syncProjectOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.True(t, out.Created)
}

func TestTools_DeleteProjectNotFound(t *testing.T) {
	cs := connect(t, Config{
		Projects: projectStub{deleteFn: func(context.Context, int64) (*project.Mapping, error) {
			return nil, project.ErrProjectNotFound
		}},
		Tracking: trackingStub{},
	})

	res := callTool(t, cs, "delete_project", map[string]any{"id": 42})
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "PROJECT_NOT_FOUND")
}

func TestTools_Tracking(t *testing.T) {
	stopped := false
	cs := connect(t, Config{
		Projects: projectStub{},
		Tracking: trackingStub{
			active: []tracking.ActiveEntry{{TaskID: "T1", TimeEntryID: "entry1", TaskName: "Write spec"}},
			stopAllFn: func(context.Context) (int, error) {
				stopped = true
				return 1, nil
			},
		},
	})

	res := callTool(t, cs, "list_active_tasks", map[string]any{})
	require.False(t, res.IsError, text(t, res))
	var active listActiveOutput
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &active))
	require.Len(t, active.Entries, 1)
	require.Equal(t, "entry1", active.Entries[0].TimeEntryID)

	res = callTool(t, cs, "stop_all_tracking", map[string]any{})
	require.False(t, res.IsError, text(t, res))
	require.True(t, stopped)
	require.JSONEq(t, `{"cleared":1}`, text(t, res))
}

func TestTools_StopAllUpstreamError(t *testing.T) {
	cs := connect(t, Config{
		Projects: projectStub{},
		Tracking: trackingStub{stopAllFn: func(context.Context) (int, error) {
			return 0, errors.Join(errors.New("stopping all time entries"), &clockify.Error{Op: "get user", StatusCode: 401, Message: "bad key"})
		}},
	})

	res := callTool(t, cs, "stop_all_tracking", map[string]any{})
	require.True(t, res.IsError)
	require.Contains(t, text(t, res), "CLOCKIFY_ERROR: bad key")
}

func TestDocResources(t *testing.T) {
	cs := connect(t, Config{Projects: projectStub{}, Tracking: trackingStub{}})

	res, err := cs.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "notiontime://docs/tracking"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "How tracking works")
}
