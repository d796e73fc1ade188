package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
)

type emptyInput struct{}

type listProjectsOutput struct {
	Projects []project.Mapping `json:"projects"`
}

type syncProjectInput struct {
	NotionID string `json:"notion_id" jsonschema:"Notion project page id"`
	Name     string `json:"name" jsonschema:"Project name without emoji"`
	Emoji    string `json:"emoji,omitempty" jsonschema:"Optional emoji shown before the name in Clockify"`
}

type syncProjectOutput struct {
	Project project.Mapping `json:"project"`
	Created bool            `json:"created"`
	Updated bool            `json:"updated"`
}

type deleteProjectInput struct {
	ID int64 `json:"id" jsonschema:"Mapping row id as returned by list_projects"`
}

type deleteProjectOutput struct {
	Deleted project.Mapping `json:"deleted"`
}

type listActiveOutput struct {
	Entries []tracking.ActiveEntry `json:"entries"`
}

type stopAllOutput struct {
	Cleared int `json:"cleared"`
}

type tools struct {
	projects ProjectService
	tracking TrackingService
	logger   *slog.Logger
}

func registerTools(server *sdkmcp.Server, cfg Config) {
	t := &tools{projects: cfg.Projects, tracking: cfg.Tracking, logger: cfg.Logger}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_projects",
		Description: "List Notion to Clockify project mappings ordered by id",
	}, t.listProjects)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sync_project",
		Description: "Create or rename the Clockify project for a Notion project, as the project webhook does",
	}, t.syncProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_project",
		Description: "Delete a project mapping. The Clockify project is kept",
	}, t.deleteProject)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_active_tasks",
		Description: "List the time entries the relay started and has not stopped",
	}, t.listActive)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "stop_all_tracking",
		Description: "Stop every running Clockify entry of the API key's user and clear the active list",
	}, t.stopAll)
}

func (t *tools) listProjects(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, listProjectsOutput, error) {
	mappings, err := t.projects.List(ctx)
	if err != nil {
		return nil, listProjectsOutput{}, MapError(err)
	}
	if mappings == nil {
		mappings = []project.Mapping{}
	}
	return nil, listProjectsOutput{Projects: mappings}, nil
}

func (t *tools) syncProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in syncProjectInput) (*sdkmcp.CallToolResult, syncProjectOutput, error) {
	res, err := t.projects.Sync(ctx, project.SyncRequest{NotionID: in.NotionID, Name: in.Name, Emoji: in.Emoji})
	if err != nil {
		return nil, syncProjectOutput{}, MapError(err)
	}
	return nil, syncProjectOutput{Project: *res.Mapping, Created: res.Created, Updated: res.Updated}, nil
}

func (t *tools) deleteProject(ctx context.Context, _ *sdkmcp.CallToolRequest, in deleteProjectInput) (*sdkmcp.CallToolResult, deleteProjectOutput, error) {
	m, err := t.projects.Delete(ctx, in.ID)
	if err != nil {
		return nil, deleteProjectOutput{}, MapError(err)
	}
	return nil, deleteProjectOutput{Deleted: *m}, nil
}

func (t *tools) listActive(_ context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, listActiveOutput, error) {
	entries := t.tracking.Active()
	if entries == nil {
		entries = []tracking.ActiveEntry{}
	}
	return nil, listActiveOutput{Entries: entries}, nil
}

func (t *tools) stopAll(ctx context.Context, _ *sdkmcp.CallToolRequest, _ emptyInput) (*sdkmcp.CallToolResult, stopAllOutput, error) {
	n, err := t.tracking.StopAll(ctx)
	if err != nil {
		return nil, stopAllOutput{}, MapError(err)
	}
	t.logger.Info("tracking stopped from mcp", "cleared", n, "request_id", getRequestID(ctx))
	return nil, stopAllOutput{Cleared: n}, nil
}
