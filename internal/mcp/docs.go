package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `notiontime relays Notion task status changes to Clockify time entries.

Concepts:
- Project mapping: a stored link from a Notion project page id to a Clockify project id.
- Active entry: a Clockify time entry the relay started for a Notion task and has not stopped.

Tools:
- list_projects / sync_project / delete_project manage project mappings.
- list_active_tasks shows what the relay believes is running.
- stop_all_tracking stops every running Clockify entry and clears the active list.

Docs:
- notiontime://docs/tracking (how task events become time entries)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "notiontime://docs/tracking",
		Name:        "docs_tracking",
		Title:       "How tracking works",
		Description: "Decision table for task events and the cases where the relay does nothing.",
		Content: `# How tracking works

Every task webhook is reduced to two facts: is the Notion status "in-progress",
and does the relay already hold an active entry for the task id.

| In progress | Tracked | Result |
|---|---|---|
| yes | no | start a Clockify entry ("{ID} : {Task name}") |
| yes | yes | nothing |
| no | yes, only entry | stop every running entry of the user, clear the list |
| no | yes, others too | stop this entry if the task name is unchanged |
| no | no | nothing |

A task without a Status property counts as not in progress.

## Projects

- The task's first "Project" relation is looked up in the project mappings.
- Relations rendered only by an icon are ignored.
- An unmapped project starts the entry without a project unless auto-creation is enabled.

## Recovery

The active list lives in memory and is empty after a restart. If Clockify keeps
running entries the relay has forgotten, call ` + "`stop_all_tracking`" + `.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
