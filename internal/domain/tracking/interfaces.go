package tracking

import (
	"context"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
)

// TimeTracker is the subset of the Clockify client the engine drives.
type TimeTracker interface {
	FindOrCreateTask(ctx context.Context, taskName, projectID string) (*clockify.Task, error)
	StartTimeEntry(ctx context.Context, req clockify.StartTimeEntryRequest) (*clockify.TimeEntry, error)
	StopTimeEntry(ctx context.Context, timeEntryID string) (*clockify.TimeEntry, error)
	StopAllTimeEntries(ctx context.Context) error
}

// ProjectResolver maps Notion project ids to Clockify projects.
type ProjectResolver interface {
	Lookup(ctx context.Context, notionID string) (*project.Mapping, error)
	Ensure(ctx context.Context, notionID string) (*project.Mapping, error)
}
