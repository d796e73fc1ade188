// Package tracking turns Notion task status changes into Clockify time
// entries and remembers which entries the relay has running.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/notion"
)

// Options tunes engine behaviour.
type Options struct {
	// AutoCreateProjects maps unknown Notion projects on first use instead of
	// starting the entry without a project.
	AutoCreateProjects bool
}

// Engine reconciles task events against the active registry. Each event,
// including its remote calls, runs under one lock so two events for the
// same task cannot both start an entry.
type Engine struct {
	mu       sync.Mutex
	active   registry
	projects ProjectResolver
	tracker  TimeTracker
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine creates an engine with an empty registry.
func NewEngine(projects ProjectResolver, tracker TimeTracker, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		active:   make(registry),
		projects: projects,
		tracker:  tracker,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// HandleTaskEvent applies one task page to the registry.
//
//	in progress, not tracked  -> start an entry
//	in progress, tracked      -> nothing
//	done, tracked, only entry -> stop every running entry, clear the registry
//	done, tracked, others     -> stop this entry if its name still matches
//	done, not tracked         -> nothing
//
// A missing status counts as not in progress.
func (e *Engine) HandleTaskEvent(ctx context.Context, page *notion.Page) (*Outcome, error) {
	if page == nil || page.ID == "" {
		return nil, ErrInvalidEvent
	}

	out := &Outcome{
		TaskID:   page.ID,
		TaskName: notion.TaskName(page),
	}
	relation := page.ProjectRelation()
	if relation != nil {
		out.SourceProjectID = relation.ID
		out.IsProjectIcon = relation.IconOnly()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	entry, tracked := e.active.get(page.ID)
	logger := e.logger.With("task_id", page.ID, "task", out.TaskName)

	switch {
	case page.InProgress() && tracked:
		out.Action = ActionAlreadyTracking
		out.TimeEntryID = entry.TimeEntryID
	case page.InProgress():
		if err := e.start(ctx, page, relation, out); err != nil {
			return nil, err
		}
	case !tracked:
		out.Action = ActionIgnored
	case len(e.active) == 1:
		if err := e.tracker.StopAllTimeEntries(ctx); err != nil {
			return nil, fmt.Errorf("stopping all time entries: %w", err)
		}
		e.active.clear()
		out.Action = ActionStoppedAll
		out.TimeEntryID = entry.TimeEntryID
	case entry.TaskName == out.TaskName:
		if _, err := e.tracker.StopTimeEntry(ctx, entry.TimeEntryID); err != nil {
			return nil, fmt.Errorf("stopping time entry %s: %w", entry.TimeEntryID, err)
		}
		e.active.remove(page.ID)
		out.Action = ActionStopped
		out.TimeEntryID = entry.TimeEntryID
	default:
		logger.Warn("task renamed while tracked, leaving entry running", "tracked_name", entry.TaskName)
		out.Action = ActionNameMismatch
		out.TimeEntryID = entry.TimeEntryID
	}

	logger.Info("task event handled", "action", out.Action, "time_entry_id", out.TimeEntryID, "active", len(e.active))
	return out, nil
}

func (e *Engine) start(ctx context.Context, page *notion.Page, relation *notion.Relation, out *Outcome) error {
	var projectID string
	if relation != nil && !relation.IconOnly() {
		mapping, err := e.resolveProject(ctx, relation.ID)
		if err != nil {
			return err
		}
		if mapping != nil {
			projectID = mapping.ClockifyID
		}
	} else if relation != nil {
		e.logger.Debug("project relation is icon-only, skipping project", "task_id", page.ID)
	}

	var clockifyTaskID string
	if projectID != "" {
		task, err := e.tracker.FindOrCreateTask(ctx, out.TaskName, projectID)
		if err != nil {
			return fmt.Errorf("finding clockify task: %w", err)
		}
		if task != nil {
			clockifyTaskID = task.ID
		}
	}

	entry, err := e.tracker.StartTimeEntry(ctx, clockify.StartTimeEntryRequest{
		TaskID:      page.ID,
		TaskName:    out.TaskName,
		ProjectID:   projectID,
		FormattedID: page.FormattedID(),
	})
	if err != nil {
		return fmt.Errorf("starting time entry: %w", err)
	}

	e.active.put(ActiveEntry{
		TaskID:         page.ID,
		TimeEntryID:    entry.ID,
		ProjectID:      projectID,
		ClockifyTaskID: clockifyTaskID,
		TaskName:       out.TaskName,
		StartedAt:      e.now(),
	})

	out.Action = ActionStarted
	out.ClockifyProjectID = projectID
	out.TimeEntryID = entry.ID
	return nil
}

// resolveProject returns nil without error when the project is unmapped and
// auto-creation is off.
func (e *Engine) resolveProject(ctx context.Context, notionID string) (*project.Mapping, error) {
	if e.opts.AutoCreateProjects {
		mapping, err := e.projects.Ensure(ctx, notionID)
		if err != nil {
			return nil, fmt.Errorf("ensuring project %s: %w", notionID, err)
		}
		return mapping, nil
	}

	mapping, err := e.projects.Lookup(ctx, notionID)
	if errors.Is(err, project.ErrProjectNotFound) {
		e.logger.Warn("project not mapped, tracking without project", "notion_project_id", notionID)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up project %s: %w", notionID, err)
	}
	return mapping, nil
}

// Active returns the running entries sorted by task id.
func (e *Engine) Active() []ActiveEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.snapshot()
}

// StopAll stops every running entry of the Clockify user and clears the
// registry. It returns the number of entries that were tracked.
func (e *Engine) StopAll(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.tracker.StopAllTimeEntries(ctx); err != nil {
		return 0, fmt.Errorf("stopping all time entries: %w", err)
	}
	n := len(e.active)
	e.active.clear()
	e.logger.Info("all tracking stopped", "cleared", n)
	return n, nil
}
