package clockify

import "time"

// Project is a Clockify project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Billable    bool   `json:"billable"`
	Public      bool   `json:"public"`
	Archived    bool   `json:"archived,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
}

// Task is a task inside a Clockify project.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
	Status    string `json:"status,omitempty"`
}

// TimeInterval holds the span of a time entry. End is nil while running.
type TimeInterval struct {
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end"`
	Duration string     `json:"duration,omitempty"`
}

// TimeEntry is a Clockify time entry.
type TimeEntry struct {
	ID           string       `json:"id"`
	Description  string       `json:"description"`
	ProjectID    string       `json:"projectId,omitempty"`
	TaskID       string       `json:"taskId,omitempty"`
	UserID       string       `json:"userId,omitempty"`
	WorkspaceID  string       `json:"workspaceId,omitempty"`
	TimeInterval TimeInterval `json:"timeInterval"`
}

// Running reports whether the entry has no end time.
func (e TimeEntry) Running() bool {
	return e.TimeInterval.End == nil
}

// User is the authenticated Clockify user.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ActiveWorkspace string `json:"activeWorkspace,omitempty"`
}

// StartTimeEntryRequest describes a time entry to open for a Notion task.
type StartTimeEntryRequest struct {
	TaskID      string
	TaskName    string
	ProjectID   string
	FormattedID string
}

// Description renders the entry description, preferring the formatted task id.
func (r StartTimeEntryRequest) Description() string {
	id := r.FormattedID
	if id == "" {
		id = r.TaskID
	}
	return id + " : " + r.TaskName
}

type createProjectBody struct {
	Name     string `json:"name"`
	Color    string `json:"color"`
	Billable bool   `json:"billable"`
	Public   bool   `json:"public"`
}

type updateProjectBody struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type createTaskBody struct {
	Name      string `json:"name"`
	ProjectID string `json:"projectId"`
}

type startTimeEntryBody struct {
	Start       string `json:"start"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId,omitempty"`
}

type stopTimeEntryBody struct {
	End string `json:"end"`
}
