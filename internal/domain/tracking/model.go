package tracking

import "time"

// ActiveEntry is a time entry the relay started and has not stopped yet.
type ActiveEntry struct {
	TaskID         string    `json:"task_id"`
	TimeEntryID    string    `json:"time_entry_id"`
	ProjectID      string    `json:"project_id,omitempty"`
	ClockifyTaskID string    `json:"clockify_task_id,omitempty"`
	TaskName       string    `json:"task_name"`
	StartedAt      time.Time `json:"started_at"`
}

// Action names the decision taken for a task event.
type Action string

const (
	ActionStarted         Action = "started"
	ActionAlreadyTracking Action = "already_tracking"
	ActionStoppedAll      Action = "stopped_all"
	ActionStopped         Action = "stopped"
	ActionNameMismatch    Action = "name_mismatch"
	ActionIgnored         Action = "ignored"
)

// Outcome describes what HandleTaskEvent did.
type Outcome struct {
	Action            Action
	TaskID            string
	TaskName          string
	SourceProjectID   string
	IsProjectIcon     bool
	ClockifyProjectID string
	TimeEntryID       string
}
