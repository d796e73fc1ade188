package clockify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Clockify REST endpoint.
const DefaultBaseURL = "https://api.clockify.me/api/v1"

// Config holds the connection settings for a workspace.
type Config struct {
	BaseURL     string
	APIKey      string
	WorkspaceID string
	Timeout     time.Duration
}

// Client talks to the Clockify REST API. It holds no state besides its
// configuration, and never retries.
type Client struct {
	baseURL     string
	apiKey      string
	workspaceID string
	http        *http.Client
	now         func() time.Time
	logger      *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithClock replaces the time source used for start/end timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Client for one workspace.
func New(cfg Config, opts ...Option) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		workspaceID: cfg.WorkspaceID,
		http:        &http.Client{Timeout: cfg.Timeout},
		now:         time.Now,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListProjects returns the workspace projects in Clockify's order.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, "list projects", http.MethodGet, c.workspacePath("projects"), nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project with the relay's defaults.
func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	body := createProjectBody{
		Name:     name,
		Color:    "#000000",
		Billable: true,
		Public:   false,
	}
	var proj Project
	if err := c.do(ctx, "create project", http.MethodPost, c.workspacePath("projects"), body, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// FindOrCreateProject returns the first project whose name contains sourceID,
// creating one when none does. An id that is a substring of another
// project's name also matches.
func (c *Client) FindOrCreateProject(ctx context.Context, sourceID, displayName string) (*Project, error) {
	projects, err := c.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if strings.Contains(projects[i].Name, sourceID) {
			c.logger.Debug("clockify project found", "source_id", sourceID, "project_id", projects[i].ID)
			return &projects[i], nil
		}
	}

	name := displayName
	if name == "" {
		name = "Project " + sourceID
	}
	c.logger.Info("creating clockify project", "source_id", sourceID, "name", name)
	return c.CreateProject(ctx, name)
}

// UpdateProject renames a project, keeping its color.
func (c *Client) UpdateProject(ctx context.Context, projectID, name, color string) (*Project, error) {
	var proj Project
	path := c.workspacePath("projects", projectID)
	if err := c.do(ctx, "update project", http.MethodPut, path, updateProjectBody{Name: name, Color: color}, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// FindOrCreateTask returns the project task named taskName, creating it when
// missing. It returns nil without calling Clockify when projectID is empty.
func (c *Client) FindOrCreateTask(ctx context.Context, taskName, projectID string) (*Task, error) {
	if projectID == "" {
		c.logger.Debug("no project, skipping task lookup", "task", taskName)
		return nil, nil
	}

	path := c.workspacePath("projects", projectID, "tasks")
	var tasks []Task
	if err := c.do(ctx, "list tasks", http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].Name == taskName {
			return &tasks[i], nil
		}
	}

	var task Task
	if err := c.do(ctx, "create task", http.MethodPost, path, createTaskBody{Name: taskName, ProjectID: projectID}, &task); err != nil {
		return nil, err
	}
	c.logger.Info("clockify task created", "task_id", task.ID, "project_id", projectID)
	return &task, nil
}

// StartTimeEntry opens a time entry starting now.
func (c *Client) StartTimeEntry(ctx context.Context, req StartTimeEntryRequest) (*TimeEntry, error) {
	body := startTimeEntryBody{
		Start:       c.timestamp(),
		Description: req.Description(),
		ProjectID:   req.ProjectID,
	}
	var entry TimeEntry
	if err := c.do(ctx, "start time entry", http.MethodPost, c.workspacePath("time-entries"), body, &entry); err != nil {
		return nil, err
	}
	if entry.ID == "" {
		return nil, &Error{Op: "start time entry", Message: "response has no time entry id"}
	}
	return &entry, nil
}

// StopTimeEntry ends one time entry now.
func (c *Client) StopTimeEntry(ctx context.Context, timeEntryID string) (*TimeEntry, error) {
	var entry TimeEntry
	path := c.workspacePath("time-entries", timeEntryID)
	if err := c.do(ctx, "stop time entry", http.MethodPatch, path, stopTimeEntryBody{End: c.timestamp()}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CurrentUser returns the user owning the API key.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, "get user", http.MethodGet, "/user", nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, &Error{Op: "get user", Message: "response has no user id"}
	}
	return &user, nil
}

// StopAllTimeEntries ends every running entry of the current user now.
func (c *Client) StopAllTimeEntries(ctx context.Context) error {
	user, err := c.CurrentUser(ctx)
	if err != nil {
		return err
	}
	path := c.workspacePath("user", user.ID, "time-entries")
	if err := c.do(ctx, "stop all time entries", http.MethodPatch, path, stopTimeEntryBody{End: c.timestamp()}, nil); err != nil {
		return err
	}
	c.logger.Info("all clockify time entries stopped", "user_id", user.ID)
	return nil
}

func (c *Client) workspacePath(parts ...string) string {
	var b strings.Builder
	b.WriteString("/workspaces/")
	b.WriteString(url.PathEscape(c.workspaceID))
	for _, p := range parts {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format(time.RFC3339)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: fmt.Sprintf("encode request: %v", err), Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("clockify request", "op", op, "method", method, "path", path)

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("read response: %v", err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: remoteMessage(data, resp.Status)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err), Err: err}
	}
	return nil
}
