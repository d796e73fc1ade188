package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/domain/tracking"
	"github.com/rpggio/notiontime/internal/notion"
)

// maxWebhookBytes bounds a webhook body. Notion pages are a few kilobytes.
const maxWebhookBytes = 1 << 20

// ProjectService is the project mapping surface used by the HTTP handlers.
type ProjectService interface {
	Sync(ctx context.Context, req project.SyncRequest) (*project.SyncResult, error)
	List(ctx context.Context) ([]project.Mapping, error)
	Delete(ctx context.Context, id int64) (*project.Mapping, error)
}

// TaskEngine reconciles task webhooks.
type TaskEngine interface {
	HandleTaskEvent(ctx context.Context, page *notion.Page) (*tracking.Outcome, error)
	Active() []tracking.ActiveEntry
}

// Config wires the HTTP server.
type Config struct {
	Projects ProjectService
	Tasks    TaskEngine
	// Secret is compared against the secret header on every protected route.
	Secret string
	// MCP is mounted at /mcp when set.
	MCP    http.Handler
	Logger *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	projects ProjectService
	tasks    TaskEngine
}

// NewServer creates an HTTP server router with middleware.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(RequestMiddleware(logger))
	r.Use(middleware.Recoverer)

	srv := &Server{projects: cfg.Projects, tasks: cfg.Tasks}

	r.Get("/health", srv.handleHealth)
	r.Get("/projects", srv.handleListProjects)
	r.Delete("/projects/{id}", srv.handleDeleteProject)

	r.Group(func(r chi.Router) {
		r.Use(SecretMiddleware(cfg.Secret))
		r.Post("/project-webhook", srv.handleProjectWebhook)
		r.Post("/webhook", srv.handleTaskWebhook)
		r.Get("/active", srv.handleActive)
		if cfg.MCP != nil {
			r.Handle("/mcp", cfg.MCP)
		}
	})

	return r
}

type projectWebhookResponse struct {
	Message     string `json:"message"`
	ProjectID   string `json:"projectId"`
	ProjectName string `json:"projectName"`
	Created     bool   `json:"created"`
	Updated     bool   `json:"updated"`
}

type taskWebhookResponse struct {
	Message           string          `json:"message"`
	Action            tracking.Action `json:"action"`
	TaskID            string          `json:"taskId"`
	TaskName          string          `json:"taskName"`
	ProjectID         *string         `json:"projectId"`
	IsProjectIcon     bool            `json:"isProjectIcon"`
	ClockifyProjectID *string         `json:"clockifyProjectId"`
}

type projectView struct {
	ID         int64   `json:"id"`
	NotionID   string  `json:"notionId"`
	Name       string  `json:"name"`
	ClockifyID string  `json:"clockifyId"`
	Emoji      *string `json:"emoji"`
}

type deletedProject struct {
	ID       int64  `json:"id"`
	NotionID string `json:"notionId"`
	Name     string `json:"name"`
}

type deleteResponse struct {
	Message        string         `json:"message"`
	DeletedProject deletedProject `json:"deletedProject"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleProjectWebhook(w http.ResponseWriter, r *http.Request) {
	const failure = "Error processing project webhook"
	logger := LoggerFrom(r.Context())

	page, err := notion.DecodeEnvelope(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		logger.Warn("malformed project webhook", "error", err)
		writeError(w, failure, err)
		return
	}

	req := project.SyncRequest{
		NotionID: page.ID,
		Name:     notion.ProjectName(page),
		Emoji:    page.Emoji(),
	}
	logger.Info("project webhook received", "notion_id", req.NotionID, "name", req.Name, "emoji", req.Emoji, "custom_icon", page.HasCustomIcon())

	res, err := s.projects.Sync(r.Context(), req)
	if err != nil {
		logger.Error("project webhook failed", "notion_id", req.NotionID, "error", err)
		writeError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, projectWebhookResponse{
		Message:     "Project webhook processed successfully",
		ProjectID:   page.ID,
		ProjectName: req.Name,
		Created:     res.Created,
		Updated:     res.Updated,
	})
}

func (s *Server) handleTaskWebhook(w http.ResponseWriter, r *http.Request) {
	const failure = "Error processing webhook"
	logger := LoggerFrom(r.Context())

	page, err := notion.DecodeEnvelope(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		logger.Warn("malformed task webhook", "error", err)
		writeError(w, failure, err)
		return
	}

	status := "undefined"
	if st := page.Status(); st != nil {
		status = st.Name
	}
	logger.Info("task webhook received", "task_id", page.ID, "formatted_id", page.FormattedID(), "status", status)

	out, err := s.tasks.HandleTaskEvent(r.Context(), page)
	if err != nil {
		logger.Error("task webhook failed", "task_id", page.ID, "error", err)
		writeError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, taskWebhookResponse{
		Message:           "Task webhook processed successfully",
		Action:            out.Action,
		TaskID:            out.TaskID,
		TaskName:          out.TaskName,
		ProjectID:         optional(out.SourceProjectID),
		IsProjectIcon:     out.IsProjectIcon,
		ClockifyProjectID: optional(out.ClockifyProjectID),
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	mappings, err := s.projects.List(r.Context())
	if err != nil {
		LoggerFrom(r.Context()).Error("listing projects failed", "error", err)
		writeError(w, "Error retrieving projects", err)
		return
	}

	views := make([]projectView, 0, len(mappings))
	for _, m := range mappings {
		views = append(views, projectView{
			ID:         m.ID,
			NotionID:   m.NotionID,
			Name:       m.Name,
			ClockifyID: m.ClockifyID,
			Emoji:      optional(m.Emoji),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	const failure = "Error deleting project"
	logger := LoggerFrom(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, failure, fmt.Errorf("%w: %s", errBadID, chi.URLParam(r, "id")))
		return
	}

	m, err := s.projects.Delete(r.Context(), id)
	if err != nil {
		logger.Warn("deleting project failed", "id", id, "error", err)
		writeError(w, failure, err)
		return
	}

	writeJSON(w, http.StatusOK, deleteResponse{
		Message:        "Project deleted successfully",
		DeletedProject: deletedProject{ID: m.ID, NotionID: m.NotionID, Name: m.Name},
	})
}

func (s *Server) handleActive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tasks.Active())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
