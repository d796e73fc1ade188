// Package clockifytest provides an in-memory Clockify API for tests.
package clockifytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/notiontime/internal/clockify"
)

const (
	// WorkspaceID is the only workspace the fake serves.
	WorkspaceID = "ws1"
	// APIKey is the key the fake accepts.
	APIKey = "test-key"
	// UserID is the id returned by GET /user.
	UserID = "user1"
)

// Call records one request received by the fake.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
}

type failure struct {
	status  int
	message string
}

// Server is a fake Clockify API backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	nextID   int
	projects []clockify.Project
	tasks    map[string][]clockify.Task
	entries  []clockify.TimeEntry
	calls    []Call
	failures map[string]failure
}

// New starts a fake Clockify server closed on test cleanup.
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		tasks:    make(map[string][]clockify.Task),
		failures: make(map[string]failure),
	}

	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.authenticate)
	r.Get("/user", s.handleUser)
	r.Route("/workspaces/{ws}", func(r chi.Router) {
		r.Use(s.checkWorkspace)
		r.Get("/projects", s.handleListProjects)
		r.Post("/projects", s.handleCreateProject)
		r.Put("/projects/{projectID}", s.handleUpdateProject)
		r.Get("/projects/{projectID}/tasks", s.handleListTasks)
		r.Post("/projects/{projectID}/tasks", s.handleCreateTask)
		r.Post("/time-entries", s.handleStartEntry)
		r.Patch("/time-entries/{entryID}", s.handleStopEntry)
		r.Patch("/user/{userID}/time-entries", s.handleStopAll)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Client returns a clockify.Client pointed at the fake.
func (s *Server) Client(opts ...clockify.Option) *clockify.Client {
	return clockify.New(clockify.Config{
		BaseURL:     s.URL,
		APIKey:      APIKey,
		WorkspaceID: WorkspaceID,
	}, opts...)
}

// AddProject seeds a project and returns it with its assigned id.
func (s *Server) AddProject(name string) clockify.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := clockify.Project{ID: s.id("proj"), Name: name, Color: "#000000", Billable: true}
	s.projects = append(s.projects, p)
	return p
}

// AddTask seeds a task under a project.
func (s *Server) AddTask(projectID, name string) clockify.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := clockify.Task{ID: s.id("task"), Name: name, ProjectID: projectID}
	s.tasks[projectID] = append(s.tasks[projectID], task)
	return task
}

// FailOn makes every request matching method and path answer with status.
func (s *Server) FailOn(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// Projects returns a copy of the stored projects.
func (s *Server) Projects() []clockify.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clockify.Project(nil), s.projects...)
}

// Tasks returns a copy of the tasks under a project.
func (s *Server) Tasks(projectID string) []clockify.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clockify.Task(nil), s.tasks[projectID]...)
}

// Entries returns a copy of all time entries.
func (s *Server) Entries() []clockify.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]clockify.TimeEntry(nil), s.entries...)
}

// Running returns the entries without an end time.
func (s *Server) Running() []clockify.TimeEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var running []clockify.TimeEntry
	for _, e := range s.entries {
		if e.Running() {
			running = append(running, e)
		}
	}
	return running
}

// Calls returns the recorded requests in arrival order.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallCount counts recorded requests matching method and path.
func (s *Server) CallCount(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := Call{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil && r.ContentLength != 0 {
			var decoded map[string]any
			if err := json.NewDecoder(r.Body).Decode(&decoded); err == nil {
				call.Body = decoded
			}
			r.Body = http.NoBody
			r = r.WithContext(withBody(r.Context(), body(call.Body)))
		}

		s.mu.Lock()
		s.calls = append(s.calls, call)
		f, fail := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if fail {
			writeJSON(w, f.status, map[string]any{"message": f.message, "code": f.status})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Full authentication is required to access this resource", "code": 1000})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "ws") != WorkspaceID {
			writeJSON(w, http.StatusForbidden, map[string]any{"message": "Access Denied", "code": 403})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleUser(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, clockify.User{ID: UserID, Name: "Test User", Email: "test@example.com", ActiveWorkspace: WorkspaceID})
}

func (s *Server) handleListProjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Projects())
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	b := bodyFrom(r.Context())
	name := b.str("name")
	if name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Project name is required", "code": 501})
		return
	}

	s.mu.Lock()
	for _, p := range s.projects {
		if p.Name == name {
			s.mu.Unlock()
			writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Project with that name already exists", "code": 501})
			return
		}
	}
	p := clockify.Project{
		ID:          s.id("proj"),
		Name:        name,
		Color:       b.str("color"),
		Billable:    b.boolean("billable"),
		Public:      b.boolean("public"),
		WorkspaceID: WorkspaceID,
	}
	s.projects = append(s.projects, p)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	b := bodyFrom(r.Context())
	id := chi.URLParam(r, "projectID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID != id {
			continue
		}
		if name := b.str("name"); name != "" {
			s.projects[i].Name = name
		}
		if color := b.str("color"); color != "" {
			s.projects[i].Color = color
		}
		writeJSON(w, http.StatusOK, s.projects[i])
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Project doesn't exist", "code": 501})
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Tasks(chi.URLParam(r, "projectID")))
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	b := bodyFrom(r.Context())
	projectID := chi.URLParam(r, "projectID")

	s.mu.Lock()
	task := clockify.Task{ID: s.id("task"), Name: b.str("name"), ProjectID: projectID, Status: "ACTIVE"}
	s.tasks[projectID] = append(s.tasks[projectID], task)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleStartEntry(w http.ResponseWriter, r *http.Request) {
	b := bodyFrom(r.Context())
	start, err := time.Parse(time.RFC3339, b.str("start"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid start", "code": 400})
		return
	}

	s.mu.Lock()
	entry := clockify.TimeEntry{
		ID:           s.id("entry"),
		Description:  b.str("description"),
		ProjectID:    b.str("projectId"),
		UserID:       UserID,
		WorkspaceID:  WorkspaceID,
		TimeInterval: clockify.TimeInterval{Start: start},
	}
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleStopEntry(w http.ResponseWriter, r *http.Request) {
	end, ok := parseEnd(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "entryID")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ID == id {
			s.entries[i].TimeInterval.End = &end
			writeJSON(w, http.StatusOK, s.entries[i])
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "Time entry doesn't exist", "code": 501})
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	end, ok := parseEnd(w, r)
	if !ok {
		return
	}
	if chi.URLParam(r, "userID") != UserID {
		writeJSON(w, http.StatusForbidden, map[string]any{"message": "Access Denied", "code": 403})
		return
	}

	s.mu.Lock()
	stopped := []clockify.TimeEntry{}
	for i := range s.entries {
		if s.entries[i].Running() {
			s.entries[i].TimeInterval.End = &end
			stopped = append(stopped, s.entries[i])
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, stopped)
}

func parseEnd(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	end, err := time.Parse(time.RFC3339, bodyFrom(r.Context()).str("end"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid end", "code": 400})
		return time.Time{}, false
	}
	return end, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
