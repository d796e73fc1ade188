package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rpggio/notiontime/internal/repository"
)

// Service handles project mapping operations. Writes to the mapping are
// serialized so a remote project is created at most once per Notion id.
type Service struct {
	mu     sync.Mutex
	repo   Repository
	remote RemoteProjects
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new project service.
func NewService(repo Repository, remote RemoteProjects, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, remote: remote, logger: logger, now: time.Now}
}

// SyncRequest carries the project fields extracted from a Notion webhook.
type SyncRequest struct {
	NotionID string
	Name     string
	Emoji    string
}

// SyncResult reports what Sync did.
type SyncResult struct {
	Mapping *Mapping
	Created bool
	Updated bool
}

// Sync makes sure a Notion project has a Clockify project and a stored mapping.
// An existing mapping whose name or emoji changed is renamed in Clockify.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	if strings.TrimSpace(req.NotionID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.Get(ctx, req.NotionID)
	switch {
	case err == nil:
		return s.refresh(ctx, existing, req)
	case errors.Is(err, repository.ErrNotFound):
		return s.create(ctx, req)
	default:
		return nil, fmt.Errorf("loading project mapping: %w", err)
	}
}

func (s *Service) create(ctx context.Context, req SyncRequest) (*SyncResult, error) {
	s.logger.Info("project not mapped, creating in clockify", "notion_id", req.NotionID, "name", req.Name)

	remote, err := s.remote.FindOrCreateProject(ctx, req.NotionID, DisplayName(req.Name, req.Emoji))
	if err != nil {
		return nil, fmt.Errorf("creating clockify project: %w", err)
	}

	now := s.now()
	m := &Mapping{
		NotionID:   req.NotionID,
		ClockifyID: remote.ID,
		Name:       req.Name,
		Emoji:      req.Emoji,
		Color:      colorOrDefault(remote.Color),
		Billable:   remote.Billable,
		Public:     remote.Public,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("saving project mapping: %w", err)
	}

	s.logger.Info("project mapped", "notion_id", m.NotionID, "clockify_id", m.ClockifyID)
	return &SyncResult{Mapping: m, Created: true}, nil
}

func (s *Service) refresh(ctx context.Context, existing *Mapping, req SyncRequest) (*SyncResult, error) {
	if existing.Name == req.Name && existing.Emoji == req.Emoji {
		s.logger.Debug("project mapping unchanged", "notion_id", req.NotionID)
		return &SyncResult{Mapping: existing}, nil
	}

	remote, err := s.remote.UpdateProject(ctx, existing.ClockifyID, DisplayName(req.Name, req.Emoji), existing.Color)
	if err != nil {
		return nil, fmt.Errorf("renaming clockify project: %w", err)
	}

	existing.Name = req.Name
	existing.Emoji = req.Emoji
	if remote.Color != "" {
		existing.Color = remote.Color
	}
	existing.UpdatedAt = s.now()
	if err := s.repo.Upsert(ctx, existing); err != nil {
		return nil, fmt.Errorf("saving project mapping: %w", err)
	}

	s.logger.Info("project renamed", "notion_id", existing.NotionID, "name", existing.DisplayName())
	return &SyncResult{Mapping: existing, Updated: true}, nil
}

// Lookup returns the mapping for a Notion project.
func (s *Service) Lookup(ctx context.Context, notionID string) (*Mapping, error) {
	m, err := s.repo.Get(ctx, notionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("getting project mapping: %w", err)
	}
	return m, nil
}

// Ensure maps a Notion project that no webhook has announced yet, finding or
// creating the Clockify project by id.
func (s *Service) Ensure(ctx context.Context, notionID string) (*Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.Lookup(ctx, notionID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, ErrProjectNotFound) {
		return nil, err
	}

	remote, err := s.remote.FindOrCreateProject(ctx, notionID, "")
	if err != nil {
		return nil, fmt.Errorf("creating clockify project: %w", err)
	}

	now := s.now()
	m = &Mapping{
		NotionID:   notionID,
		ClockifyID: remote.ID,
		Name:       FallbackName(notionID),
		Color:      colorOrDefault(remote.Color),
		Billable:   remote.Billable,
		Public:     remote.Public,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Upsert(ctx, m); err != nil {
		return nil, fmt.Errorf("saving project mapping: %w", err)
	}
	return m, nil
}

// List returns all mappings ordered by row id.
func (s *Service) List(ctx context.Context) ([]Mapping, error) {
	return s.repo.List(ctx)
}

// Mappings returns all mappings keyed by Notion id.
func (s *Service) Mappings(ctx context.Context) (map[string]Mapping, error) {
	return s.repo.Load(ctx)
}

// Delete removes a mapping by row id and returns it.
func (s *Service) Delete(ctx context.Context, id int64) (*Mapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("deleting project mapping: %w", err)
	}
	s.logger.Info("project mapping deleted", "id", m.ID, "notion_id", m.NotionID, "name", m.Name)
	return m, nil
}

// Import stores many mappings in one transaction.
func (s *Service) Import(ctx context.Context, mappings []Mapping) error {
	now := s.now()
	for i := range mappings {
		m := &mappings[i]
		if strings.TrimSpace(m.NotionID) == "" || strings.TrimSpace(m.ClockifyID) == "" || strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("mapping %d: %w", i, ErrInvalidInput)
		}
		m.Color = colorOrDefault(m.Color)
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		m.UpdatedAt = now
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.UpsertAll(ctx, mappings); err != nil {
		return fmt.Errorf("importing project mappings: %w", err)
	}
	return nil
}

func colorOrDefault(color string) string {
	if color == "" {
		return DefaultColor
	}
	return color
}
