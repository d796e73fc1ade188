package project

import (
	"context"

	"github.com/rpggio/notiontime/internal/clockify"
)

// Repository provides persistence for project mappings.
type Repository interface {
	Load(ctx context.Context) (map[string]Mapping, error)
	Get(ctx context.Context, notionID string) (*Mapping, error)
	Upsert(ctx context.Context, m *Mapping) error
	UpsertAll(ctx context.Context, mappings []Mapping) error
	List(ctx context.Context) ([]Mapping, error)
	Delete(ctx context.Context, id int64) (*Mapping, error)
}

// RemoteProjects is the subset of the Clockify client used for project sync.
type RemoteProjects interface {
	FindOrCreateProject(ctx context.Context, sourceID, displayName string) (*clockify.Project, error)
	UpdateProject(ctx context.Context, projectID, name, color string) (*clockify.Project, error)
}
