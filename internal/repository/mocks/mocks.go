package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rpggio/notiontime/internal/clockify"
	"github.com/rpggio/notiontime/internal/domain/project"
)

// ProjectRepository is a mock for project.Repository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Load(ctx context.Context) (map[string]project.Mapping, error) {
	args := m.Called(ctx)
	if mappings, ok := args.Get(0).(map[string]project.Mapping); ok {
		return mappings, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Get(ctx context.Context, notionID string) (*project.Mapping, error) {
	args := m.Called(ctx, notionID)
	if mapping, ok := args.Get(0).(*project.Mapping); ok {
		return mapping, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Upsert(ctx context.Context, mapping *project.Mapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

func (m *ProjectRepository) UpsertAll(ctx context.Context, mappings []project.Mapping) error {
	args := m.Called(ctx, mappings)
	return args.Error(0)
}

func (m *ProjectRepository) List(ctx context.Context) ([]project.Mapping, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]project.Mapping); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, id int64) (*project.Mapping, error) {
	args := m.Called(ctx, id)
	if mapping, ok := args.Get(0).(*project.Mapping); ok {
		return mapping, args.Error(1)
	}
	return nil, args.Error(1)
}

// RemoteProjects is a mock for project.RemoteProjects.
type RemoteProjects struct {
	mock.Mock
}

func (m *RemoteProjects) FindOrCreateProject(ctx context.Context, sourceID, displayName string) (*clockify.Project, error) {
	args := m.Called(ctx, sourceID, displayName)
	if proj, ok := args.Get(0).(*clockify.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *RemoteProjects) UpdateProject(ctx context.Context, projectID, name, color string) (*clockify.Project, error) {
	args := m.Called(ctx, projectID, name, color)
	if proj, ok := args.Get(0).(*clockify.Project); ok {
		return proj, args.Error(1)
	}
	return nil, args.Error(1)
}
