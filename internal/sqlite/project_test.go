package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/repository"
)

func newMapping(notionID, clockifyID, name string) *project.Mapping {
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return &project.Mapping{
		NotionID:   notionID,
		ClockifyID: clockifyID,
		Name:       name,
		Color:      project.DefaultColor,
		Billable:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProjectRepository_UpsertAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	m := newMapping("n1", "c1", "Website")
	m.Emoji = "🚀"
	require.NoError(t, repo.Upsert(ctx, m))
	require.NotZero(t, m.ID)

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, m.ID, got.ID)
	require.Equal(t, "c1", got.ClockifyID)
	require.Equal(t, "Website", got.Name)
	require.Equal(t, "🚀", got.Emoji)
	require.Equal(t, "#000000", got.Color)
	require.True(t, got.Billable)
	require.False(t, got.Public)
	require.True(t, got.CreatedAt.Equal(m.CreatedAt))

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestProjectRepository_UpsertOverwrites(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	first := newMapping("n1", "c1", "Website")
	first.Emoji = "🚀"
	require.NoError(t, repo.Upsert(ctx, first))

	second := newMapping("n1", "c2", "Website v2")
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	second.UpdatedAt = first.UpdatedAt.Add(time.Hour)
	require.NoError(t, repo.Upsert(ctx, second))
	require.Equal(t, first.ID, second.ID)

	got, err := repo.Get(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "c2", got.ClockifyID)
	require.Equal(t, "Website v2", got.Name)
	require.Empty(t, got.Emoji)
	require.True(t, got.CreatedAt.Equal(first.CreatedAt), "created_at must survive updates")
	require.True(t, got.UpdatedAt.Equal(second.UpdatedAt))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestProjectRepository_ListAndLoad(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, list)
	require.Empty(t, list)

	for _, id := range []string{"n3", "n1", "n2"} {
		require.NoError(t, repo.Upsert(ctx, newMapping(id, "c-"+id, "Project "+id)))
	}

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "n3", list[0].NotionID)
	require.Equal(t, "n1", list[1].NotionID)
	require.Equal(t, "n2", list[2].NotionID)
	require.Less(t, list[0].ID, list[1].ID)

	mappings, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, mappings, 3)
	require.Equal(t, "c-n2", mappings["n2"].ClockifyID)
}

func TestProjectRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	m := newMapping("n1", "c1", "Website")
	require.NoError(t, repo.Upsert(ctx, m))

	deleted, err := repo.Delete(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, m.ID, deleted.ID)
	require.Equal(t, "n1", deleted.NotionID)
	require.Equal(t, "Website", deleted.Name)

	_, err = repo.Get(ctx, "n1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	_, err = repo.Delete(ctx, m.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// The mapping can be recreated after deletion.
	require.NoError(t, repo.Upsert(ctx, newMapping("n1", "c1", "Website")))
}

func TestProjectRepository_UpsertAll(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	mappings := []project.Mapping{
		*newMapping("n1", "c1", "One"),
		*newMapping("n2", "c2", "Two"),
	}
	require.NoError(t, repo.UpsertAll(ctx, mappings))
	require.NotZero(t, mappings[0].ID)
	require.NotZero(t, mappings[1].ID)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestProjectRepository_UpsertAllRollsBack(t *testing.T) {
	db := NewTestDB(t)
	repo := NewProjectRepository(db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TRIGGER reject_empty_name BEFORE INSERT ON projects
		WHEN NEW.name = '' BEGIN SELECT RAISE(ABORT, 'empty name'); END`)
	require.NoError(t, err)

	mappings := []project.Mapping{
		*newMapping("n1", "c1", "One"),
		*newMapping("n2", "c2", ""),
	}
	require.Error(t, repo.UpsertAll(ctx, mappings))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}
