package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/notiontime/internal/domain/project"
	"github.com/rpggio/notiontime/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, notion_id, clockify_id, name, emoji, color, billable, public, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMapping(row rowScanner) (*project.Mapping, error) {
	var (
		m     project.Mapping
		emoji sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.NotionID,
		&m.ClockifyID,
		&m.Name,
		&emoji,
		&m.Color,
		&m.Billable,
		&m.Public,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Emoji = emoji.String
	return &m, nil
}

// Load returns every mapping keyed by Notion id.
func (r *ProjectRepository) Load(ctx context.Context) (map[string]project.Mapping, error) {
	list, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	mappings := make(map[string]project.Mapping, len(list))
	for _, m := range list {
		mappings[m.NotionID] = m
	}
	return mappings, nil
}

// Get retrieves the mapping for a Notion project.
func (r *ProjectRepository) Get(ctx context.Context, notionID string) (*project.Mapping, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE notion_id = ?`

	m, err := scanMapping(r.db.QueryRowContext(ctx, query, notionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return m, nil
}

const upsertQuery = `
	INSERT INTO projects (notion_id, clockify_id, name, emoji, color, billable, public, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(notion_id) DO UPDATE SET
		clockify_id = excluded.clockify_id,
		name = excluded.name,
		emoji = excluded.emoji,
		color = excluded.color,
		billable = excluded.billable,
		public = excluded.public,
		updated_at = excluded.updated_at
	RETURNING id
`

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsert(ctx context.Context, q rowQuerier, m *project.Mapping) error {
	return q.QueryRowContext(ctx, upsertQuery,
		m.NotionID,
		m.ClockifyID,
		m.Name,
		nullString(m.Emoji),
		m.Color,
		m.Billable,
		m.Public,
		m.CreatedAt.UTC(),
		m.UpdatedAt.UTC(),
	).Scan(&m.ID)
}

// Upsert inserts or replaces the mapping keyed by its Notion id and sets m.ID.
// An existing row keeps its created_at.
func (r *ProjectRepository) Upsert(ctx context.Context, m *project.Mapping) error {
	if err := upsert(ctx, r.db, m); err != nil {
		return fmt.Errorf("failed to upsert project: %w", err)
	}
	return nil
}

// UpsertAll writes all mappings in one transaction.
func (r *ProjectRepository) UpsertAll(ctx context.Context, mappings []project.Mapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range mappings {
		if err := upsert(ctx, tx, &mappings[i]); err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", mappings[i].NotionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// List returns all mappings ordered by id.
func (r *ProjectRepository) List(ctx context.Context) ([]project.Mapping, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	mappings := []project.Mapping{}
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		mappings = append(mappings, *m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project rows: %w", err)
	}

	return mappings, nil
}

// Delete removes the mapping with the given id and returns it.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) (*project.Mapping, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	m, err := scanMapping(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("failed to delete project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return m, nil
}
