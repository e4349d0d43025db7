package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"signstore/internal/entity"
	"signstore/internal/repository"
)

const projectCols = `id, name, COALESCE(description, ''), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// ProjectRepository implements repository.ProjectRepository for
// PostgreSQL.
type ProjectRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db DBTX, log *zap.SugaredLogger) *ProjectRepository {
	return &ProjectRepository{db: db, log: log}
}

func (r *ProjectRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanProject(row pgx.Row) (*entity.Project, error) {
	var p entity.Project
	var meta []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &meta, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	m, err := decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	p.Metadata = m
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]*entity.Project, error) {
	defer rows.Close()
	var out []*entity.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create validates and inserts the project, assigning its identity
// and timestamps.
func (r *ProjectRepository) Create(ctx context.Context, p *entity.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	meta, err := encodeMeta(p.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (name, description, metadata)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, p.Name, p.Description, meta).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &repository.DuplicateError{Kind: "Project", Field: "name", Value: p.Name}
		}
		return r.dbErr("create project", err)
	}
	r.log.Infow("created project", "id", p.ID, "name", p.Name)
	return nil
}

// GetByID retrieves a project by its identity.
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectCols)
	p, err := scanProject(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Project", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get project", err)
	}
	return p, nil
}

// GetByName retrieves a project by its unique name.
func (r *ProjectRepository) GetByName(ctx context.Context, name string) (*entity.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE name = $1`, projectCols)
	p, err := scanProject(r.db.QueryRow(ctx, query, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Project", ID: name}
	}
	if err != nil {
		return nil, r.dbErr("get project by name", err)
	}
	return p, nil
}

// List returns projects ordered by creation, newest first.
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]*entity.Project, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM projects
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, projectCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list projects", err)
	}
	out, err := collectProjects(rows)
	if err != nil {
		return nil, r.dbErr("list projects", err)
	}
	return out, nil
}

// Update applies the patch and returns the stored row. The updated_at
// bump comes from the table trigger.
func (r *ProjectRepository) Update(ctx context.Context, id int64, patch entity.ProjectPatch) (*entity.Project, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(p)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	meta, err := encodeMeta(p.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE projects
		SET name = $1, description = $2, metadata = $3
		WHERE id = $4
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, p.Name, p.Description, meta, id).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Project", ID: id}
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &repository.DuplicateError{Kind: "Project", Field: "name", Value: p.Name}
		}
		return nil, r.dbErr("update project", err)
	}
	r.log.Infow("updated project", "id", id)
	return p, nil
}

// Delete removes the project and, via cascade, its entire subtree.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "Project", ID: id}
	}
	r.log.Infow("deleted project", "id", id)
	return nil
}

// BulkCreate inserts all projects in one statement; either every row
// is inserted or none are. Names are checked for collisions, within
// the batch and against existing rows, before anything is written.
func (r *ProjectRepository) BulkCreate(ctx context.Context, projects []*entity.Project) error {
	if len(projects) == 0 {
		return nil
	}
	names := make([]string, len(projects))
	seen := make(map[string]bool, len(projects))
	for i, p := range projects {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return &repository.DuplicateError{Kind: "Project", Field: "name", Value: p.Name}
		}
		seen[p.Name] = true
		names[i] = p.Name
	}
	if err := r.checkNames(ctx, names); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO projects (name, description, metadata) VALUES `)
	args := make([]any, 0, len(projects)*3)
	for i, p := range projects {
		meta, err := encodeMeta(p.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d, $%d)", i*3+1, i*3+2, i*3+3)
		args = append(args, p.Name, p.Description, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create projects", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&projects[i].ID, &projects[i].CreatedAt, &projects[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create projects", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create projects", err)
	}
	r.log.Infow("bulk created projects", "count", len(projects))
	return nil
}

// checkNames reports the first batch name that already exists.
func (r *ProjectRepository) checkNames(ctx context.Context, names []string) error {
	rows, err := r.db.Query(ctx, `SELECT name FROM projects WHERE name = ANY($1)`, names)
	if err != nil {
		return r.dbErr("check project names", err)
	}
	taken, err := collectStrings(rows)
	if err != nil {
		return r.dbErr("check project names", err)
	}
	existing := make(map[string]bool, len(taken))
	for _, n := range taken {
		existing[n] = true
	}
	for _, n := range names {
		if existing[n] {
			return &repository.DuplicateError{Kind: "Project", Field: "name", Value: n}
		}
	}
	return nil
}

// Search matches the term against project names and descriptions,
// case-insensitively.
func (r *ProjectRepository) Search(ctx context.Context, query string, limit, offset int) ([]*entity.Project, error) {
	limit, offset = pageArgs(limit, offset)
	sql := fmt.Sprintf(`
		SELECT %s FROM projects
		WHERE name ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, projectCols)
	rows, err := r.db.Query(ctx, sql, likePattern(query), limit, offset)
	if err != nil {
		return nil, r.dbErr("search projects", err)
	}
	out, err := collectProjects(rows)
	if err != nil {
		return nil, r.dbErr("search projects", err)
	}
	return out, nil
}

// Statistics counts the project's descendants at every level and
// collects the distinct translation languages.
func (r *ProjectRepository) Statistics(ctx context.Context, id int64) (*repository.ProjectStats, error) {
	stats := &repository.ProjectStats{ProjectID: id}
	query := `
		SELECT
			p.name,
			COUNT(DISTINCT ts.id),
			COUNT(DISTINCT s.id),
			COUNT(DISTINCT tr.id),
			COUNT(DISTINCT v.id),
			COUNT(DISTINCT l.id)
		FROM projects p
		LEFT JOIN text_sources ts ON ts.project_id = p.id
		LEFT JOIN summaries s ON s.text_source_id = ts.id
		LEFT JOIN translations tr ON tr.text_source_id = ts.id
		LEFT JOIN videos v ON v.text_source_id = ts.id
		LEFT JOIN links l ON l.text_source_id = ts.id
		WHERE p.id = $1
		GROUP BY p.id, p.name
	`
	err := r.db.QueryRow(ctx, query, id).Scan(
		&stats.Name,
		&stats.TextSources,
		&stats.Summaries,
		&stats.Translations,
		&stats.Videos,
		&stats.Links,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Project", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("project statistics", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT tr.language_code
		FROM translations tr
		JOIN text_sources ts ON ts.id = tr.text_source_id
		WHERE ts.project_id = $1
		ORDER BY tr.language_code
	`, id)
	if err != nil {
		return nil, r.dbErr("project statistics", err)
	}
	stats.Languages, err = collectStrings(rows)
	if err != nil {
		return nil, r.dbErr("project statistics", err)
	}
	return stats, nil
}
