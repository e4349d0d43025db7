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

const textSourceCols = `id, project_id, title, content, COALESCE(source_type, ''), COALESCE(source_url, ''), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// TextSourceRepository implements repository.TextSourceRepository for
// PostgreSQL.
type TextSourceRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewTextSourceRepository creates a new TextSourceRepository.
func NewTextSourceRepository(db DBTX, log *zap.SugaredLogger) *TextSourceRepository {
	return &TextSourceRepository{db: db, log: log}
}

func (r *TextSourceRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanTextSource(row pgx.Row) (*entity.TextSource, error) {
	var s entity.TextSource
	var meta []byte
	err := row.Scan(&s.ID, &s.ProjectID, &s.Title, &s.Content, &s.SourceType, &s.SourceURL, &meta, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m, err := decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	s.Metadata = m
	return &s, nil
}

func collectTextSources(rows pgx.Rows) ([]*entity.TextSource, error) {
	defer rows.Close()
	var out []*entity.TextSource
	for rows.Next() {
		s, err := scanTextSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create validates and inserts the source. A missing parent project
// surfaces as NotFoundError rather than a raw constraint failure.
func (r *TextSourceRepository) Create(ctx context.Context, s *entity.TextSource) error {
	if err := s.Validate(); err != nil {
		return err
	}
	meta, err := encodeMeta(s.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO text_sources (project_id, title, content, source_type, source_url, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, s.ProjectID, s.Title, s.Content, s.SourceType, s.SourceURL, meta).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &repository.NotFoundError{Kind: "Project", ID: s.ProjectID}
		}
		return r.dbErr("create text source", err)
	}
	r.log.Infow("created text source", "id", s.ID, "project_id", s.ProjectID)
	return nil
}

// GetByID retrieves a text source by its identity.
func (r *TextSourceRepository) GetByID(ctx context.Context, id int64) (*entity.TextSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM text_sources WHERE id = $1`, textSourceCols)
	s, err := scanTextSource(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "TextSource", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get text source", err)
	}
	return s, nil
}

// List returns text sources across all projects, newest first.
func (r *TextSourceRepository) List(ctx context.Context, limit, offset int) ([]*entity.TextSource, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM text_sources
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, textSourceCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list text sources", err)
	}
	out, err := collectTextSources(rows)
	if err != nil {
		return nil, r.dbErr("list text sources", err)
	}
	return out, nil
}

// Update applies the patch. The project reference is immutable.
func (r *TextSourceRepository) Update(ctx context.Context, id int64, patch entity.TextSourcePatch) (*entity.TextSource, error) {
	s, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(s)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	meta, err := encodeMeta(s.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE text_sources
		SET title = $1, content = $2, source_type = $3, source_url = $4, metadata = $5
		WHERE id = $6
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, s.Title, s.Content, s.SourceType, s.SourceURL, meta, id).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "TextSource", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("update text source", err)
	}
	r.log.Infow("updated text source", "id", id)
	return s, nil
}

// Delete removes the source and, via cascade, its attachments.
func (r *TextSourceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM text_sources WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete text source", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "TextSource", ID: id}
	}
	r.log.Infow("deleted text source", "id", id)
	return nil
}

// BulkCreate inserts all sources in one statement. Every referenced
// project is verified up front; a missing one fails the whole batch
// with a NotFoundError naming the first absent parent.
func (r *TextSourceRepository) BulkCreate(ctx context.Context, sources []*entity.TextSource) error {
	if len(sources) == 0 {
		return nil
	}
	parents := make([]int64, len(sources))
	for i, s := range sources {
		if err := s.Validate(); err != nil {
			return err
		}
		parents[i] = s.ProjectID
	}
	if err := parentsExist(ctx, r.db, "projects", "Project", parents); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO text_sources (project_id, title, content, source_type, source_url, metadata) VALUES `)
	args := make([]any, 0, len(sources)*6)
	for i, s := range sources {
		meta, err := encodeMeta(s.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, s.ProjectID, s.Title, s.Content, s.SourceType, s.SourceURL, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create text sources", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&sources[i].ID, &sources[i].CreatedAt, &sources[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create text sources", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create text sources", err)
	}
	r.log.Infow("bulk created text sources", "count", len(sources))
	return nil
}

// GetByProject returns the sources of one project, newest first.
func (r *TextSourceRepository) GetByProject(ctx context.Context, projectID int64, limit, offset int) ([]*entity.TextSource, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM text_sources
		WHERE project_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, textSourceCols)
	rows, err := r.db.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, r.dbErr("get text sources by project", err)
	}
	out, err := collectTextSources(rows)
	if err != nil {
		return nil, r.dbErr("get text sources by project", err)
	}
	return out, nil
}

// GetByType returns sources of one source type across projects.
func (r *TextSourceRepository) GetByType(ctx context.Context, sourceType string, limit, offset int) ([]*entity.TextSource, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM text_sources
		WHERE source_type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, textSourceCols)
	rows, err := r.db.Query(ctx, query, sourceType, limit, offset)
	if err != nil {
		return nil, r.dbErr("get text sources by type", err)
	}
	out, err := collectTextSources(rows)
	if err != nil {
		return nil, r.dbErr("get text sources by type", err)
	}
	return out, nil
}

// SearchContent matches the term against titles and content,
// case-insensitively.
func (r *TextSourceRepository) SearchContent(ctx context.Context, query string, limit, offset int) ([]*entity.TextSource, error) {
	limit, offset = pageArgs(limit, offset)
	sql := fmt.Sprintf(`
		SELECT %s FROM text_sources
		WHERE title ILIKE $1 OR content ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, textSourceCols)
	rows, err := r.db.Query(ctx, sql, likePattern(query), limit, offset)
	if err != nil {
		return nil, r.dbErr("search text sources", err)
	}
	out, err := collectTextSources(rows)
	if err != nil {
		return nil, r.dbErr("search text sources", err)
	}
	return out, nil
}

// BulkUpdateByProject applies the patch to every source of a project
// and returns the number of rows touched. Only the patched columns
// change; content edits that would break validation are refused.
func (r *TextSourceRepository) BulkUpdateByProject(ctx context.Context, projectID int64, patch entity.TextSourcePatch) (int64, error) {
	set := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		if strings.TrimSpace(*patch.Content) == "" {
			return 0, &entity.ValidationError{Entity: "TextSource", Field: "content", Value: *patch.Content, Reason: "is required"}
		}
		add("content", *patch.Content)
	}
	if patch.SourceType != nil {
		add("source_type", *patch.SourceType)
	}
	if patch.SourceURL != nil {
		add("source_url", *patch.SourceURL)
	}
	if patch.Metadata != nil {
		meta, err := encodeMeta(patch.Metadata)
		if err != nil {
			return 0, err
		}
		add("metadata", meta)
	}
	if len(set) == 0 {
		return 0, nil
	}

	args = append(args, projectID)
	sql := fmt.Sprintf(`UPDATE text_sources SET %s WHERE project_id = $%d`, strings.Join(set, ", "), len(args))
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, r.dbErr("bulk update text sources", err)
	}
	r.log.Infow("bulk updated text sources", "project_id", projectID, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// Statistics aggregates the sources of one project by type.
func (r *TextSourceRepository) Statistics(ctx context.Context, projectID int64) (*repository.TextSourceStats, error) {
	stats := &repository.TextSourceStats{
		ProjectID: projectID,
		ByType:    make(map[string]int64),
	}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(LENGTH(content)), 0)
		FROM text_sources
		WHERE project_id = $1
	`, projectID).Scan(&stats.Total, &stats.ContentLength)
	if err != nil {
		return nil, r.dbErr("text source statistics", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(source_type, ''), COUNT(*)
		FROM text_sources
		WHERE project_id = $1
		GROUP BY source_type
	`, projectID)
	if err != nil {
		return nil, r.dbErr("text source statistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, r.dbErr("text source statistics", err)
		}
		stats.ByType[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("text source statistics", err)
	}
	return stats, nil
}
