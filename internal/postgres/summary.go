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

const summaryCols = `id, text_source_id, COALESCE(title, ''), content, COALESCE(summary_type, ''), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// SummaryRepository implements repository.SummaryRepository for
// PostgreSQL.
type SummaryRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(db DBTX, log *zap.SugaredLogger) *SummaryRepository {
	return &SummaryRepository{db: db, log: log}
}

func (r *SummaryRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanSummary(row pgx.Row) (*entity.Summary, error) {
	var s entity.Summary
	var meta []byte
	err := row.Scan(&s.ID, &s.TextSourceID, &s.Title, &s.Content, &s.SummaryType, &meta, &s.CreatedAt, &s.UpdatedAt)
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

func collectSummaries(rows pgx.Rows) ([]*entity.Summary, error) {
	defer rows.Close()
	var out []*entity.Summary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Create validates and inserts the summary.
func (r *SummaryRepository) Create(ctx context.Context, s *entity.Summary) error {
	if err := s.Validate(); err != nil {
		return err
	}
	meta, err := encodeMeta(s.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO summaries (text_source_id, title, content, summary_type, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, s.TextSourceID, s.Title, s.Content, s.SummaryType, meta).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &repository.NotFoundError{Kind: "TextSource", ID: s.TextSourceID}
		}
		return r.dbErr("create summary", err)
	}
	r.log.Infow("created summary", "id", s.ID, "text_source_id", s.TextSourceID)
	return nil
}

// GetByID retrieves a summary by its identity.
func (r *SummaryRepository) GetByID(ctx context.Context, id int64) (*entity.Summary, error) {
	query := fmt.Sprintf(`SELECT %s FROM summaries WHERE id = $1`, summaryCols)
	s, err := scanSummary(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Summary", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get summary", err)
	}
	return s, nil
}

// List returns summaries across all sources, newest first.
func (r *SummaryRepository) List(ctx context.Context, limit, offset int) ([]*entity.Summary, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM summaries
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, summaryCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list summaries", err)
	}
	out, err := collectSummaries(rows)
	if err != nil {
		return nil, r.dbErr("list summaries", err)
	}
	return out, nil
}

// Update applies the patch. The source reference is immutable.
func (r *SummaryRepository) Update(ctx context.Context, id int64, patch entity.SummaryPatch) (*entity.Summary, error) {
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
		UPDATE summaries
		SET title = $1, content = $2, summary_type = $3, metadata = $4
		WHERE id = $5
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, s.Title, s.Content, s.SummaryType, meta, id).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Summary", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("update summary", err)
	}
	r.log.Infow("updated summary", "id", id)
	return s, nil
}

// Delete removes the summary.
func (r *SummaryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM summaries WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete summary", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "Summary", ID: id}
	}
	r.log.Infow("deleted summary", "id", id)
	return nil
}

// BulkCreate inserts all summaries in one statement.
func (r *SummaryRepository) BulkCreate(ctx context.Context, summaries []*entity.Summary) error {
	if len(summaries) == 0 {
		return nil
	}
	parents := make([]int64, len(summaries))
	for i, s := range summaries {
		if err := s.Validate(); err != nil {
			return err
		}
		parents[i] = s.TextSourceID
	}
	if err := parentsExist(ctx, r.db, "text_sources", "TextSource", parents); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO summaries (text_source_id, title, content, summary_type, metadata) VALUES `)
	args := make([]any, 0, len(summaries)*5)
	for i, s := range summaries {
		meta, err := encodeMeta(s.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5)
		args = append(args, s.TextSourceID, s.Title, s.Content, s.SummaryType, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create summaries", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&summaries[i].ID, &summaries[i].CreatedAt, &summaries[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create summaries", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create summaries", err)
	}
	r.log.Infow("bulk created summaries", "count", len(summaries))
	return nil
}

// GetBySource returns every summary of one text source, newest first.
func (r *SummaryRepository) GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Summary, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM summaries
		WHERE text_source_id = $1
		ORDER BY created_at DESC, id DESC
	`, summaryCols)
	rows, err := r.db.Query(ctx, query, textSourceID)
	if err != nil {
		return nil, r.dbErr("get summaries by source", err)
	}
	out, err := collectSummaries(rows)
	if err != nil {
		return nil, r.dbErr("get summaries by source", err)
	}
	return out, nil
}

// GetByType returns summaries of one type across all sources.
func (r *SummaryRepository) GetByType(ctx context.Context, summaryType string, limit, offset int) ([]*entity.Summary, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM summaries
		WHERE summary_type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, summaryCols)
	rows, err := r.db.Query(ctx, query, summaryType, limit, offset)
	if err != nil {
		return nil, r.dbErr("get summaries by type", err)
	}
	out, err := collectSummaries(rows)
	if err != nil {
		return nil, r.dbErr("get summaries by type", err)
	}
	return out, nil
}

// GetByProjectType returns the summaries of one type across all
// sources of one project.
func (r *SummaryRepository) GetByProjectType(ctx context.Context, projectID int64, summaryType string) ([]*entity.Summary, error) {
	query := `
		SELECT s.id, s.text_source_id, COALESCE(s.title, ''), s.content,
		       COALESCE(s.summary_type, ''), COALESCE(s.metadata, '{}'::jsonb),
		       s.created_at, s.updated_at
		FROM summaries s
		JOIN text_sources ts ON ts.id = s.text_source_id
		WHERE ts.project_id = $1 AND s.summary_type = $2
		ORDER BY s.created_at DESC, s.id DESC
	`
	rows, err := r.db.Query(ctx, query, projectID, summaryType)
	if err != nil {
		return nil, r.dbErr("get summaries by project type", err)
	}
	out, err := collectSummaries(rows)
	if err != nil {
		return nil, r.dbErr("get summaries by project type", err)
	}
	return out, nil
}

// SearchContent matches the term against titles and content,
// case-insensitively.
func (r *SummaryRepository) SearchContent(ctx context.Context, query string, limit, offset int) ([]*entity.Summary, error) {
	limit, offset = pageArgs(limit, offset)
	sql := fmt.Sprintf(`
		SELECT %s FROM summaries
		WHERE title ILIKE $1 OR content ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, summaryCols)
	rows, err := r.db.Query(ctx, sql, likePattern(query), limit, offset)
	if err != nil {
		return nil, r.dbErr("search summaries", err)
	}
	out, err := collectSummaries(rows)
	if err != nil {
		return nil, r.dbErr("search summaries", err)
	}
	return out, nil
}

// AvailableTypes lists the distinct summary types in use.
func (r *SummaryRepository) AvailableTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT COALESCE(summary_type, '')
		FROM summaries
		ORDER BY 1
	`)
	if err != nil {
		return nil, r.dbErr("summary types", err)
	}
	out, err := collectStrings(rows)
	if err != nil {
		return nil, r.dbErr("summary types", err)
	}
	return out, nil
}
