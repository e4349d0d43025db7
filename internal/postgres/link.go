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

const linkCols = `id, text_source_id, url, COALESCE(title, ''), COALESCE(description, ''), COALESCE(link_type, ''), COALESCE(is_active, TRUE), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// LinkRepository implements repository.LinkRepository for PostgreSQL.
// Deactivation is the soft-delete path; Delete removes the row.
type LinkRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewLinkRepository creates a new LinkRepository.
func NewLinkRepository(db DBTX, log *zap.SugaredLogger) *LinkRepository {
	return &LinkRepository{db: db, log: log}
}

func (r *LinkRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanLink(row pgx.Row) (*entity.Link, error) {
	var l entity.Link
	var meta []byte
	err := row.Scan(&l.ID, &l.TextSourceID, &l.URL, &l.Title, &l.Description,
		&l.LinkType, &l.IsActive, &meta, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.Metadata, err = decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func collectLinks(rows pgx.Rows) ([]*entity.Link, error) {
	defer rows.Close()
	var out []*entity.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Create validates and inserts the link.
func (r *LinkRepository) Create(ctx context.Context, l *entity.Link) error {
	if err := l.Validate(); err != nil {
		return err
	}
	meta, err := encodeMeta(l.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO links (text_source_id, url, title, description, link_type, is_active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, l.TextSourceID, l.URL, l.Title, l.Description, l.LinkType, l.IsActive, meta).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &repository.NotFoundError{Kind: "TextSource", ID: l.TextSourceID}
		}
		return r.dbErr("create link", err)
	}
	r.log.Infow("created link", "id", l.ID, "text_source_id", l.TextSourceID)
	return nil
}

// GetByID retrieves a link by its identity, active or not.
func (r *LinkRepository) GetByID(ctx context.Context, id int64) (*entity.Link, error) {
	query := fmt.Sprintf(`SELECT %s FROM links WHERE id = $1`, linkCols)
	l, err := scanLink(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Link", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get link", err)
	}
	return l, nil
}

// List returns links across all sources, newest first.
func (r *LinkRepository) List(ctx context.Context, limit, offset int) ([]*entity.Link, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM links
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, linkCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list links", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("list links", err)
	}
	return out, nil
}

// Update applies the patch. The source reference is immutable.
func (r *LinkRepository) Update(ctx context.Context, id int64, patch entity.LinkPatch) (*entity.Link, error) {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(l)
	if err := l.Validate(); err != nil {
		return nil, err
	}
	meta, err := encodeMeta(l.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE links
		SET url = $1, title = $2, description = $3, link_type = $4, is_active = $5, metadata = $6
		WHERE id = $7
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, l.URL, l.Title, l.Description, l.LinkType, l.IsActive, meta, id).
		Scan(&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Link", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("update link", err)
	}
	r.log.Infow("updated link", "id", id)
	return l, nil
}

// Delete removes the link row permanently. Deactivate is the
// reversible alternative.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete link", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "Link", ID: id}
	}
	r.log.Infow("deleted link", "id", id)
	return nil
}

// BulkCreate inserts all links in one statement.
func (r *LinkRepository) BulkCreate(ctx context.Context, links []*entity.Link) error {
	if len(links) == 0 {
		return nil
	}
	parents := make([]int64, len(links))
	for i, l := range links {
		if err := l.Validate(); err != nil {
			return err
		}
		parents[i] = l.TextSourceID
	}
	if err := parentsExist(ctx, r.db, "text_sources", "TextSource", parents); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO links (text_source_id, url, title, description, link_type, is_active, metadata) VALUES `)
	args := make([]any, 0, len(links)*7)
	for i, l := range links {
		meta, err := encodeMeta(l.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 7
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)
		args = append(args, l.TextSourceID, l.URL, l.Title, l.Description, l.LinkType, l.IsActive, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create links", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&links[i].ID, &links[i].CreatedAt, &links[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create links", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create links", err)
	}
	r.log.Infow("bulk created links", "count", len(links))
	return nil
}

// GetBySource returns every link of one text source, active or not.
func (r *LinkRepository) GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Link, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM links
		WHERE text_source_id = $1
		ORDER BY created_at DESC, id DESC
	`, linkCols)
	rows, err := r.db.Query(ctx, query, textSourceID)
	if err != nil {
		return nil, r.dbErr("get links by source", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("get links by source", err)
	}
	return out, nil
}

// GetActiveBySource returns only the active links of one text source.
func (r *LinkRepository) GetActiveBySource(ctx context.Context, textSourceID int64) ([]*entity.Link, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM links
		WHERE text_source_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC, id DESC
	`, linkCols)
	rows, err := r.db.Query(ctx, query, textSourceID)
	if err != nil {
		return nil, r.dbErr("get active links by source", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("get active links by source", err)
	}
	return out, nil
}

// GetByType returns links of one type across all sources.
func (r *LinkRepository) GetByType(ctx context.Context, linkType string, limit, offset int) ([]*entity.Link, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM links
		WHERE link_type = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, linkCols)
	rows, err := r.db.Query(ctx, query, linkType, limit, offset)
	if err != nil {
		return nil, r.dbErr("get links by type", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("get links by type", err)
	}
	return out, nil
}

// GetByProjectType returns the links of one type across all sources of
// one project.
func (r *LinkRepository) GetByProjectType(ctx context.Context, projectID int64, linkType string) ([]*entity.Link, error) {
	query := `
		SELECT l.id, l.text_source_id, l.url, COALESCE(l.title, ''),
		       COALESCE(l.description, ''), COALESCE(l.link_type, ''),
		       COALESCE(l.is_active, TRUE), COALESCE(l.metadata, '{}'::jsonb),
		       l.created_at, l.updated_at
		FROM links l
		JOIN text_sources ts ON ts.id = l.text_source_id
		WHERE ts.project_id = $1 AND l.link_type = $2
		ORDER BY l.created_at DESC, l.id DESC
	`
	rows, err := r.db.Query(ctx, query, projectID, linkType)
	if err != nil {
		return nil, r.dbErr("get links by project type", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("get links by project type", err)
	}
	return out, nil
}

// GetByDomain returns links whose URL mentions the given host.
func (r *LinkRepository) GetByDomain(ctx context.Context, domain string, limit, offset int) ([]*entity.Link, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM links
		WHERE url ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, linkCols)
	rows, err := r.db.Query(ctx, query, likePattern(domain), limit, offset)
	if err != nil {
		return nil, r.dbErr("get links by domain", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("get links by domain", err)
	}
	return out, nil
}

// Search matches the term against URLs, titles, and descriptions,
// case-insensitively.
func (r *LinkRepository) Search(ctx context.Context, query string, limit, offset int) ([]*entity.Link, error) {
	limit, offset = pageArgs(limit, offset)
	sql := fmt.Sprintf(`
		SELECT %s FROM links
		WHERE url ILIKE $1 OR title ILIKE $1 OR description ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, linkCols)
	rows, err := r.db.Query(ctx, sql, likePattern(query), limit, offset)
	if err != nil {
		return nil, r.dbErr("search links", err)
	}
	out, err := collectLinks(rows)
	if err != nil {
		return nil, r.dbErr("search links", err)
	}
	return out, nil
}

// Deactivate soft-deletes the link and returns its stored state.
func (r *LinkRepository) Deactivate(ctx context.Context, id int64) (*entity.Link, error) {
	return r.setActive(ctx, id, false)
}

// Activate restores a soft-deleted link.
func (r *LinkRepository) Activate(ctx context.Context, id int64) (*entity.Link, error) {
	return r.setActive(ctx, id, true)
}

func (r *LinkRepository) setActive(ctx context.Context, id int64, active bool) (*entity.Link, error) {
	query := fmt.Sprintf(`
		UPDATE links SET is_active = $1 WHERE id = $2
		RETURNING %s
	`, linkCols)
	l, err := scanLink(r.db.QueryRow(ctx, query, active, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Link", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("set link active", err)
	}
	r.log.Infow("set link active state", "id", id, "active", active)
	return l, nil
}

// DeactivateByDomain soft-deletes every active link whose URL mentions
// the host and returns the number of links touched.
func (r *LinkRepository) DeactivateByDomain(ctx context.Context, domain string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE links SET is_active = FALSE
		WHERE is_active = TRUE AND url ILIKE $1
	`, likePattern(domain))
	if err != nil {
		return 0, r.dbErr("deactivate links by domain", err)
	}
	r.log.Infow("deactivated links by domain", "domain", domain, "count", tag.RowsAffected())
	return tag.RowsAffected(), nil
}

// AvailableTypes lists the distinct link types in use.
func (r *LinkRepository) AvailableTypes(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT COALESCE(link_type, '')
		FROM links
		ORDER BY 1
	`)
	if err != nil {
		return nil, r.dbErr("link types", err)
	}
	out, err := collectStrings(rows)
	if err != nil {
		return nil, r.dbErr("link types", err)
	}
	return out, nil
}

// Statistics aggregates the link catalog.
func (r *LinkRepository) Statistics(ctx context.Context) (*repository.LinkStats, error) {
	stats := &repository.LinkStats{ByType: make(map[string]int64)}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active)
		FROM links
	`).Scan(&stats.Total, &stats.Active, &stats.Inactive)
	if err != nil {
		return nil, r.dbErr("link statistics", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(link_type, ''), COUNT(*)
		FROM links
		GROUP BY link_type
	`)
	if err != nil {
		return nil, r.dbErr("link statistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, r.dbErr("link statistics", err)
		}
		stats.ByType[kind] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("link statistics", err)
	}
	return stats, nil
}
