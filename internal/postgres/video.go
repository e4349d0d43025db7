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

const videoCols = `id, text_source_id, COALESCE(title, ''), file_path, COALESCE(file_url, ''), file_size, duration, COALESCE(format, ''), COALESCE(thumbnail_path, ''), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// VideoRepository implements repository.VideoRepository for
// PostgreSQL.
type VideoRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewVideoRepository creates a new VideoRepository.
func NewVideoRepository(db DBTX, log *zap.SugaredLogger) *VideoRepository {
	return &VideoRepository{db: db, log: log}
}

func (r *VideoRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanVideo(row pgx.Row) (*entity.Video, error) {
	var v entity.Video
	var meta []byte
	err := row.Scan(&v.ID, &v.TextSourceID, &v.Title, &v.FilePath, &v.FileURL,
		&v.FileSize, &v.Duration, &v.Format, &v.ThumbnailPath, &meta, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	v.Metadata, err = decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVideos(rows pgx.Rows) ([]*entity.Video, error) {
	defer rows.Close()
	var out []*entity.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Create validates and inserts the video.
func (r *VideoRepository) Create(ctx context.Context, v *entity.Video) error {
	if err := v.Validate(); err != nil {
		return err
	}
	meta, err := encodeMeta(v.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO videos (text_source_id, title, file_path, file_url, file_size, duration, format, thumbnail_path, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, v.TextSourceID, v.Title, v.FilePath, v.FileURL,
		v.FileSize, v.Duration, v.Format, v.ThumbnailPath, meta).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &repository.NotFoundError{Kind: "TextSource", ID: v.TextSourceID}
		}
		return r.dbErr("create video", err)
	}
	r.log.Infow("created video", "id", v.ID, "text_source_id", v.TextSourceID)
	return nil
}

// GetByID retrieves a video by its identity.
func (r *VideoRepository) GetByID(ctx context.Context, id int64) (*entity.Video, error) {
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE id = $1`, videoCols)
	v, err := scanVideo(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Video", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get video", err)
	}
	return v, nil
}

// List returns videos across all sources, newest first.
func (r *VideoRepository) List(ctx context.Context, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, videoCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list videos", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("list videos", err)
	}
	return out, nil
}

// Update applies the patch. The source reference is immutable.
func (r *VideoRepository) Update(ctx context.Context, id int64, patch entity.VideoPatch) (*entity.Video, error) {
	v, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(v)
	if err := v.Validate(); err != nil {
		return nil, err
	}
	meta, err := encodeMeta(v.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE videos
		SET title = $1, file_path = $2, file_url = $3, file_size = $4,
		    duration = $5, format = $6, thumbnail_path = $7, metadata = $8
		WHERE id = $9
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, v.Title, v.FilePath, v.FileURL, v.FileSize,
		v.Duration, v.Format, v.ThumbnailPath, meta, id).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Video", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("update video", err)
	}
	r.log.Infow("updated video", "id", id)
	return v, nil
}

// Delete removes the video row. The file on disk is not touched.
func (r *VideoRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete video", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "Video", ID: id}
	}
	r.log.Infow("deleted video", "id", id)
	return nil
}

// BulkCreate inserts all videos in one statement.
func (r *VideoRepository) BulkCreate(ctx context.Context, videos []*entity.Video) error {
	if len(videos) == 0 {
		return nil
	}
	parents := make([]int64, len(videos))
	for i, v := range videos {
		if err := v.Validate(); err != nil {
			return err
		}
		parents[i] = v.TextSourceID
	}
	if err := parentsExist(ctx, r.db, "text_sources", "TextSource", parents); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO videos (text_source_id, title, file_path, file_url, file_size, duration, format, thumbnail_path, metadata) VALUES `)
	args := make([]any, 0, len(videos)*9)
	for i, v := range videos {
		meta, err := encodeMeta(v.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args, v.TextSourceID, v.Title, v.FilePath, v.FileURL,
			v.FileSize, v.Duration, v.Format, v.ThumbnailPath, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create videos", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&videos[i].ID, &videos[i].CreatedAt, &videos[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create videos", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create videos", err)
	}
	r.log.Infow("bulk created videos", "count", len(videos))
	return nil
}

// GetBySource returns every video of one text source.
func (r *VideoRepository) GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Video, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE text_source_id = $1
		ORDER BY created_at DESC, id DESC
	`, videoCols)
	rows, err := r.db.Query(ctx, query, textSourceID)
	if err != nil {
		return nil, r.dbErr("get videos by source", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("get videos by source", err)
	}
	return out, nil
}

// GetByFormat returns videos in one container format.
func (r *VideoRepository) GetByFormat(ctx context.Context, format string, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE format = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, videoCols)
	rows, err := r.db.Query(ctx, query, format, limit, offset)
	if err != nil {
		return nil, r.dbErr("get videos by format", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("get videos by format", err)
	}
	return out, nil
}

// GetByProject returns the videos attached to any source of one
// project.
func (r *VideoRepository) GetByProject(ctx context.Context, projectID int64, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	query := `
		SELECT v.id, v.text_source_id, COALESCE(v.title, ''), v.file_path,
		       COALESCE(v.file_url, ''), v.file_size, v.duration,
		       COALESCE(v.format, ''), COALESCE(v.thumbnail_path, ''),
		       COALESCE(v.metadata, '{}'::jsonb), v.created_at, v.updated_at
		FROM videos v
		JOIN text_sources ts ON ts.id = v.text_source_id
		WHERE ts.project_id = $1
		ORDER BY v.created_at DESC, v.id DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, projectID, limit, offset)
	if err != nil {
		return nil, r.dbErr("get videos by project", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("get videos by project", err)
	}
	return out, nil
}

// SearchByTitle matches the term against video titles,
// case-insensitively.
func (r *VideoRepository) SearchByTitle(ctx context.Context, query string, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	sql := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE title ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, videoCols)
	rows, err := r.db.Query(ctx, sql, likePattern(query), limit, offset)
	if err != nil {
		return nil, r.dbErr("search videos", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("search videos", err)
	}
	return out, nil
}

// GetByDurationRange returns videos whose duration in seconds falls in
// [minSeconds, maxSeconds]. Videos without a known duration are
// excluded.
func (r *VideoRepository) GetByDurationRange(ctx context.Context, minSeconds, maxSeconds int64, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE duration BETWEEN $1 AND $2
		ORDER BY duration, id
		LIMIT $3 OFFSET $4
	`, videoCols)
	rows, err := r.db.Query(ctx, query, minSeconds, maxSeconds, limit, offset)
	if err != nil {
		return nil, r.dbErr("get videos by duration", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("get videos by duration", err)
	}
	return out, nil
}

// GetByFileSizeRange returns videos whose size in bytes falls in
// [minBytes, maxBytes]. Videos without a known size are excluded.
func (r *VideoRepository) GetByFileSizeRange(ctx context.Context, minBytes, maxBytes int64, limit, offset int) ([]*entity.Video, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM videos
		WHERE file_size BETWEEN $1 AND $2
		ORDER BY file_size, id
		LIMIT $3 OFFSET $4
	`, videoCols)
	rows, err := r.db.Query(ctx, query, minBytes, maxBytes, limit, offset)
	if err != nil {
		return nil, r.dbErr("get videos by file size", err)
	}
	out, err := collectVideos(rows)
	if err != nil {
		return nil, r.dbErr("get videos by file size", err)
	}
	return out, nil
}

// AvailableFormats lists the distinct container formats in use.
func (r *VideoRepository) AvailableFormats(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT format
		FROM videos
		WHERE format IS NOT NULL AND format <> ''
		ORDER BY format
	`)
	if err != nil {
		return nil, r.dbErr("video formats", err)
	}
	out, err := collectStrings(rows)
	if err != nil {
		return nil, r.dbErr("video formats", err)
	}
	return out, nil
}

// Statistics aggregates the video catalog: totals, combined duration
// and storage, and a per-format breakdown.
func (r *VideoRepository) Statistics(ctx context.Context) (*repository.VideoStats, error) {
	stats := &repository.VideoStats{ByFormat: make(map[string]int64)}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(file_size), 0),
			COALESCE(SUM(duration), 0),
			COALESCE(AVG(duration), 0)
		FROM videos
	`).Scan(&stats.Total, &stats.TotalBytes, &stats.TotalDuration, &stats.AverageDuration)
	if err != nil {
		return nil, r.dbErr("video statistics", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT COALESCE(format, ''), COUNT(*)
		FROM videos
		GROUP BY format
	`)
	if err != nil {
		return nil, r.dbErr("video statistics", err)
	}
	defer rows.Close()
	for rows.Next() {
		var format string
		var count int64
		if err := rows.Scan(&format, &count); err != nil {
			return nil, r.dbErr("video statistics", err)
		}
		stats.ByFormat[format] = count
	}
	if err := rows.Err(); err != nil {
		return nil, r.dbErr("video statistics", err)
	}
	return stats, nil
}
