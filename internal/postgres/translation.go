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

const translationCols = `id, text_source_id, language_code, COALESCE(title, ''), tokens, COALESCE(original_text, ''), COALESCE(metadata, '{}'::jsonb), created_at, updated_at`

// TranslationRepository implements repository.TranslationRepository
// for PostgreSQL. Tokens live in a JSONB column and keep their
// positions through storage.
type TranslationRepository struct {
	db  DBTX
	log *zap.SugaredLogger
}

// NewTranslationRepository creates a new TranslationRepository.
func NewTranslationRepository(db DBTX, log *zap.SugaredLogger) *TranslationRepository {
	return &TranslationRepository{db: db, log: log}
}

func (r *TranslationRepository) dbErr(op string, err error) error {
	r.log.Errorw(op+" failed", "error", err)
	return wrapError(op, err)
}

func scanTranslation(row pgx.Row) (*entity.Translation, error) {
	var t entity.Translation
	var tokens, meta []byte
	err := row.Scan(&t.ID, &t.TextSourceID, &t.LanguageCode, &t.Title, &tokens, &t.OriginalText, &meta, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Tokens, err = decodeTokens(tokens)
	if err != nil {
		return nil, err
	}
	t.Metadata, err = decodeMeta(meta)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTranslations(rows pgx.Rows) ([]*entity.Translation, error) {
	defer rows.Close()
	var out []*entity.Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Create validates and inserts the translation.
func (r *TranslationRepository) Create(ctx context.Context, t *entity.Translation) error {
	if err := t.Validate(); err != nil {
		return err
	}
	tokens, err := encodeTokens(t.Tokens)
	if err != nil {
		return err
	}
	meta, err := encodeMeta(t.Metadata)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO translations (text_source_id, language_code, title, tokens, original_text, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, t.TextSourceID, t.LanguageCode, t.Title, tokens, t.OriginalText, meta).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return &repository.NotFoundError{Kind: "TextSource", ID: t.TextSourceID}
		}
		return r.dbErr("create translation", err)
	}
	r.log.Infow("created translation", "id", t.ID, "text_source_id", t.TextSourceID)
	return nil
}

// GetByID retrieves a translation by its identity.
func (r *TranslationRepository) GetByID(ctx context.Context, id int64) (*entity.Translation, error) {
	query := fmt.Sprintf(`SELECT %s FROM translations WHERE id = $1`, translationCols)
	t, err := scanTranslation(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Translation", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("get translation", err)
	}
	return t, nil
}

// List returns translations across all sources, newest first.
func (r *TranslationRepository) List(ctx context.Context, limit, offset int) ([]*entity.Translation, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM translations
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`, translationCols)
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, r.dbErr("list translations", err)
	}
	out, err := collectTranslations(rows)
	if err != nil {
		return nil, r.dbErr("list translations", err)
	}
	return out, nil
}

// Update applies the patch. The source reference and language code
// are immutable.
func (r *TranslationRepository) Update(ctx context.Context, id int64, patch entity.TranslationPatch) (*entity.Translation, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(t)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tokens, err := encodeTokens(t.Tokens)
	if err != nil {
		return nil, err
	}
	meta, err := encodeMeta(t.Metadata)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE translations
		SET title = $1, tokens = $2, original_text = $3, metadata = $4
		WHERE id = $5
		RETURNING created_at, updated_at
	`
	err = r.db.QueryRow(ctx, query, t.Title, tokens, t.OriginalText, meta, id).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &repository.NotFoundError{Kind: "Translation", ID: id}
	}
	if err != nil {
		return nil, r.dbErr("update translation", err)
	}
	r.log.Infow("updated translation", "id", id)
	return t, nil
}

// Delete removes the translation.
func (r *TranslationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM translations WHERE id = $1`, id)
	if err != nil {
		return r.dbErr("delete translation", err)
	}
	if tag.RowsAffected() == 0 {
		return &repository.NotFoundError{Kind: "Translation", ID: id}
	}
	r.log.Infow("deleted translation", "id", id)
	return nil
}

// BulkCreate inserts all translations in one statement.
func (r *TranslationRepository) BulkCreate(ctx context.Context, translations []*entity.Translation) error {
	if len(translations) == 0 {
		return nil
	}
	parents := make([]int64, len(translations))
	for i, t := range translations {
		if err := t.Validate(); err != nil {
			return err
		}
		parents[i] = t.TextSourceID
	}
	if err := parentsExist(ctx, r.db, "text_sources", "TextSource", parents); err != nil {
		return err
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO translations (text_source_id, language_code, title, tokens, original_text, metadata) VALUES `)
	args := make([]any, 0, len(translations)*6)
	for i, t := range translations {
		tokens, err := encodeTokens(t.Tokens)
		if err != nil {
			return err
		}
		meta, err := encodeMeta(t.Metadata)
		if err != nil {
			return err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 6
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4, base+5, base+6)
		args = append(args, t.TextSourceID, t.LanguageCode, t.Title, tokens, t.OriginalText, meta)
	}
	sb.WriteString(` RETURNING id, created_at, updated_at`)

	rows, err := r.db.Query(ctx, sb.String(), args...)
	if err != nil {
		return r.dbErr("bulk create translations", err)
	}
	defer rows.Close()
	for i := 0; rows.Next(); i++ {
		if err := rows.Scan(&translations[i].ID, &translations[i].CreatedAt, &translations[i].UpdatedAt); err != nil {
			return r.dbErr("bulk create translations", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.dbErr("bulk create translations", err)
	}
	r.log.Infow("bulk created translations", "count", len(translations))
	return nil
}

// GetBySource returns every translation of one text source.
func (r *TranslationRepository) GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Translation, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM translations
		WHERE text_source_id = $1
		ORDER BY language_code, id
	`, translationCols)
	rows, err := r.db.Query(ctx, query, textSourceID)
	if err != nil {
		return nil, r.dbErr("get translations by source", err)
	}
	out, err := collectTranslations(rows)
	if err != nil {
		return nil, r.dbErr("get translations by source", err)
	}
	return out, nil
}

// GetByLanguage returns translations in one language across sources.
func (r *TranslationRepository) GetByLanguage(ctx context.Context, languageCode string, limit, offset int) ([]*entity.Translation, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM translations
		WHERE language_code = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, translationCols)
	rows, err := r.db.Query(ctx, query, languageCode, limit, offset)
	if err != nil {
		return nil, r.dbErr("get translations by language", err)
	}
	out, err := collectTranslations(rows)
	if err != nil {
		return nil, r.dbErr("get translations by language", err)
	}
	return out, nil
}

// GetByProjectLanguage returns the translations in one language across
// all sources of one project.
func (r *TranslationRepository) GetByProjectLanguage(ctx context.Context, projectID int64, languageCode string) ([]*entity.Translation, error) {
	query := `
		SELECT t.id, t.text_source_id, t.language_code, COALESCE(t.title, ''),
		       t.tokens, COALESCE(t.original_text, ''), COALESCE(t.metadata, '{}'::jsonb),
		       t.created_at, t.updated_at
		FROM translations t
		JOIN text_sources ts ON ts.id = t.text_source_id
		WHERE ts.project_id = $1 AND t.language_code = $2
		ORDER BY t.created_at DESC, t.id DESC
	`
	rows, err := r.db.Query(ctx, query, projectID, languageCode)
	if err != nil {
		return nil, r.dbErr("get translations by project language", err)
	}
	out, err := collectTranslations(rows)
	if err != nil {
		return nil, r.dbErr("get translations by project language", err)
	}
	return out, nil
}

// SearchTokens returns translations containing a token whose text
// matches the term, case-insensitively.
func (r *TranslationRepository) SearchTokens(ctx context.Context, token string, limit, offset int) ([]*entity.Translation, error) {
	limit, offset = pageArgs(limit, offset)
	query := fmt.Sprintf(`
		SELECT %s FROM translations
		WHERE EXISTS (
			SELECT 1 FROM jsonb_array_elements(tokens) AS tok
			WHERE tok->>'token' ILIKE $1
		)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, translationCols)
	rows, err := r.db.Query(ctx, query, likePattern(token), limit, offset)
	if err != nil {
		return nil, r.dbErr("search translation tokens", err)
	}
	out, err := collectTranslations(rows)
	if err != nil {
		return nil, r.dbErr("search translation tokens", err)
	}
	return out, nil
}

// AvailableLanguages lists the distinct language codes in use.
func (r *TranslationRepository) AvailableLanguages(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT language_code
		FROM translations
		ORDER BY language_code
	`)
	if err != nil {
		return nil, r.dbErr("translation languages", err)
	}
	out, err := collectStrings(rows)
	if err != nil {
		return nil, r.dbErr("translation languages", err)
	}
	return out, nil
}

// TokenStatistics aggregates token counts for one language.
func (r *TranslationRepository) TokenStatistics(ctx context.Context, languageCode string) (*repository.TokenStats, error) {
	stats := &repository.TokenStats{LanguageCode: languageCode}
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(jsonb_array_length(tokens)), 0),
			COALESCE(AVG(jsonb_array_length(tokens)), 0),
			COALESCE(MIN(jsonb_array_length(tokens)), 0),
			COALESCE(MAX(jsonb_array_length(tokens)), 0)
		FROM translations
		WHERE language_code = $1
	`
	err := r.db.QueryRow(ctx, query, languageCode).Scan(
		&stats.Translations,
		&stats.TotalTokens,
		&stats.AverageTokens,
		&stats.MinTokens,
		&stats.MaxTokens,
	)
	if err != nil {
		return nil, r.dbErr("token statistics", err)
	}
	return stats, nil
}
