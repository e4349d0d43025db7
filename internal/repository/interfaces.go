// Package repository defines the persistence contracts for the content
// graph and the error taxonomy shared by all storage backends.
package repository

import (
	"context"

	"signstore/internal/entity"
)

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, p *entity.Project) error
	GetByID(ctx context.Context, id int64) (*entity.Project, error)
	GetByName(ctx context.Context, name string) (*entity.Project, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Project, error)
	Update(ctx context.Context, id int64, patch entity.ProjectPatch) (*entity.Project, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, projects []*entity.Project) error
	Search(ctx context.Context, query string, limit, offset int) ([]*entity.Project, error)
	Statistics(ctx context.Context, id int64) (*ProjectStats, error)
}

// ProjectStats aggregates descendant counts for one project.
type ProjectStats struct {
	ProjectID    int64
	Name         string
	TextSources  int64
	Summaries    int64
	Translations int64
	Videos       int64
	Links        int64
	Languages    []string
}

// TextSourceRepository manages text source persistence.
type TextSourceRepository interface {
	Create(ctx context.Context, s *entity.TextSource) error
	GetByID(ctx context.Context, id int64) (*entity.TextSource, error)
	List(ctx context.Context, limit, offset int) ([]*entity.TextSource, error)
	Update(ctx context.Context, id int64, patch entity.TextSourcePatch) (*entity.TextSource, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, sources []*entity.TextSource) error
	GetByProject(ctx context.Context, projectID int64, limit, offset int) ([]*entity.TextSource, error)
	GetByType(ctx context.Context, sourceType string, limit, offset int) ([]*entity.TextSource, error)
	SearchContent(ctx context.Context, query string, limit, offset int) ([]*entity.TextSource, error)
	BulkUpdateByProject(ctx context.Context, projectID int64, patch entity.TextSourcePatch) (int64, error)
	Statistics(ctx context.Context, projectID int64) (*TextSourceStats, error)
}

// TextSourceStats aggregates the sources of one project.
type TextSourceStats struct {
	ProjectID     int64
	Total         int64
	ByType        map[string]int64
	ContentLength int64
}

// SummaryRepository manages summary persistence.
type SummaryRepository interface {
	Create(ctx context.Context, s *entity.Summary) error
	GetByID(ctx context.Context, id int64) (*entity.Summary, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Summary, error)
	Update(ctx context.Context, id int64, patch entity.SummaryPatch) (*entity.Summary, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, summaries []*entity.Summary) error
	GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Summary, error)
	GetByType(ctx context.Context, summaryType string, limit, offset int) ([]*entity.Summary, error)
	GetByProjectType(ctx context.Context, projectID int64, summaryType string) ([]*entity.Summary, error)
	SearchContent(ctx context.Context, query string, limit, offset int) ([]*entity.Summary, error)
	AvailableTypes(ctx context.Context) ([]string, error)
}

// TranslationRepository manages translation persistence.
type TranslationRepository interface {
	Create(ctx context.Context, t *entity.Translation) error
	GetByID(ctx context.Context, id int64) (*entity.Translation, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Translation, error)
	Update(ctx context.Context, id int64, patch entity.TranslationPatch) (*entity.Translation, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, translations []*entity.Translation) error
	GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Translation, error)
	GetByLanguage(ctx context.Context, languageCode string, limit, offset int) ([]*entity.Translation, error)
	GetByProjectLanguage(ctx context.Context, projectID int64, languageCode string) ([]*entity.Translation, error)
	SearchTokens(ctx context.Context, token string, limit, offset int) ([]*entity.Translation, error)
	AvailableLanguages(ctx context.Context) ([]string, error)
	TokenStatistics(ctx context.Context, languageCode string) (*TokenStats, error)
}

// TokenStats aggregates token counts across the translations of one
// language.
type TokenStats struct {
	LanguageCode  string
	Translations  int64
	TotalTokens   int64
	AverageTokens float64
	MinTokens     int64
	MaxTokens     int64
}

// VideoRepository manages video persistence.
type VideoRepository interface {
	Create(ctx context.Context, v *entity.Video) error
	GetByID(ctx context.Context, id int64) (*entity.Video, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Video, error)
	Update(ctx context.Context, id int64, patch entity.VideoPatch) (*entity.Video, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, videos []*entity.Video) error
	GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Video, error)
	GetByFormat(ctx context.Context, format string, limit, offset int) ([]*entity.Video, error)
	GetByProject(ctx context.Context, projectID int64, limit, offset int) ([]*entity.Video, error)
	SearchByTitle(ctx context.Context, query string, limit, offset int) ([]*entity.Video, error)
	GetByDurationRange(ctx context.Context, minSeconds, maxSeconds int64, limit, offset int) ([]*entity.Video, error)
	GetByFileSizeRange(ctx context.Context, minBytes, maxBytes int64, limit, offset int) ([]*entity.Video, error)
	AvailableFormats(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context) (*VideoStats, error)
}

// VideoStats aggregates the video catalog.
type VideoStats struct {
	Total           int64
	TotalBytes      int64
	TotalDuration   int64
	AverageDuration float64
	ByFormat        map[string]int64
}

// LinkRepository manages link persistence. Links support soft delete
// through activation state alongside hard delete.
type LinkRepository interface {
	Create(ctx context.Context, l *entity.Link) error
	GetByID(ctx context.Context, id int64) (*entity.Link, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Link, error)
	Update(ctx context.Context, id int64, patch entity.LinkPatch) (*entity.Link, error)
	Delete(ctx context.Context, id int64) error
	BulkCreate(ctx context.Context, links []*entity.Link) error
	GetBySource(ctx context.Context, textSourceID int64) ([]*entity.Link, error)
	GetActiveBySource(ctx context.Context, textSourceID int64) ([]*entity.Link, error)
	GetByType(ctx context.Context, linkType string, limit, offset int) ([]*entity.Link, error)
	GetByProjectType(ctx context.Context, projectID int64, linkType string) ([]*entity.Link, error)
	GetByDomain(ctx context.Context, domain string, limit, offset int) ([]*entity.Link, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*entity.Link, error)
	Deactivate(ctx context.Context, id int64) (*entity.Link, error)
	Activate(ctx context.Context, id int64) (*entity.Link, error)
	DeactivateByDomain(ctx context.Context, domain string) (int64, error)
	AvailableTypes(ctx context.Context) ([]string, error)
	Statistics(ctx context.Context) (*LinkStats, error)
}

// LinkStats aggregates the link catalog.
type LinkStats struct {
	Total    int64
	Active   int64
	Inactive int64
	ByType   map[string]int64
}
