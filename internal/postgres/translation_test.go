package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signstore/internal/entity"
)

func spanishTokens() []entity.Token {
	return []entity.Token{
		{Text: "Hola", Pos: 0},
		{Text: "Mundo", Pos: 1},
	}
}

func TestTranslationRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	tr := entity.NewTranslation(src.ID, "es", spanishTokens())
	tr.OriginalText = "Hello World"
	require.NoError(t, s.Translations.Create(ctx, tr))

	got, err := s.Translations.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, "es", got.LanguageCode)
	require.Equal(t, "Hola Mundo", got.TokenText())
	require.Equal(t, "Hello World", got.OriginalText)
	require.Equal(t, spanishTokens(), got.Tokens)
}

func TestTranslationRepository_TokenOrderSurvivesStorage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	// Out-of-order insertion must reconstruct in position order.
	tr := entity.NewTranslation(src.ID, "es", []entity.Token{
		{Text: "Mundo", Pos: 1},
		{Text: "Hola", Pos: 0},
	})
	require.NoError(t, s.Translations.Create(ctx, tr))

	got, err := s.Translations.GetByID(ctx, tr.ID)
	require.NoError(t, err)
	require.Equal(t, "Hola Mundo", got.TokenText())
}

func TestTranslationRepository_CreateRejectsEmptyTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	err := s.Translations.Create(ctx, entity.NewTranslation(src.ID, "es", nil))
	requireValidation(t, err, "tokens")
}

func TestTranslationRepository_GetByLanguage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "es", spanishTokens())))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "fr", []entity.Token{{Text: "Bonjour", Pos: 0}})))

	got, err := s.Translations.GetByLanguage(ctx, "es", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "es", got[0].LanguageCode)
}

func TestTranslationRepository_GetByProjectLanguage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Mine")
	src := mustCreateSource(t, s, p.ID, "Source")
	other := mustCreateProject(t, s, "Theirs")
	otherSrc := mustCreateSource(t, s, other.ID, "Far")

	mine := entity.NewTranslation(src.ID, "es", spanishTokens())
	require.NoError(t, s.Translations.Create(ctx, mine))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(otherSrc.ID, "es", spanishTokens())))

	got, err := s.Translations.GetByProjectLanguage(ctx, p.ID, "es")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, mine.ID, got[0].ID)
}

func TestTranslationRepository_SearchTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	hit := entity.NewTranslation(src.ID, "es", spanishTokens())
	require.NoError(t, s.Translations.Create(ctx, hit))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "fr", []entity.Token{{Text: "Bonjour", Pos: 0}})))

	got, err := s.Translations.SearchTokens(ctx, "mundo", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, hit.ID, got[0].ID)
}

func TestTranslationRepository_AvailableLanguages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "fr", []entity.Token{{Text: "Salut", Pos: 0}})))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "es", spanishTokens())))

	langs, err := s.Translations.AvailableLanguages(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"es", "fr"}, langs)
}

func TestTranslationRepository_TokenStatistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src.ID, "es", spanishTokens())))
	long := entity.NewTranslation(src.ID, "es", []entity.Token{
		{Text: "uno", Pos: 0}, {Text: "dos", Pos: 1}, {Text: "tres", Pos: 2}, {Text: "cuatro", Pos: 3},
	})
	require.NoError(t, s.Translations.Create(ctx, long))

	stats, err := s.Translations.TokenStatistics(ctx, "es")
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Translations)
	require.Equal(t, int64(6), stats.TotalTokens)
	require.InDelta(t, 3.0, stats.AverageTokens, 0.0001)
	require.Equal(t, int64(2), stats.MinTokens)
	require.Equal(t, int64(4), stats.MaxTokens)

	empty, err := s.Translations.TokenStatistics(ctx, "zz")
	require.NoError(t, err)
	require.Zero(t, empty.Translations)
	require.Zero(t, empty.TotalTokens)
}

func TestTranslationRepository_UpdateKeepsLanguage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")
	tr := entity.NewTranslation(src.ID, "es", spanishTokens())
	require.NoError(t, s.Translations.Create(ctx, tr))

	got, err := s.Translations.Update(ctx, tr.ID, entity.TranslationPatch{
		Tokens: []entity.Token{{Text: "Adios", Pos: 0}},
	})
	require.NoError(t, err)
	require.Equal(t, "Adios", got.TokenText())
	require.Equal(t, "es", got.LanguageCode)
	require.Equal(t, src.ID, got.TextSourceID)
}

func TestTranslationRepository_BulkCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	batch := []*entity.Translation{
		entity.NewTranslation(src.ID, "es", spanishTokens()),
		entity.NewTranslation(src.ID, "fr", []entity.Token{{Text: "Bonjour", Pos: 0}}),
	}
	require.NoError(t, s.Translations.BulkCreate(ctx, batch))
	require.NotZero(t, batch[0].ID)
	require.NotZero(t, batch[1].ID)
}

func TestTranslationRepository_BulkCreateMissingParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	bad := []*entity.Translation{
		entity.NewTranslation(src.ID, "es", spanishTokens()),
		entity.NewTranslation(99999, "fr", []entity.Token{{Text: "Bonjour", Pos: 0}}),
	}
	requireNotFoundID(t, s.Translations.BulkCreate(ctx, bad), "TextSource", int64(99999))

	got, err := s.Translations.GetBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Empty(t, got, "failed batch must not leave partial rows")
}
