package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signstore/internal/entity"
)

func TestProjectRepository_Create(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := entity.NewProject("Sign Language Corpus")
	p.Description = "ASL learning material"
	p.SetMeta("team", "linguistics")

	require.NoError(t, s.Projects.Create(ctx, p))
	require.NotZero(t, p.ID)
	require.False(t, p.CreatedAt.IsZero())

	got, err := s.Projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.Description, got.Description)
	team, ok := got.Meta("team")
	require.True(t, ok)
	require.Equal(t, "linguistics", team)
}

func TestProjectRepository_CreateRejectsInvalid(t *testing.T) {
	s := newTestStore(t)

	err := s.Projects.Create(context.Background(), entity.NewProject("   "))
	requireValidation(t, err, "name")
}

func TestProjectRepository_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateProject(t, s, "Unique Name")
	err := s.Projects.Create(ctx, entity.NewProject("Unique Name"))
	requireDuplicate(t, err, "Project")
}

func TestProjectRepository_GetByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Named")
	got, err := s.Projects.GetByName(ctx, "Named")
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	_, err = s.Projects.GetByName(ctx, "absent")
	requireNotFound(t, err, "Project")
}

func TestProjectRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Projects.GetByID(context.Background(), 99999)
	requireNotFound(t, err, "Project")
}

func TestProjectRepository_ListPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"A", "B", "C", "D", "E"} {
		mustCreateProject(t, s, name)
	}

	page1, err := s.Projects.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page1, 2)

	page2, err := s.Projects.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEqual(t, page1[0].ID, page2[0].ID)

	tail, err := s.Projects.List(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, tail, 1)
}

func TestProjectRepository_Update(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Before")
	name := "After"
	desc := "now described"
	got, err := s.Projects.Update(ctx, p.ID, entity.ProjectPatch{Name: &name, Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "After", got.Name)
	require.Equal(t, "now described", got.Description)

	// Patch validation still applies.
	empty := " "
	_, err = s.Projects.Update(ctx, p.ID, entity.ProjectPatch{Name: &empty})
	requireValidation(t, err, "name")

	_, err = s.Projects.Update(ctx, 99999, entity.ProjectPatch{Name: &name})
	requireNotFound(t, err, "Project")
}

func TestProjectRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Doomed")
	src := mustCreateSource(t, s, p.ID, "Child")
	sum := entity.NewSummary(src.ID, "short form")
	require.NoError(t, s.Summaries.Create(ctx, sum))

	require.NoError(t, s.Projects.Delete(ctx, p.ID))

	_, err := s.TextSources.GetByID(ctx, src.ID)
	requireNotFound(t, err, "TextSource")
	_, err = s.Summaries.GetByID(ctx, sum.ID)
	requireNotFound(t, err, "Summary")

	require.Error(t, s.Projects.Delete(ctx, p.ID))
}

func TestProjectRepository_BulkCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []*entity.Project{
		entity.NewProject("Bulk One"),
		entity.NewProject("Bulk Two"),
		entity.NewProject("Bulk Three"),
	}
	require.NoError(t, s.Projects.BulkCreate(ctx, batch))
	for _, p := range batch {
		require.NotZero(t, p.ID)
	}
	require.Greater(t, batch[1].ID, batch[0].ID)
	require.Greater(t, batch[2].ID, batch[1].ID)
}

func TestProjectRepository_BulkCreateAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateProject(t, s, "Taken")
	batch := []*entity.Project{
		entity.NewProject("Fresh"),
		entity.NewProject("Taken"),
	}
	requireDuplicateValue(t, s.Projects.BulkCreate(ctx, batch), "Project", "Taken")

	// Nothing from the failed batch may persist.
	_, err := s.Projects.GetByName(ctx, "Fresh")
	requireNotFound(t, err, "Project")

	// A collision inside the batch itself is refused the same way.
	doubled := []*entity.Project{
		entity.NewProject("Twice"),
		entity.NewProject("Twice"),
	}
	requireDuplicateValue(t, s.Projects.BulkCreate(ctx, doubled), "Project", "Twice")
}

func TestProjectRepository_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := entity.NewProject("Greek Mythology")
	a.Description = "stories of gods"
	require.NoError(t, s.Projects.Create(ctx, a))
	b := entity.NewProject("Roman History")
	b.Description = "mythology adjacent"
	require.NoError(t, s.Projects.Create(ctx, b))
	mustCreateProject(t, s, "Unrelated")

	got, err := s.Projects.Search(ctx, "MYTHOLOGY", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = s.Projects.Search(ctx, "100% match", 10, 0)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestProjectRepository_Statistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Counted")
	src1 := mustCreateSource(t, s, p.ID, "First")
	src2 := mustCreateSource(t, s, p.ID, "Second")

	require.NoError(t, s.Summaries.Create(ctx, entity.NewSummary(src1.ID, "sum")))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src1.ID, "es", []entity.Token{{Text: "Hola", Pos: 0}})))
	require.NoError(t, s.Translations.Create(ctx, entity.NewTranslation(src2.ID, "fr", []entity.Token{{Text: "Salut", Pos: 0}})))
	require.NoError(t, s.Videos.Create(ctx, entity.NewVideo(src1.ID, "/media/a.mp4")))
	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src2.ID, "https://example.com")))

	stats, err := s.Projects.Statistics(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Counted", stats.Name)
	require.Equal(t, int64(2), stats.TextSources)
	require.Equal(t, int64(1), stats.Summaries)
	require.Equal(t, int64(2), stats.Translations)
	require.Equal(t, int64(1), stats.Videos)
	require.Equal(t, int64(1), stats.Links)
	require.Equal(t, []string{"es", "fr"}, stats.Languages)

	_, err = s.Projects.Statistics(ctx, 99999)
	requireNotFound(t, err, "Project")
}
