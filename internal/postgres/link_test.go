package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"signstore/internal/entity"
)

func TestLinkRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	l := entity.NewLink(src.ID, "https://docs.example.com/guide")
	l.Title = "Guide"
	require.NoError(t, s.Links.Create(ctx, l))

	got, err := s.Links.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive)
	require.Equal(t, entity.DefaultLinkType, got.LinkType)
	require.Equal(t, "docs.example.com", got.Domain())
}

func TestLinkRepository_CreateRejectsBadURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	err := s.Links.Create(ctx, entity.NewLink(src.ID, "no scheme here"))
	requireValidation(t, err, "url")
}

func TestLinkRepository_DeactivateActivate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")
	l := entity.NewLink(src.ID, "https://example.com")
	require.NoError(t, s.Links.Create(ctx, l))

	got, err := s.Links.Deactivate(ctx, l.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	// Soft delete keeps the row reachable by ID.
	got, err = s.Links.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)

	got, err = s.Links.Activate(ctx, l.ID)
	require.NoError(t, err)
	require.True(t, got.IsActive)

	_, err = s.Links.Deactivate(ctx, 99999)
	requireNotFound(t, err, "Link")
}

func TestLinkRepository_GetActiveBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	active := entity.NewLink(src.ID, "https://example.com/a")
	require.NoError(t, s.Links.Create(ctx, active))
	dormant := entity.NewLink(src.ID, "https://example.com/b")
	require.NoError(t, s.Links.Create(ctx, dormant))
	_, err := s.Links.Deactivate(ctx, dormant.ID)
	require.NoError(t, err)

	all, err := s.Links.GetBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := s.Links.GetActiveBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, active.ID, got[0].ID)
}

func TestLinkRepository_GetByProjectType(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Mine")
	src := mustCreateSource(t, s, p.ID, "Source")
	other := mustCreateProject(t, s, "Theirs")
	otherSrc := mustCreateSource(t, s, other.ID, "Far")

	citation := entity.NewLink(src.ID, "https://example.com/cite")
	citation.LinkType = "citation"
	require.NoError(t, s.Links.Create(ctx, citation))
	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://example.com/ref")))

	foreign := entity.NewLink(otherSrc.ID, "https://example.com/far")
	foreign.LinkType = "citation"
	require.NoError(t, s.Links.Create(ctx, foreign))

	got, err := s.Links.GetByProjectType(ctx, p.ID, "citation")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, citation.ID, got[0].ID)
}

func TestLinkRepository_GetByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://wikipedia.org/wiki/Go")))
	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://example.com/page")))

	got, err := s.Links.GetByDomain(ctx, "wikipedia.org", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "wikipedia.org", got[0].Domain())
}

func TestLinkRepository_DeactivateByDomain(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://dead.example.net/a")))
	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://dead.example.net/b")))
	keep := entity.NewLink(src.ID, "https://alive.example.com")
	require.NoError(t, s.Links.Create(ctx, keep))

	n, err := s.Links.DeactivateByDomain(ctx, "dead.example.net")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	got, err := s.Links.GetActiveBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, keep.ID, got[0].ID)

	// Already-inactive links are not counted twice.
	n, err = s.Links.DeactivateByDomain(ctx, "dead.example.net")
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLinkRepository_Search(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	byTitle := entity.NewLink(src.ID, "https://example.com/one")
	byTitle.Title = "Grammar reference"
	require.NoError(t, s.Links.Create(ctx, byTitle))
	byDesc := entity.NewLink(src.ID, "https://example.com/two")
	byDesc.Description = "covers grammar in depth"
	require.NoError(t, s.Links.Create(ctx, byDesc))
	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://example.com/three")))

	got, err := s.Links.Search(ctx, "grammar", 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
}

func TestLinkRepository_Statistics(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	require.NoError(t, s.Links.Create(ctx, entity.NewLink(src.ID, "https://example.com/a")))
	citation := entity.NewLink(src.ID, "https://example.com/b")
	citation.LinkType = "citation"
	require.NoError(t, s.Links.Create(ctx, citation))
	dormant := entity.NewLink(src.ID, "https://example.com/c")
	require.NoError(t, s.Links.Create(ctx, dormant))
	_, err := s.Links.Deactivate(ctx, dormant.ID)
	require.NoError(t, err)

	stats, err := s.Links.Statistics(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.Total)
	require.Equal(t, int64(2), stats.Active)
	require.Equal(t, int64(1), stats.Inactive)
	require.Equal(t, int64(2), stats.ByType["reference"])
	require.Equal(t, int64(1), stats.ByType["citation"])

	types, err := s.Links.AvailableTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"citation", "reference"}, types)
}

func TestLinkRepository_UpdateAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")
	l := entity.NewLink(src.ID, "https://example.com/old")
	require.NoError(t, s.Links.Create(ctx, l))

	title := "Renamed"
	got, err := s.Links.Update(ctx, l.ID, entity.LinkPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, "https://example.com/old", got.URL)

	require.NoError(t, s.Links.Delete(ctx, l.ID))
	_, err = s.Links.GetByID(ctx, l.ID)
	requireNotFound(t, err, "Link")
}

func TestLinkRepository_BulkCreateMissingParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Parent")
	src := mustCreateSource(t, s, p.ID, "Source")

	bad := []*entity.Link{
		entity.NewLink(src.ID, "https://example.com/good"),
		entity.NewLink(99999, "https://example.com/orphan"),
	}
	requireNotFoundID(t, s.Links.BulkCreate(ctx, bad), "TextSource", int64(99999))

	got, err := s.Links.GetBySource(ctx, src.ID)
	require.NoError(t, err)
	require.Empty(t, got, "failed batch must not leave partial rows")
}
