package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"signstore/internal/entity"
)

func TestWithTransactionCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var projectID, sourceID int64
	err := s.WithTransaction(ctx, func(tx *Tx) error {
		p := entity.NewProject("Transactional")
		if err := tx.Projects.Create(ctx, p); err != nil {
			return err
		}
		src := entity.NewTextSource(p.ID, "Inside", "written atomically")
		if err := tx.TextSources.Create(ctx, src); err != nil {
			return err
		}
		projectID, sourceID = p.ID, src.ID
		return nil
	})
	require.NoError(t, err)

	// Both writes visible after commit.
	_, err = s.Projects.GetByID(ctx, projectID)
	require.NoError(t, err)
	_, err = s.TextSources.GetByID(ctx, sourceID)
	require.NoError(t, err)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("gesture recognition failed")
	err := s.WithTransaction(ctx, func(tx *Tx) error {
		if err := tx.Projects.Create(ctx, entity.NewProject("Ghost")); err != nil {
			return err
		}
		return boom
	})
	// The aborted scope surfaces as TransactionError with the cause
	// still reachable underneath.
	requireTransactionError(t, err)
	require.ErrorIs(t, err, boom)

	_, err = s.Projects.GetByName(ctx, "Ghost")
	requireNotFound(t, err, "Project")
}

func TestWithTransactionRollsBackOnRepositoryError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(tx *Tx) error {
		if err := tx.Projects.Create(ctx, entity.NewProject("Partial")); err != nil {
			return err
		}
		// Second write fails on a missing parent and aborts the unit.
		return tx.Summaries.Create(ctx, entity.NewSummary(99999, "orphan"))
	})
	requireTransactionError(t, err)
	requireNotFound(t, err, "TextSource")

	_, err = s.Projects.GetByName(ctx, "Partial")
	requireNotFound(t, err, "Project")
}

func TestWithTransactionSeesOwnWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(tx *Tx) error {
		p := entity.NewProject("Visible Inside")
		if err := tx.Projects.Create(ctx, p); err != nil {
			return err
		}
		got, err := tx.Projects.GetByName(ctx, "Visible Inside")
		if err != nil {
			return err
		}
		require.Equal(t, p.ID, got.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestWithTransactionAllRepositoriesBound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.WithTransaction(ctx, func(tx *Tx) error {
		p := entity.NewProject("Full Graph")
		if err := tx.Projects.Create(ctx, p); err != nil {
			return err
		}
		src := entity.NewTextSource(p.ID, "Root", "content")
		if err := tx.TextSources.Create(ctx, src); err != nil {
			return err
		}
		if err := tx.Summaries.Create(ctx, entity.NewSummary(src.ID, "sum")); err != nil {
			return err
		}
		if err := tx.Translations.Create(ctx, entity.NewTranslation(src.ID, "es", []entity.Token{{Text: "Hola", Pos: 0}})); err != nil {
			return err
		}
		if err := tx.Videos.Create(ctx, entity.NewVideo(src.ID, "/media/clip.mp4")); err != nil {
			return err
		}
		return tx.Links.Create(ctx, entity.NewLink(src.ID, "https://example.com"))
	})
	require.NoError(t, err)

	stats, err := s.Projects.Statistics(ctx, mustGetProjectID(t, s, "Full Graph"))
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.TextSources)
	require.Equal(t, int64(1), stats.Summaries)
	require.Equal(t, int64(1), stats.Translations)
	require.Equal(t, int64(1), stats.Videos)
	require.Equal(t, int64(1), stats.Links)
}

func mustGetProjectID(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	p, err := s.Projects.GetByName(context.Background(), name)
	require.NoError(t, err)
	return p.ID
}
