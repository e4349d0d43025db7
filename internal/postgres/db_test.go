package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"signstore/internal/config"
	"signstore/internal/entity"
	"signstore/internal/logger"
)

// newTestStore connects to the database named by
// SIGNSTORE_TEST_DATABASE_URL, ensures the schema, and truncates all
// tables. Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("SIGNSTORE_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SIGNSTORE_TEST_DATABASE_URL not set, skipping database tests")
	}

	ctx := context.Background()
	poolCfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err, "failed to parse test database URL")

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	require.NoError(t, err, "failed to connect test database")

	s := &Store{pool: pool, cfg: config.Default().Database, log: logger.Nop()}
	s.bind(pool)

	require.NoError(t, s.EnsureSchema(ctx), "failed to ensure schema")
	_, err = pool.Exec(ctx, `TRUNCATE projects, text_sources, summaries, translations, videos, links RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "failed to truncate tables")

	t.Cleanup(s.Close)
	return s
}

// mustCreateProject inserts a fixture project.
func mustCreateProject(t *testing.T, s *Store, name string) *entity.Project {
	t.Helper()
	p := entity.NewProject(name)
	require.NoError(t, s.Projects.Create(context.Background(), p))
	return p
}

// mustCreateSource inserts a fixture text source under the project.
func mustCreateSource(t *testing.T, s *Store, projectID int64, title string) *entity.TextSource {
	t.Helper()
	src := entity.NewTextSource(projectID, title, "Hello world content for "+title)
	require.NoError(t, s.TextSources.Create(context.Background(), src))
	return src
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Second run must succeed against the existing objects.
	require.NoError(t, s.EnsureSchema(ctx))

	status, err := s.SchemaStatus(ctx)
	require.NoError(t, err)
	for _, table := range Tables {
		require.True(t, status[table], "table %s not found", table)
	}
}

func TestUpdatedAtTrigger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := mustCreateProject(t, s, "Trigger Check")
	created := p.UpdatedAt

	desc := "touched"
	updated, err := s.Projects.Update(ctx, p.ID, entity.ProjectPatch{Description: &desc})
	require.NoError(t, err)
	require.True(t, updated.UpdatedAt.After(created), "updated_at not bumped by trigger")
	require.Equal(t, p.CreatedAt, updated.CreatedAt)
}

func TestStoreQueryReturnsMaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateProject(t, s, "Alpha")
	mustCreateProject(t, s, "Beta")

	rows, err := s.Query(ctx, `SELECT name FROM projects ORDER BY name`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "Alpha", rows[0]["name"])
	require.Equal(t, "Beta", rows[1]["name"])
}

func TestStoreExecReturnsAffectedRows(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	mustCreateProject(t, s, "One")
	mustCreateProject(t, s, "Two")

	n, err := s.Exec(ctx, `UPDATE projects SET description = $1`, "bulk")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
}

func TestClosedStoreFailsFast(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Close()
	s.Close() // idempotent

	_, err := s.Query(ctx, `SELECT 1`)
	requireConnectionError(t, err)

	_, err = s.Exec(ctx, `SELECT 1`)
	requireConnectionError(t, err)

	err = s.WithTransaction(ctx, func(tx *Tx) error { return nil })
	requireConnectionError(t, err)

	requireConnectionError(t, s.Ping(ctx))
}

func TestOpenRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default().Database
	cfg.Password = "secret"
	cfg.Port = 0

	_, err := Open(context.Background(), cfg, logger.Nop())
	var cfgErr *config.Error
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, "port", cfgErr.Field)
}
