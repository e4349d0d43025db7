// Package postgres implements the repository contracts on top of a
// pgx connection pool. One Store owns the pool; every repository can
// run against either the pool or an open transaction through the DBTX
// interface.
package postgres

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"signstore/internal/config"
	"signstore/internal/repository"
)

// DBTX is the querying surface shared by *pgxpool.Pool and pgx.Tx.
// Repositories are written against it so the same implementation
// serves autonomous calls and transactional units of work.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the connection pool and exposes one repository per
// entity kind. All repositories share the pool until a transaction
// rebinds them.
type Store struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	log    *zap.SugaredLogger
	closed atomic.Bool

	Projects     *ProjectRepository
	TextSources  *TextSourceRepository
	Summaries    *SummaryRepository
	Translations *TranslationRepository
	Videos       *VideoRepository
	Links        *LinkRepository
}

// Open validates the configuration, connects the pool, and verifies
// the connection with a ping.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.SugaredLogger) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, &repository.ConnectionError{Op: "parse config", Err: err}
	}
	poolCfg.MinConns = 1
	poolCfg.MaxConns = cfg.MaxConns()
	poolCfg.MaxConnLifetime = time.Duration(cfg.PoolRecycle) * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, &repository.ConnectionError{Op: "connect", Err: err}
	}

	s := &Store{pool: pool, cfg: cfg, log: log}
	s.bind(pool)

	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Infow("database pool ready",
		"host", cfg.Host,
		"database", cfg.Database,
		"max_conns", poolCfg.MaxConns,
	)
	return s, nil
}

func (s *Store) bind(db DBTX) {
	s.Projects = NewProjectRepository(db, s.log)
	s.TextSources = NewTextSourceRepository(db, s.log)
	s.Summaries = NewSummaryRepository(db, s.log)
	s.Translations = NewTranslationRepository(db, s.log)
	s.Videos = NewVideoRepository(db, s.log)
	s.Links = NewLinkRepository(db, s.log)
}

// Ping verifies that a connection can be acquired and used.
func (s *Store) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return &repository.ConnectionError{Op: "ping"}
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return &repository.ConnectionError{Op: "ping", Err: err}
	}
	return nil
}

// Close releases the pool. Further operations on the store fail with
// a ConnectionError. Close is idempotent.
func (s *Store) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.pool.Close()
	s.log.Infow("database pool closed")
}

// Query runs an arbitrary SELECT and returns the rows as maps keyed
// by column name. Intended for ad-hoc and diagnostic queries; the
// repositories cover the typed paths.
func (s *Store) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	if s.closed.Load() {
		return nil, &repository.ConnectionError{Op: "query"}
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapError("query", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, wrapError("query", err)
	}
	return out, nil
}

// Exec runs an arbitrary statement and returns the number of affected
// rows.
func (s *Store) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	if s.closed.Load() {
		return 0, &repository.ConnectionError{Op: "exec"}
	}
	ctx, cancel := s.opContext(ctx)
	defer cancel()

	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, wrapError("exec", err)
	}
	return tag.RowsAffected(), nil
}

// WithTransaction runs fn inside a single transaction. The Tx carries
// all six repositories bound to the transaction connection. A nil
// return commits; any error rolls back the unit and surfaces as
// TransactionError wrapping the cause, so errors.Is and errors.As
// still reach the underlying failure.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	if s.closed.Load() {
		return &repository.ConnectionError{Op: "begin"}
	}
	pgxTx, err := s.pool.Begin(ctx)
	if err != nil {
		return &repository.TransactionError{Err: err}
	}

	if err := fn(newTx(pgxTx, s.log)); err != nil {
		if rbErr := pgxTx.Rollback(ctx); rbErr != nil {
			s.log.Errorw("rollback failed", "error", rbErr)
		}
		return &repository.TransactionError{Err: err}
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return &repository.TransactionError{Err: err}
	}
	return nil
}

// opContext bounds an operation with the configured pool timeout when
// the caller did not set a deadline of its own.
func (s *Store) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || s.cfg.PoolTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, time.Duration(s.cfg.PoolTimeout)*time.Second)
}
