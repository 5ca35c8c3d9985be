package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxExecer adapts a pgx pool to the Execer interface so hosts on native
// pgx can feed the sink without opening a second database/sql pool.
type PgxExecer struct {
	pool *pgxpool.Pool
}

// NewPgxExecer wraps an already-constructed pool.
func NewPgxExecer(pool *pgxpool.Pool) *PgxExecer {
	return &PgxExecer{pool: pool}
}

var _ Execer = (*PgxExecer)(nil)

// ExecContext runs the statement through the pool.
func (p *PgxExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return commandTagResult{tag: tag}, nil
}

// commandTagResult exposes a pgconn command tag as a sql.Result.
type commandTagResult struct {
	tag pgconn.CommandTag
}

func (r commandTagResult) LastInsertId() (int64, error) {
	return 0, errors.New("database: LastInsertId is not supported by the pgx driver")
}

func (r commandTagResult) RowsAffected() (int64, error) {
	return r.tag.RowsAffected(), nil
}
