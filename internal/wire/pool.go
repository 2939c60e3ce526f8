package wire

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver
	"github.com/flowsql/streamdb/internal/config"
	"github.com/flowsql/streamdb/internal/errs"
	"golang.org/x/sync/semaphore"
)

type sqlPool struct {
	db  *sql.DB
	sem *semaphore.Weighted
}

// Open opens a MySQL connection pool per cfg and verifies it with a ping
// bounded by cfg.ConnectTimeout.
func Open(ctx context.Context, cfg *config.Config) (Pool, error) {
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid dsn", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, mapError(err)
	}

	maxConcurrent := cfg.MaxConcurrentQueries
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	return &sqlPool{db: db, sem: semaphore.NewWeighted(maxConcurrent)}, nil
}

func (p *sqlPool) GetConnection(ctx context.Context) (Conn, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, errs.Wrap(errs.ErrKindCanceled, "acquire canceled", err)
	}

	sc, err := p.db.Conn(ctx)
	if err != nil {
		p.sem.Release(1)
		return nil, mapError(err)
	}

	return &sqlConn{sqlConn: sc, release: func() { p.sem.Release(1) }}, nil
}

func (p *sqlPool) KillQuery(ctx context.Context, threadID uint32) error {
	c, err := p.GetConnection(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Release() }()

	// KILL QUERY is an administrative statement; MySQL does not accept a
	// placeholder in the thread-id position, so the trusted uint32 is
	// formatted directly rather than routed through args.
	_, err = c.Exec(ctx, fmt.Sprintf("KILL QUERY %d", threadID))
	return err
}

func (p *sqlPool) Close() error {
	return mapError(p.db.Close())
}
