// Package db is the database fixture: it connects to the quiz application's
// store, applies optional migrations and performs the user-row operations
// the UI tests rely on for setup, cleanup and cross-checking.
//
// The handle is shared across the whole run and is not transactionally
// isolated; tests keep each other out of the way by deleting the rows they
// use before and after they run.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

const (
	// MaxOpenConns bounds the shared pool. Tests run sequentially, so a
	// handful of connections is plenty.
	MaxOpenConns = 4

	// MaxIdleConns is the number of idle connections kept around between tests.
	MaxIdleConns = 2
)

// ErrConnection is returned when the database cannot be reached.
var ErrConnection = errors.New("db: connection failed")

// DBTX is the subset of *sql.DB and *sql.Tx used by the queries here.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the shared connection pool with the dialect it speaks.
type DB struct {
	db      *sql.DB
	dialect Dialect
}

// New wraps an already-open pool.
func New(sqlDB *sql.DB, dialect Dialect) *DB {
	return &DB{db: sqlDB, dialect: dialect}
}

// Open connects to the database described by cfg and verifies the
// connection with a ping. Any failure wraps ErrConnection.
func Open(ctx context.Context, cfg config.DBConfig) (*DB, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "open database", err)
	}
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build DSN", err)
	}

	logger := obs.From(ctx).With("pkg", "db", "driver", string(dialect), "host", cfg.Host, "database", cfg.Name)

	sqlDB, err := sql.Open(dialect.sqlDriverName(), dsn)
	if err != nil {
		return nil, connectionError(err)
	}
	sqlDB.SetMaxOpenConns(MaxOpenConns)
	sqlDB.SetMaxIdleConns(MaxIdleConns)

	d := New(sqlDB, dialect)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := d.Ping(pingCtx); err != nil {
		sqlDB.Close()
		logger.Error("database unreachable", "error", err)
		return nil, err
	}
	if cfg.Migrate {
		if err := d.Migrate(ctx); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}

	logger.Info("database connected", "migrated", cfg.Migrate)
	return d, nil
}

func connectionError(err error) error {
	return errs.Wrap(errs.Unavailable, "connect to database", fmt.Errorf("%w: %w", ErrConnection, err))
}

// Dialect returns the SQL dialect of the connection.
func (d *DB) Dialect() Dialect {
	return d.dialect
}

// Ping checks that the database is still reachable.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return connectionError(err)
	}
	return nil
}

// WithTx runs fn inside a transaction and commits it if fn succeeds.
func (d *DB) WithTx(ctx context.Context, fn func(tx DBTX) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "begin transaction", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errs.Wrap(errs.Unavailable, "commit transaction", err)
	}
	return nil
}

// Close releases the pool.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}
