package db

import (
	"context"
	"embed"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate applies the embedded migrations for the connection's dialect.
// It only creates what is missing, so it is safe against a database the
// application already initialised.
func (d *DB) Migrate(ctx context.Context) error {
	sub, err := fs.Sub(migrations, "migrations/"+string(d.dialect))
	if err != nil {
		return errs.Wrap(errs.Internal, "load migrations", err)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(sub)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(d.dialect)); err != nil {
		return errs.Wrap(errs.Internal, "set migration dialect", err)
	}
	if err := goose.UpContext(ctx, d.db, "."); err != nil {
		return errs.Wrap(errs.FailedPrecondition, "apply migrations", err)
	}

	obs.Pkg("db").Debug("migrations applied", "dialect", string(d.dialect))
	return nil
}
