package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// ErrUserNotFound is returned when no row matches a username.
var ErrUserNotFound = errors.New("db: user not found")

// DefaultPollInterval is how often WaitForUser re-queries the table.
const DefaultPollInterval = 250 * time.Millisecond

// User is a row of the application's users table.
type User struct {
	ID           int64
	Username     string
	Name         string
	Email        string
	PasswordHash string
}

// NewUser is the input for InsertUser. Password is plaintext and is hashed
// before it reaches the database.
type NewUser struct {
	Username string
	Email    string
	Password string
	Name     string
}

// PasswordHasher turns a plaintext password into the stored form.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

const (
	deleteByUsernameQuery = `DELETE FROM users WHERE username = ?`
	insertUserQuery       = `INSERT INTO users (username, name, email, password) VALUES (?, ?, ?, ?)`
	findByUsernameQuery   = `SELECT id, username, name, email, password FROM users WHERE username = ?`
	countByUsernameQuery  = `SELECT COUNT(*) FROM users WHERE username = ?`
)

// DeleteByUsername removes every row for username and reports how many went.
func (d *DB) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	return deleteByUsername(ctx, d.db, d.dialect, username)
}

func deleteByUsername(ctx context.Context, q DBTX, dialect Dialect, username string) (int64, error) {
	res, err := q.ExecContext(ctx, dialect.Rebind(deleteByUsernameQuery), username)
	if err != nil {
		return 0, errs.Wrap(errs.Unavailable, fmt.Sprintf("delete user %q", username), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Cleanup deletes the rows for every username. A missing row is not an
// error. A failure on one username is logged and does not stop the rest;
// all failures are joined into the returned error.
func (d *DB) Cleanup(ctx context.Context, usernames []string) error {
	logger := obs.From(ctx).With("pkg", "db")
	var failures []error
	var removed int64
	for _, username := range usernames {
		n, err := d.DeleteByUsername(ctx, username)
		if err != nil {
			logger.Warn("cleanup failed", "username", username, "error", err)
			failures = append(failures, err)
			continue
		}
		removed += n
	}
	if removed > 0 {
		logger.Debug("cleanup removed rows", "rows", removed, "usernames", len(usernames))
	}
	return errors.Join(failures...)
}

// InsertUser replaces any existing row for u.Username with a fresh one
// whose password is hashed by h. The write is committed before returning.
func (d *DB) InsertUser(ctx context.Context, h PasswordHasher, u NewUser) error {
	if u.Username == "" {
		return errs.New(errs.InvalidArgument, "insert user: username is required")
	}
	if h == nil {
		return errs.New(errs.InvalidArgument, "insert user: hasher is required")
	}

	hash, err := h.Hash(ctx, u.Password)
	if err != nil {
		return err
	}

	err = d.WithTx(ctx, func(tx DBTX) error {
		if _, err := deleteByUsername(ctx, tx, d.dialect, u.Username); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, d.dialect.Rebind(insertUserQuery), u.Username, u.Name, u.Email, hash); err != nil {
			return errs.Wrap(errs.Unavailable, fmt.Sprintf("insert user %q", u.Username), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	obs.From(ctx).Debug("user inserted", "pkg", "db", "username", u.Username, "email", u.Email)
	return nil
}

// FindByUsername returns the first row for username or ErrUserNotFound.
func (d *DB) FindByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := d.db.QueryRowContext(ctx, d.dialect.Rebind(findByUsernameQuery), username).
		Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.Wrap(errs.NotFound, fmt.Sprintf("user %q", username), ErrUserNotFound)
	}
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("find user %q", username), err)
	}
	return &u, nil
}

// UserExists reports whether at least one row exists for username.
func (d *DB) UserExists(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, d.dialect.Rebind(countByUsernameQuery), username).Scan(&n); err != nil {
		return false, errs.Wrap(errs.Unavailable, fmt.Sprintf("count user %q", username), err)
	}
	return n > 0, nil
}

// WaitForUser polls until a row for username appears or timeout elapses.
func (d *DB) WaitForUser(ctx context.Context, username string, timeout, interval time.Duration) (*User, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil, errs.Wrap(errs.DeadlineExceeded, fmt.Sprintf("wait for user %q", username), ErrUserNotFound)
		}
		u, err := d.FindByUsername(ctx, username)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			if ctx.Err() != nil {
				return nil, errs.Wrap(errs.DeadlineExceeded, fmt.Sprintf("wait for user %q", username), ErrUserNotFound)
			}
			return nil, err
		}
	}
}
