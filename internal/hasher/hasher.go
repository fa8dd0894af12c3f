// Package hasher produces password hashes that the quiz application can verify.
//
// The application stores PHP password_hash(PASSWORD_DEFAULT) output, so the
// default backend shells out to the PHP interpreter. A native bcrypt backend
// produces the same $2y$ format without PHP installed.
package hasher

import (
	"context"
	"errors"
	"fmt"

	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// ErrBackendUnavailable is returned when the hashing backend cannot run.
// Callers decide what to do; no backend degrades to plaintext on its own.
var ErrBackendUnavailable = errors.New("hasher: backend unavailable")

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// New returns the backend selected by cfg.
func New(cfg config.HasherConfig) (Hasher, error) {
	switch cfg.Backend {
	case config.HasherPHP, "":
		return NewPHP(cfg.PHPBin, cfg.Timeout), nil
	case config.HasherBcrypt:
		return Bcrypt{}, nil
	case config.HasherInsecurePlaintext:
		obs.Pkg("hasher").Warn("using insecure plaintext hasher; stored passwords will not verify against the real application")
		return InsecurePlaintext{}, nil
	default:
		return nil, fmt.Errorf("hasher: unknown backend %q", cfg.Backend)
	}
}
