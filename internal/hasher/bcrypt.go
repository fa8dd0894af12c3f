package hasher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes. PHP truncates silently, so we do
// the same instead of returning bcrypt.ErrPasswordTooLong.
const bcryptMaxBytes = 72

// Bcrypt hashes in-process with the same $2y$ format as PHP's PASSWORD_DEFAULT.
type Bcrypt struct {
	// Cost defaults to bcrypt.DefaultCost (10, same as PHP).
	Cost int
}

func (b Bcrypt) Hash(ctx context.Context, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword(truncate72(password), cost)
	if err != nil {
		return "", fmt.Errorf("hasher: bcrypt: %w", err)
	}
	return "$2y$" + strings.TrimPrefix(string(hash), "$2a$"), nil
}

func (b Bcrypt) Verify(ctx context.Context, password, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate72(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("hasher: bcrypt verify: %w", err)
	}
}

func truncate72(password string) []byte {
	b := []byte(password)
	if len(b) > bcryptMaxBytes {
		b = b[:bcryptMaxBytes]
	}
	return b
}
