package hasher

import "context"

// InsecurePlaintext stores the password as its own "hash".
// For harness self-tests ONLY. It is never chosen as a fallback; it must be
// selected explicitly with HASHER=insecure-plaintext.
type InsecurePlaintext struct{}

func (InsecurePlaintext) Hash(_ context.Context, password string) (string, error) {
	return password, nil
}

func (InsecurePlaintext) Verify(_ context.Context, password, hash string) (bool, error) {
	return password == hash, nil
}
