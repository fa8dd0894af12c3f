package hasher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/errs"
)

// fakePHP writes a shell script standing in for the php binary.
func fakePHP(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake php binary needs /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "php")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestPHP_HashReadsStdout(t *testing.T) {
	t.Parallel()
	bin := fakePHP(t, `cat >/dev/null
printf '%s\n' '$2y$10$abcdefghijklmnopqrstuuN9rZ7C2yY0o5M1xWm2v1W8cV3x4y5z6'`)

	h := NewPHP(bin, time.Second)
	hash, err := h.Hash(context.Background(), "Test@123")
	require.NoError(t, err)
	assert.Equal(t, "$2y$10$abcdefghijklmnopqrstuuN9rZ7C2yY0o5M1xWm2v1W8cV3x4y5z6", hash)
}

func TestPHP_PasswordGoesThroughStdin(t *testing.T) {
	t.Parallel()
	// Echo stdin back behind a "$" so Hash accepts it.
	bin := fakePHP(t, `printf '$'; cat`)

	h := NewPHP(bin, time.Second)
	hash, err := h.Hash(context.Background(), "it's \"quoted\"; rm -rf /")
	require.NoError(t, err)
	assert.Equal(t, "$it's \"quoted\"; rm -rf /", hash)
}

func TestPHP_VerifyParsesResult(t *testing.T) {
	t.Parallel()
	yes := NewPHP(fakePHP(t, `cat >/dev/null; echo true`), time.Second)
	ok, err := yes.Verify(context.Background(), "Test@123", "$2y$10$x")
	require.NoError(t, err)
	assert.True(t, ok)

	no := NewPHP(fakePHP(t, `cat >/dev/null; echo false`), time.Second)
	ok, err = no.Verify(context.Background(), "Test@123", "$2y$10$x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPHP_MissingBinaryIsUnavailable(t *testing.T) {
	t.Parallel()
	h := NewPHP(filepath.Join(t.TempDir(), "no-such-php"), time.Second)
	_, err := h.Hash(context.Background(), "Test@123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnavailable), "got %v", err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
	assert.Equal(t, errs.ClassExternal, errs.Classify(err))
}

func TestPHP_NonZeroExitIsUnavailable(t *testing.T) {
	t.Parallel()
	h := NewPHP(fakePHP(t, `echo "PHP Fatal error" >&2; exit 255`), time.Second)
	_, err := h.Hash(context.Background(), "Test@123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBackendUnavailable))
	assert.Contains(t, err.Error(), "PHP Fatal error")
}

func TestPHP_EmptyOrGarbageOutputIsUnavailable(t *testing.T) {
	t.Parallel()
	empty := NewPHP(fakePHP(t, `cat >/dev/null`), time.Second)
	_, err := empty.Hash(context.Background(), "Test@123")
	assert.True(t, errors.Is(err, ErrBackendUnavailable), "got %v", err)

	garbage := NewPHP(fakePHP(t, `cat >/dev/null; echo "Warning: something"`), time.Second)
	_, err = garbage.Hash(context.Background(), "Test@123")
	assert.True(t, errors.Is(err, ErrBackendUnavailable), "got %v", err)
}

func TestPHP_TimeoutIsHardFailure(t *testing.T) {
	t.Parallel()
	h := NewPHP(fakePHP(t, `exec sleep 5`), 100*time.Millisecond)

	start := time.Now()
	_, err := h.Hash(context.Background(), "Test@123")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)
	assert.Equal(t, errs.DeadlineExceeded, errs.CodeOf(err))
	assert.False(t, errors.Is(err, ErrBackendUnavailable), "timeout must not look like a missing backend")
}

func TestNewPHP_Defaults(t *testing.T) {
	t.Parallel()
	h := NewPHP("", 0)
	assert.Equal(t, "php", h.Bin)
	assert.Equal(t, DefaultTimeout, h.Timeout)
}

func TestCommandLine_QuotesScript(t *testing.T) {
	t.Parallel()
	got := commandLine("php", "-r", phpHashScript)
	assert.True(t, strings.HasPrefix(got, "php -r '"), got)
}

func testBcrypt_RoundTrip(t *rapid.T) {
	password := rapid.StringMatching(`[A-Za-z0-9!@#$%^&*()_+{}\[\]]{1,100}`).Draw(t, "password")
	h := Bcrypt{Cost: 4}
	ctx := context.Background()

	hash, err := h.Hash(ctx, password)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$2y$04$") {
		t.Fatalf("hash %q does not use the PHP $2y$ prefix", hash)
	}
	ok, err := h.Verify(ctx, password, hash)
	if err != nil || !ok {
		t.Fatalf("Verify(own hash) = %v, %v", ok, err)
	}
	ok, err = h.Verify(ctx, password+"x", hash)
	if err != nil {
		t.Fatalf("Verify(wrong): %v", err)
	}
	if ok && len(password) < bcryptMaxBytes {
		t.Fatalf("wrong password verified")
	}
}

func TestBcrypt_RoundTrip(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testBcrypt_RoundTrip)
}

func TestBcrypt_OverlongPasswordTruncatesLikePHP(t *testing.T) {
	t.Parallel()
	h := Bcrypt{Cost: 4}
	ctx := context.Background()
	long := strings.Repeat("A", 100)

	hash, err := h.Hash(ctx, long)
	require.NoError(t, err)
	ok, err := h.Verify(ctx, strings.Repeat("A", 72), hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBcrypt_VerifyRejectsMalformedHash(t *testing.T) {
	t.Parallel()
	_, err := Bcrypt{}.Verify(context.Background(), "Test@123", "not-a-hash")
	assert.Error(t, err)
}

func TestInsecurePlaintext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	hash, err := InsecurePlaintext{}.Hash(ctx, "Test@123")
	require.NoError(t, err)
	assert.Equal(t, "Test@123", hash)
	ok, err := InsecurePlaintext{}.Verify(ctx, "Test@123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNew_SelectsBackend(t *testing.T) {
	t.Parallel()
	h, err := New(config.HasherConfig{Backend: config.HasherPHP, PHPBin: "/usr/bin/php", Timeout: time.Second})
	require.NoError(t, err)
	assert.IsType(t, &PHP{}, h)

	h, err = New(config.HasherConfig{Backend: config.HasherBcrypt})
	require.NoError(t, err)
	assert.IsType(t, Bcrypt{}, h)

	h, err = New(config.HasherConfig{Backend: config.HasherInsecurePlaintext})
	require.NoError(t, err)
	assert.IsType(t, InsecurePlaintext{}, h)

	_, err = New(config.HasherConfig{Backend: "md5"})
	assert.Error(t, err)
}
