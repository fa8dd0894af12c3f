package artifacts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/kuitang/quiz-uitest/internal/config"
)

func TestKey_Sanitizes(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "runs/run-1/TestLogin_FT001_valid_login/screenshot.png",
		Key("run-1", "TestLogin_FT001/valid login", "screenshot.png"))
	assert.Equal(t, "runs/unnamed/unnamed/unnamed", Key("", "///", ".."))
}

func testKey_StaysUnderRuns(t *rapid.T) {
	test := rapid.String().Draw(t, "test")
	name := rapid.String().Draw(t, "name")
	key := Key("run", test, name)
	if !strings.HasPrefix(key, "runs/run/") {
		t.Fatalf("key escaped prefix: %q", key)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			t.Fatalf("key %q has unsafe segment %q", key, seg)
		}
	}
	if got := strings.Count(key, "/"); got != 3 {
		t.Fatalf("key %q has %d separators", key, got)
	}
}

func TestKey_StaysUnderRuns(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testKey_StaysUnderRuns)
}

func TestLocalStore_Put(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	store := LocalStore{Dir: dir}

	loc, err := store.Put(context.Background(), "runs/r/TestX/page.html", []byte("<h4>Sign-In</h4>"), ContentTypeHTML)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "runs", "r", "TestX", "page.html"), loc)

	data, err := os.ReadFile(loc)
	require.NoError(t, err)
	assert.Equal(t, "<h4>Sign-In</h4>", string(data))
}

func TestS3Store_PutGetList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := TestS3Store(t, "ui-artifacts")
	assert.Equal(t, "ui-artifacts", store.BucketName())

	key := Key("r1", "TestRegister_FT009", "screenshot.png")
	loc, err := store.Put(ctx, key, []byte{0x89, 'P', 'N', 'G'}, ContentTypePNG)
	require.NoError(t, err)
	assert.Equal(t, "s3://ui-artifacts/"+key, loc)

	data, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data)

	keys, err := store.List(ctx, "runs/r1/")
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)

	_, err = store.Get(ctx, "runs/missing")
	assert.True(t, errors.Is(err, ErrObjectNotFound), "got %v", err)
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) (string, error) {
	return "", errors.New("disk full")
}

func TestMulti_ContinuesPastFailures(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	m := Multi{failingStore{}, LocalStore{Dir: dir}}

	loc, err := m.Put(context.Background(), "runs/r/T/a.txt", []byte("x"), "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, filepath.Join(dir, "runs", "r", "T", "a.txt"), loc)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	store, err := NewFromConfig(context.Background(), config.ArtifactConfig{})
	require.NoError(t, err)
	assert.IsType(t, Discard{}, store)

	dir := t.TempDir()
	store, err = NewFromConfig(context.Background(), config.ArtifactConfig{ScreenshotDir: dir})
	require.NoError(t, err)
	assert.Equal(t, LocalStore{Dir: dir}, store)

	store, err = NewFromConfig(context.Background(), config.ArtifactConfig{
		ScreenshotDir:      dir,
		Bucket:             "bucket",
		AWSEndpointS3:      "http://127.0.0.1:9000",
		AWSRegion:          "auto",
		AWSAccessKeyID:     "key",
		AWSSecretAccessKey: "secret",
	})
	require.NoError(t, err)
	multi, ok := store.(Multi)
	require.True(t, ok, "expected Multi, got %T", store)
	assert.Len(t, multi, 2)
}
