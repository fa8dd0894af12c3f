// Package artifacts stores failure evidence (screenshots and page HTML)
// captured when a UI test fails, on local disk and optionally in S3.
package artifacts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// Content types for captured artifacts.
const (
	ContentTypePNG  = "image/png"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Store persists an artifact under key and returns where it ended up.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key builds a storage key of the form runs/<run>/<test>/<name>. Subtest
// separators and other unsafe characters are replaced.
func Key(runID, test, name string) string {
	clean := func(s string) string {
		s = unsafeKeyChars.ReplaceAllString(s, "_")
		s = strings.Trim(s, "_.")
		if s == "" {
			return "unnamed"
		}
		return s
	}
	return path.Join("runs", clean(runID), clean(test), clean(name))
}

// LocalStore writes artifacts below Dir.
type LocalStore struct {
	Dir string
}

func (s LocalStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	target := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return "", fmt.Errorf("artifacts: create directory for %q: %w", key, err)
	}
	if err := os.WriteFile(target, data, 0o640); err != nil {
		return "", fmt.Errorf("artifacts: write %q: %w", key, err)
	}
	return target, nil
}

// Multi writes to every store. A failing store does not stop the others.
type Multi []Store

func (m Multi) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	var locations []string
	var errList []error
	for _, s := range m {
		loc, err := s.Put(ctx, key, data, contentType)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		locations = append(locations, loc)
	}
	return strings.Join(locations, ", "), errors.Join(errList...)
}

// Discard drops artifacts. It is used when nothing is configured.
type Discard struct{}

func (Discard) Put(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

// NewFromConfig returns the store described by cfg: a local directory, an
// S3 bucket, both, or Discard when neither is set.
func NewFromConfig(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	var stores Multi
	if cfg.ScreenshotDir != "" {
		stores = append(stores, LocalStore{Dir: cfg.ScreenshotDir})
	}
	if cfg.UploadEnabled() {
		s3Store, err := NewS3Store(ctx, S3Config{
			Endpoint:        cfg.AWSEndpointS3,
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			BucketName:      cfg.Bucket,
			UsePathStyle:    cfg.AWSEndpointS3 != "",
		})
		if err != nil {
			return nil, err
		}
		obs.Pkg("artifacts").Info("failure artifacts will be uploaded", "bucket", s3Store.BucketName())
		stores = append(stores, s3Store)
	}

	switch len(stores) {
	case 0:
		return Discard{}, nil
	case 1:
		return stores[0], nil
	default:
		return stores, nil
	}
}
