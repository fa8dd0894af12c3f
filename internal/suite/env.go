// Package suite wires the fixtures together for UI tests: a process-wide
// environment (config, database, hasher, browser launcher, artifact store)
// and a per-test context that cleans the reserved user pool around each
// test and captures evidence when a test fails.
package suite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/kuitang/quiz-uitest/internal/artifacts"
	"github.com/kuitang/quiz-uitest/internal/browser"
	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/datagen"
	"github.com/kuitang/quiz-uitest/internal/db"
	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/hasher"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// Env holds the resources shared by every test in the process.
type Env struct {
	Config    config.Config
	DB        *db.DB
	Hasher    hasher.Hasher
	Launcher  *browser.Launcher
	Artifacts artifacts.Store
	Data      *datagen.Generator
	Filter    Filter

	// Reserved is the username pool cleaned before and after every test.
	Reserved []string
}

var (
	envMu     sync.Mutex
	sharedEnv *Env
	sharedErr error
)

// NewEnv opens every shared resource described by cfg. The browser is not
// started until the first session is acquired.
func NewEnv(ctx context.Context, cfg config.Config) (*Env, error) {
	h, err := hasher.New(cfg.Hasher)
	if err != nil {
		return nil, errs.Wrap(errs.FailedPrecondition, "configure hasher", err)
	}

	store, err := artifacts.NewFromConfig(ctx, cfg.Artifacts)
	if err != nil {
		return nil, errs.Wrap(errs.FailedPrecondition, "configure artifact store", err)
	}

	database, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	return &Env{
		Config:    cfg,
		DB:        database,
		Hasher:    h,
		Launcher:  browser.NewLauncher(browser.OptionsFromConfig(cfg.Browser)),
		Artifacts: store,
		Data:      datagen.New(),
		Filter:    NewFilter(cfg.Categories, cfg.SkipCategories),
		Reserved:  datagen.ReservedUsernames,
	}, nil
}

// Shared returns the process-wide environment, creating it on first use.
// Tests are skipped unless QUIZ_E2E is set. A failure to create the
// environment fails every test that asks for it.
func Shared(t testing.TB) *Env {
	t.Helper()

	envMu.Lock()
	defer envMu.Unlock()

	if sharedEnv != nil {
		return sharedEnv
	}
	if sharedErr != nil {
		t.Fatalf("test environment unavailable: %v", sharedErr)
	}

	if !config.E2EEnabled() {
		t.Skip("set QUIZ_E2E=1 to run UI tests against a live quiz application")
	}

	cfg, err := config.Load()
	if err != nil {
		sharedErr = err
		t.Fatalf("invalid test configuration: %v", err)
	}

	env, err := NewEnv(context.Background(), *cfg)
	if err != nil {
		sharedErr = err
		t.Fatalf("test environment unavailable (%s): %v", errs.Classify(err), err)
	}

	obs.Pkg("suite").Info("test environment ready", "base_url", cfg.BaseURL, "driver", cfg.DB.Driver, "hasher", cfg.Hasher.Backend)
	sharedEnv = env
	return sharedEnv
}

// Close releases the browser and the database.
func (e *Env) Close() error {
	var errList []error
	if e.Launcher != nil {
		if err := e.Launcher.Close(); err != nil {
			errList = append(errList, fmt.Errorf("close browser: %w", err))
		}
	}
	if e.DB != nil {
		if err := e.DB.Close(); err != nil {
			errList = append(errList, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errList...)
}

// Shutdown closes the shared environment. Call it from TestMain.
func Shutdown() {
	envMu.Lock()
	defer envMu.Unlock()

	if sharedEnv != nil {
		if err := sharedEnv.Close(); err != nil {
			obs.Pkg("suite").Warn("shutdown failed", "error", err)
		}
	}
	sharedEnv = nil
	sharedErr = nil
}
