package suite

import (
	"context"
	"testing"
	"time"

	"github.com/kuitang/quiz-uitest/internal/artifacts"
	"github.com/kuitang/quiz-uitest/internal/browser"
	"github.com/kuitang/quiz-uitest/internal/config"
	"github.com/kuitang/quiz-uitest/internal/datagen"
	"github.com/kuitang/quiz-uitest/internal/db"
	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/hasher"
	"github.com/kuitang/quiz-uitest/internal/logutil"
	"github.com/kuitang/quiz-uitest/internal/obs"
	"github.com/kuitang/quiz-uitest/internal/pages"
)

// DefaultRowWait bounds how long RequireRow waits for the application's write.
const DefaultRowWait = 5 * time.Second

// TestContext bundles everything a single test uses.
type TestContext struct {
	Ctx     context.Context
	Config  config.Config
	DB      *db.DB
	Browser *browser.Session
	Data    *datagen.Generator
	Hasher  hasher.Hasher

	t   testing.TB
	env *Env
}

// Setup prepares a UI test on the shared environment.
func Setup(t testing.TB, cats ...Category) *TestContext {
	t.Helper()
	return Shared(t).Setup(t, cats...)
}

// SetupDB prepares a database-only test on the shared environment.
func SetupDB(t testing.TB, cats ...Category) *TestContext {
	t.Helper()
	return Shared(t).SetupDB(t, cats...)
}

// Setup skips filtered tests, cleans the reserved pool before and after the
// test and gives it a fresh browser session. On failure a screenshot and
// the page HTML are stored before the session is released.
func (e *Env) Setup(t testing.TB, cats ...Category) *TestContext {
	t.Helper()

	tc := e.SetupDB(t, cats...)
	tc.Browser = e.Launcher.Acquire(t)
	// Registered after Acquire so it runs before the session is released.
	t.Cleanup(tc.captureFailure)
	return tc
}

// SetupDB is Setup without a browser.
func (e *Env) SetupDB(t testing.TB, cats ...Category) *TestContext {
	t.Helper()

	if !e.Filter.Allows(cats) {
		t.Skipf("categories %v filtered out", cats)
	}

	tc := &TestContext{
		Ctx:    obs.WithTest(context.Background(), t.Name()),
		Config: e.Config,
		DB:     e.DB,
		Data:   e.Data,
		Hasher: e.Hasher,
		t:      t,
		env:    e,
	}

	tc.cleanupReserved("before")
	t.Cleanup(func() { tc.cleanupReserved("after") })
	return tc
}

func (tc *TestContext) cleanupReserved(phase string) {
	if err := tc.DB.Cleanup(tc.Ctx, tc.env.Reserved); err != nil {
		tc.t.Logf("cleanup %s test (best effort): %v", phase, err)
	}
}

func (tc *TestContext) captureFailure() {
	if !tc.t.Failed() || tc.Browser == nil {
		return
	}
	logger := obs.From(tc.Ctx)
	tc.t.Logf("URL at failure: %s", tc.Browser.URL())

	png, err := tc.Browser.Screenshot("")
	if err != nil {
		tc.t.Logf("failure screenshot: %v", err)
	} else {
		tc.storeArtifact("screenshot.png", png, artifacts.ContentTypePNG)
	}

	html, err := tc.Browser.Content()
	if err != nil {
		tc.t.Logf("failure page content: %v", err)
		return
	}
	tc.t.Logf("Content preview: %s", logutil.TruncateForLog(html, 500))
	tc.storeArtifact("page.html", []byte(html), artifacts.ContentTypeHTML)
	logger.Warn("test failed", "url", tc.Browser.URL())
}

func (tc *TestContext) storeArtifact(name string, data []byte, contentType string) {
	key := artifacts.Key(obs.RunID(), tc.t.Name(), name)
	loc, err := tc.env.Artifacts.Put(tc.Ctx, key, data, contentType)
	if err != nil {
		tc.t.Logf("store %s: %v", name, err)
	}
	if loc != "" {
		tc.t.Logf("saved %s: %s", name, loc)
	}
}

// Login returns a login page object bound to this test's session.
func (tc *TestContext) Login() *pages.LoginPage {
	return pages.NewLoginPage(tc.Browser, tc.Config.BaseURL, tc.Config.Browser.SoftWait)
}

// Register returns a registration page object bound to this test's session.
func (tc *TestContext) Register() *pages.RegisterPage {
	return pages.NewRegisterPage(tc.Browser, tc.Config.BaseURL, tc.Config.Browser.SoftWait)
}

// InsertUser creates (or replaces) a user row. It reports failure instead
// of failing the test.
func (tc *TestContext) InsertUser(username, email, password, name string) bool {
	tc.t.Helper()
	err := tc.DB.InsertUser(tc.Ctx, tc.Hasher, db.NewUser{
		Username: username,
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		tc.t.Logf("insert user %q failed (%s): %v", username, errs.Classify(err), err)
		return false
	}
	return true
}

// MustInsertUser is InsertUser that fails the test on error.
func (tc *TestContext) MustInsertUser(b datagen.Bundle) {
	tc.t.Helper()
	if !tc.InsertUser(b.Username, b.Email, b.Password, b.Name) {
		tc.t.Fatalf("precondition: could not insert user %q", b.Username)
	}
}

// ExistingUser inserts the pre-registered account used by duplicate tests.
func (tc *TestContext) ExistingUser() datagen.Bundle {
	tc.t.Helper()
	b := datagen.ExistingUser()
	tc.MustInsertUser(b)
	return b
}

// WaitForRow waits up to timeout for a row for username.
func (tc *TestContext) WaitForRow(username string, timeout time.Duration) (*db.User, bool) {
	tc.t.Helper()
	u, err := tc.DB.WaitForUser(tc.Ctx, username, timeout, 0)
	if err != nil {
		if !errs.Is(err, errs.DeadlineExceeded) {
			tc.t.Logf("wait for row %q: %v", username, err)
		}
		return nil, false
	}
	return u, true
}

// RequireRow fails the test unless a row for username appears.
func (tc *TestContext) RequireRow(username string) *db.User {
	tc.t.Helper()
	u, ok := tc.WaitForRow(username, DefaultRowWait)
	if !ok {
		tc.t.Fatalf("expected a users row for %q", username)
	}
	return u
}

// RequireNoRow fails the test if a row for username exists.
func (tc *TestContext) RequireNoRow(username string) {
	tc.t.Helper()
	exists, err := tc.DB.UserExists(tc.Ctx, username)
	if err != nil {
		tc.t.Fatalf("check users row for %q: %v", username, err)
	}
	if exists {
		tc.t.Fatalf("expected no users row for %q", username)
	}
}

// Stub marks a placeholder test: its steps ran, but no assertion is made
// about behaviour the application does not have yet.
func (tc *TestContext) Stub(reason string) {
	tc.t.Helper()
	tc.t.Skip("stub: " + reason)
}
