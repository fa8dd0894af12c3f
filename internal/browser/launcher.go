package browser

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// ErrUnavailable is returned when Playwright or Chromium cannot be started.
var ErrUnavailable = errors.New("browser: playwright unavailable")

// Launcher starts Playwright and Chromium lazily and hands out sessions.
// It is safe for concurrent use; the browser process is shared.
type Launcher struct {
	opts Options

	mu       sync.Mutex
	pw       *playwright.Playwright
	browser  playwright.Browser
	startErr error
}

// NewLauncher returns a Launcher that has not started anything yet.
func NewLauncher(opts Options) *Launcher {
	return &Launcher{opts: opts}
}

// Options returns the launch options.
func (l *Launcher) Options() Options {
	return l.opts
}

// Start launches Playwright and Chromium if they are not running. A failed
// start is remembered so later callers fail fast.
func (l *Launcher) Start() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startLocked()
}

func (l *Launcher) startLocked() error {
	if l.browser != nil {
		return nil
	}
	if l.startErr != nil {
		return l.startErr
	}

	logger := obs.Pkg("browser")

	pw, err := playwright.Run()
	if err != nil {
		l.startErr = errs.Wrap(errs.Unavailable, "start playwright", fmt.Errorf("%w: %w", ErrUnavailable, err))
		return l.startErr
	}

	browser, err := pw.Chromium.Launch(l.opts.launchOptions())
	if err != nil {
		_ = pw.Stop()
		l.startErr = errs.Wrap(errs.Unavailable, "launch chromium", fmt.Errorf("%w: %w", ErrUnavailable, err))
		return l.startErr
	}

	logger.Info("chromium launched", "headless", l.opts.Headless, "args", l.opts.Args(), "version", browser.Version())
	l.pw = pw
	l.browser = browser
	return nil
}

// NewSession opens a fresh browser context and page.
func (l *Launcher) NewSession() (*Session, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.startLocked(); err != nil {
		return nil, err
	}

	bctx, err := l.browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: l.opts.Viewport(),
	})
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "create browser context", err)
	}
	bctx.SetDefaultTimeout(l.opts.implicitWaitMS())
	bctx.SetDefaultNavigationTimeout(l.opts.navigationTimeoutMS())

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, errs.Wrap(errs.Unavailable, "create page", err)
	}
	page.SetDefaultTimeout(l.opts.implicitWaitMS())
	page.SetDefaultNavigationTimeout(l.opts.navigationTimeoutMS())

	return newSession(bctx, page), nil
}

// Acquire returns a session for t and registers its release with
// t.Cleanup. The test is skipped when Playwright is not installed.
func (l *Launcher) Acquire(t testing.TB) *Session {
	t.Helper()

	s, err := l.NewSession()
	if errors.Is(err, ErrUnavailable) {
		t.Skip("Playwright not available:", err)
	}
	if err != nil {
		t.Fatalf("could not create browser session: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Release(); err != nil {
			t.Logf("release browser session: %v", err)
		}
	})
	return s
}

// Close stops Chromium and Playwright. The Launcher can be started again.
func (l *Launcher) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errList []error
	if l.browser != nil {
		if err := l.browser.Close(); err != nil {
			errList = append(errList, fmt.Errorf("close browser: %w", err))
		}
	}
	if l.pw != nil {
		if err := l.pw.Stop(); err != nil {
			errList = append(errList, fmt.Errorf("stop playwright: %w", err))
		}
	}
	l.browser = nil
	l.pw = nil
	l.startErr = nil
	return errors.Join(errList...)
}
