package browser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/quiz-uitest/internal/errs"
)

// Session is one test's browser: an isolated context with a single page.
// Sessions are never shared between tests.
type Session struct {
	ctx  playwright.BrowserContext
	page playwright.Page

	releaseOnce sync.Once
	releaseErr  error
}

func newSession(ctx playwright.BrowserContext, page playwright.Page) *Session {
	return &Session{ctx: ctx, page: page}
}

// Page returns the underlying Playwright page.
func (s *Session) Page() playwright.Page {
	return s.page
}

// Release closes the page and its context. It is safe to call more than once.
func (s *Session) Release() error {
	s.releaseOnce.Do(func() {
		var errList []error
		if s.page != nil && !s.page.IsClosed() {
			if err := s.page.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close page: %w", err))
			}
		}
		if s.ctx != nil {
			if err := s.ctx.Close(); err != nil {
				errList = append(errList, fmt.Errorf("close context: %w", err))
			}
		}
		s.releaseErr = errors.Join(errList...)
	})
	return s.releaseErr
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(url string) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return WrapError(fmt.Sprintf("navigate to %s", url), err)
	}
	return nil
}

// URL returns the current page URL.
func (s *Session) URL() string {
	return s.page.URL()
}

// Title returns the document title.
func (s *Session) Title() (string, error) {
	title, err := s.page.Title()
	if err != nil {
		return "", WrapError("read title", err)
	}
	return title, nil
}

// Content returns the current page HTML.
func (s *Session) Content() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", WrapError("read page content", err)
	}
	return html, nil
}

// ClearCookies drops every cookie in the session's context.
func (s *Session) ClearCookies() error {
	if err := s.ctx.ClearCookies(); err != nil {
		return WrapError("clear cookies", err)
	}
	return nil
}

// Reload reloads the current page.
func (s *Session) Reload() error {
	if _, err := s.page.Reload(); err != nil {
		return WrapError("reload", err)
	}
	return nil
}

// WaitForURLContains reports whether the URL comes to contain fragment
// within timeout. A URL that never changes is an answer, not an error.
func (s *Session) WaitForURLContains(fragment string, timeout time.Duration) bool {
	if strings.Contains(s.page.URL(), fragment) {
		return true
	}
	err := s.page.WaitForURL(regexp.MustCompile(regexp.QuoteMeta(fragment)), playwright.PageWaitForURLOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateCommit,
	})
	return err == nil
}

// Screenshot captures the full page, writing it to path when path is set.
func (s *Session) Screenshot(path string) ([]byte, error) {
	opts := playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("create screenshot directory: %w", err)
		}
		opts.Path = playwright.String(path)
	}
	png, err := s.page.Screenshot(opts)
	if err != nil {
		return nil, WrapError("screenshot", err)
	}
	return png, nil
}

// IsTimeout reports whether err came from a Playwright wait running out.
func IsTimeout(err error) bool {
	return errors.Is(err, playwright.ErrTimeout) || errs.Is(err, errs.DeadlineExceeded)
}

// WrapError classifies a Playwright error: timeouts become DeadlineExceeded.
func WrapError(message string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.DeadlineExceeded, message, err)
	}
	return errs.Wrap(errs.Internal, message, err)
}
