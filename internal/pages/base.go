// Package pages holds Page Objects for the quiz application's login and
// registration screens. Tests drive the application only through these
// types; locators live here and nowhere else.
package pages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/quiz-uitest/internal/browser"
	"github.com/kuitang/quiz-uitest/internal/obs"
	"github.com/kuitang/quiz-uitest/internal/urlutil"
)

// DefaultSoftWait bounds lookups for messages that may legitimately never appear.
const DefaultSoftWait = 5 * time.Second

// Shared locators.
const (
	usernameInput = "#username"
	passwordInput = "#InputPassword"
	submitButton  = "button[name='submit']"
	errorMessage  = ".alert-danger"
	titleHeading  = "h4"
)

// Session is the slice of a browser session a Page Object needs.
type Session interface {
	Page() playwright.Page
	URL() string
}

// State tracks where a page is in its form lifecycle.
type State int

const (
	Unloaded State = iota
	Loaded
	FieldsPartiallyFilled
	Submitted
	Redirected
	ErrorShown
	ValidationShown
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loaded:
		return "loaded"
	case FieldsPartiallyFilled:
		return "fields-partially-filled"
	case Submitted:
		return "submitted"
	case Redirected:
		return "redirected"
	case ErrorShown:
		return "error-shown"
	case ValidationShown:
		return "validation-shown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether s is an outcome of a submit.
func (s State) Terminal() bool {
	return s == Redirected || s == ErrorShown || s == ValidationShown
}

// base carries what every form page shares: navigation, field entry,
// submission and soft message lookup.
type base struct {
	session       Session
	url           string
	path          string
	expectedTitle string
	softWait      time.Duration
	state         State
	logger        *slog.Logger
}

func newBase(s Session, baseURL, path, expectedTitle string, softWait time.Duration) base {
	if softWait <= 0 {
		softWait = DefaultSoftWait
	}
	return base{
		session:       s,
		url:           urlutil.BuildAbsolute(baseURL, path),
		path:          path,
		expectedTitle: expectedTitle,
		softWait:      softWait,
		logger:        obs.From(obs.WithPage(context.Background(), strings.TrimSuffix(path, ".php"))).With("pkg", "pages"),
	}
}

func (b *base) page() playwright.Page {
	return b.session.Page()
}

// URL is the address this page object navigates to.
func (b *base) URL() string {
	return b.url
}

// State returns the tracked lifecycle state.
func (b *base) State() State {
	return b.state
}

// Navigate loads the page and waits for the load event.
func (b *base) Navigate() error {
	_, err := b.page().Goto(b.url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
	})
	if err != nil {
		return browser.WrapError(fmt.Sprintf("navigate to %s", b.url), err)
	}
	b.state = Loaded
	b.logger.Debug("page loaded", "url", b.url)
	return nil
}

// enter waits for the field to be present, clears it and types value.
func (b *base) enter(selector, field, value string) error {
	loc := b.page().Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateAttached}); err != nil {
		return browser.WrapError(fmt.Sprintf("find %s field", field), err)
	}
	if err := loc.Clear(); err != nil {
		return browser.WrapError(fmt.Sprintf("clear %s field", field), err)
	}
	if err := loc.Fill(value); err != nil {
		return browser.WrapError(fmt.Sprintf("fill %s field", field), err)
	}
	if b.state == Loaded {
		b.state = FieldsPartiallyFilled
	}
	return nil
}

// click waits until the element is visible and clicks it. Playwright's
// actionability checks cover enabled and stable.
func (b *base) click(selector, what string) error {
	loc := b.page().Locator(selector).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateVisible}); err != nil {
		return browser.WrapError(fmt.Sprintf("find %s", what), err)
	}
	if err := loc.Click(); err != nil {
		return browser.WrapError(fmt.Sprintf("click %s", what), err)
	}
	return nil
}

// Submit clicks the form's submit button.
func (b *base) Submit() error {
	if err := b.click(submitButton, "submit button"); err != nil {
		return err
	}
	b.state = Submitted
	b.logger.Debug("form submitted", "url", b.url)
	return nil
}

// softText returns the trimmed text of the first visible match, or
// ("", false, nil) when nothing shows up within timeout. Any other failure,
// such as a closed page, is returned as an error.
func (b *base) softText(selector string, timeout time.Duration) (string, bool, error) {
	loc := b.page().Locator(selector).First()
	err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	if errors.Is(err, playwright.ErrTimeout) {
		return "", false, nil
	}
	if err != nil {
		b.logger.Debug("soft lookup failed", "selector", selector, "error", err)
		return "", false, browser.WrapError(fmt.Sprintf("wait for %s", selector), err)
	}
	text, err := loc.InnerText()
	if err != nil {
		return "", false, browser.WrapError(fmt.Sprintf("read %s", selector), err)
	}
	return strings.TrimSpace(text), true, nil
}

// ErrorMessage returns the application's error banner text, if one appears
// within the soft wait. Absence is not an error.
func (b *base) ErrorMessage() (string, bool, error) {
	text, ok, err := b.softText(errorMessage, b.softWait)
	if ok {
		b.state = ErrorShown
	}
	return text, ok, err
}

// HasErrorMessage reports whether the error banner appears within timeout.
func (b *base) HasErrorMessage(timeout time.Duration) (bool, error) {
	_, ok, err := b.softText(errorMessage, timeout)
	return ok, err
}

// Title returns the page heading text.
func (b *base) Title() (string, error) {
	loc := b.page().Locator(titleHeading).First()
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{State: playwright.WaitForSelectorStateAttached}); err != nil {
		return "", browser.WrapError("find page heading", err)
	}
	text, err := loc.InnerText()
	if err != nil {
		return "", browser.WrapError("read page heading", err)
	}
	return strings.TrimSpace(text), nil
}

// IsExpectedTitle reports whether the heading matches this page.
func (b *base) IsExpectedTitle() bool {
	title, err := b.Title()
	return err == nil && title == b.expectedTitle
}

// ExpectedTitle is the heading this page shows.
func (b *base) ExpectedTitle() string {
	return b.expectedTitle
}

func (b *base) inputValue(selector, field string) (string, error) {
	value, err := b.page().Locator(selector).First().InputValue()
	if err != nil {
		return "", browser.WrapError(fmt.Sprintf("read %s field", field), err)
	}
	return value, nil
}

// visible checks that every selector resolves to a displayed element.
func (b *base) visible(selectors map[string]string) error {
	var missing []string
	for field, selector := range selectors {
		ok, err := b.page().Locator(selector).First().IsVisible()
		if err != nil {
			return browser.WrapError(fmt.Sprintf("check %s", field), err)
		}
		if !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("%s: elements not displayed: %s", b.path, strings.Join(missing, ", "))
	}
	return nil
}

// OnPage reports whether the browser is still on this page.
func (b *base) OnPage() bool {
	return strings.Contains(b.session.URL(), b.path)
}

// outcome classifies what a submit led to by inspecting the URL and DOM.
// It waits up to the soft wait for a message before deciding nothing was shown.
func (b *base) outcome(validationSelector string) (State, error) {
	if b.state == Unloaded {
		return Unloaded, nil
	}
	if !b.OnPage() {
		b.state = Redirected
		return b.state, nil
	}
	selectors := errorMessage
	if validationSelector != "" {
		selectors += ", " + validationSelector
	}
	_, ok, err := b.softText(selectors, b.softWait)
	if err != nil {
		return b.state, err
	}
	if !ok {
		if !b.OnPage() {
			b.state = Redirected
		}
		return b.state, nil
	}
	banner, err := b.page().Locator(errorMessage).First().IsVisible()
	if err != nil {
		return b.state, browser.WrapError("check error banner", err)
	}
	if banner {
		b.state = ErrorShown
	} else {
		b.state = ValidationShown
	}
	return b.state, nil
}
