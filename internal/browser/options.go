// Package browser owns the Chromium lifecycle for UI tests. Playwright and
// the browser process are started once per test binary; every test gets its
// own isolated browser context and page, released when the test ends.
package browser

import (
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/quiz-uitest/internal/config"
)

const (
	DefaultWidth             = 1920
	DefaultHeight            = 1080
	DefaultImplicitWait      = 10 * time.Second
	DefaultNavigationTimeout = 30 * time.Second
)

// Options controls how Chromium is launched and how pages wait.
type Options struct {
	Headless           bool
	DisableGPU         bool
	NoSandbox          bool
	DisableDevShmUsage bool
	Width              int
	Height             int

	// ImplicitWait bounds every element lookup and action.
	ImplicitWait time.Duration
	// NavigationTimeout bounds page loads.
	NavigationTimeout time.Duration
}

// DefaultOptions returns the launch profile used in CI containers.
func DefaultOptions() Options {
	return Options{
		Headless:           true,
		DisableGPU:         true,
		NoSandbox:          true,
		DisableDevShmUsage: true,
		Width:              DefaultWidth,
		Height:             DefaultHeight,
		ImplicitWait:       DefaultImplicitWait,
		NavigationTimeout:  DefaultNavigationTimeout,
	}
}

// OptionsFromConfig applies the configured browser settings to the defaults.
func OptionsFromConfig(cfg config.BrowserConfig) Options {
	opts := DefaultOptions()
	opts.Headless = cfg.Headless
	if cfg.Width > 0 && cfg.Height > 0 {
		opts.Width, opts.Height = cfg.Width, cfg.Height
	}
	if cfg.ImplicitWait > 0 {
		opts.ImplicitWait = cfg.ImplicitWait
	}
	return opts
}

// Args returns the Chromium command-line switches. Headless mode itself is
// passed through the launch options, not as a switch.
func (o Options) Args() []string {
	var args []string
	if o.DisableGPU {
		args = append(args, "--disable-gpu")
	}
	args = append(args, fmt.Sprintf("--window-size=%d,%d", o.width(), o.height()))
	if o.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	if o.DisableDevShmUsage {
		args = append(args, "--disable-dev-shm-usage")
	}
	return append(args, "--disable-web-resources")
}

// Viewport is the fixed page size, matching the window size.
func (o Options) Viewport() *playwright.Size {
	return &playwright.Size{Width: o.width(), Height: o.height()}
}

func (o Options) launchOptions() playwright.BrowserTypeLaunchOptions {
	return playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(o.Headless),
		Args:     o.Args(),
	}
}

func (o Options) implicitWaitMS() float64 {
	if o.ImplicitWait <= 0 {
		return float64(DefaultImplicitWait.Milliseconds())
	}
	return float64(o.ImplicitWait.Milliseconds())
}

func (o Options) navigationTimeoutMS() float64 {
	if o.NavigationTimeout <= 0 {
		return float64(DefaultNavigationTimeout.Milliseconds())
	}
	return float64(o.NavigationTimeout.Milliseconds())
}

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

func (o Options) height() int {
	if o.Height <= 0 {
		return DefaultHeight
	}
	return o.Height
}
