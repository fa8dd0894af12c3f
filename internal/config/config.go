// Package config loads harness configuration from environment variables.
// Values are read once when the shared fixtures are created and are never
// mutated during a run.
//
// The live UI suite only runs when QUIZ_E2E is set; everything else has a
// default that matches a local XAMPP-style install of the quiz application.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kuitang/quiz-uitest/internal/urlutil"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite3"
)

// Supported hasher backends.
const (
	HasherPHP               = "php"
	HasherBcrypt            = "bcrypt"
	HasherInsecurePlaintext = "insecure-plaintext"
)

const (
	defaultBaseURL      = "http://localhost/quiz"
	defaultImplicitWait = 10 * time.Second
	defaultSoftWait     = 5 * time.Second
	defaultHashTimeout  = 5 * time.Second
)

// Config holds all harness configuration.
type Config struct {
	// Application under test
	E2E     bool   // QUIZ_E2E: run the live UI suite
	BaseURL string // QUIZ_BASE_URL

	DB      DBConfig
	Browser BrowserConfig
	Hasher  HasherConfig

	// Category filters (comma-separated lists)
	Categories     []string // TEST_CATEGORIES
	SkipCategories []string // TEST_SKIP_CATEGORIES

	Artifacts ArtifactConfig
}

// DBConfig describes how to reach the application's database.
type DBConfig struct {
	Driver   string // DB_DRIVER
	DSN      string // DB_DSN, overrides the pieces below
	Host     string // DB_HOST
	Port     int    // DB_PORT
	User     string // DB_USER
	Password string // DB_PASSWORD
	Name     string // DB_NAME
	Migrate  bool   // DB_MIGRATE
}

// BrowserConfig configures the Chromium session fixture.
type BrowserConfig struct {
	Headless     bool          // BROWSER_HEADLESS
	Width        int           // BROWSER_WINDOW_SIZE
	Height       int           // BROWSER_WINDOW_SIZE
	ImplicitWait time.Duration // BROWSER_IMPLICIT_WAIT
	SoftWait     time.Duration // BROWSER_SOFT_WAIT
}

// HasherConfig selects the credential hasher backend.
type HasherConfig struct {
	Backend string        // HASHER
	PHPBin  string        // PHP_BIN
	Timeout time.Duration // HASHER_TIMEOUT
}

// ArtifactConfig controls where failure screenshots go.
type ArtifactConfig struct {
	ScreenshotDir      string // SCREENSHOT_DIR
	Bucket             string // ARTIFACT_BUCKET
	AWSEndpointS3      string // AWS_ENDPOINT_URL_S3
	AWSRegion          string // AWS_REGION
	AWSAccessKeyID     string // AWS_ACCESS_KEY_ID
	AWSSecretAccessKey string // AWS_SECRET_ACCESS_KEY
}

// UploadEnabled reports whether failure artifacts go to S3.
func (a ArtifactConfig) UploadEnabled() bool {
	return a.Bucket != ""
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// E2EEnabled reports whether QUIZ_E2E asks for the live UI suite.
func E2EEnabled() bool {
	return parseBoolOrDefault("QUIZ_E2E", false)
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.E2E = E2EEnabled()
	cfg.BaseURL = urlutil.NormalizeBase(getEnvOrDefault("QUIZ_BASE_URL", defaultBaseURL))

	cfg.DB = DBConfig{
		Driver:   strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverMySQL)),
		DSN:      strings.TrimSpace(os.Getenv("DB_DSN")),
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		User:     getEnvOrDefault("DB_USER", "root"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     getEnvOrDefault("DB_NAME", "quiz_pengupil"),
		Migrate:  parseBoolOrDefault("DB_MIGRATE", false),
	}
	cfg.DB.Port = parseIntOrDefault("DB_PORT", defaultPort(cfg.DB.Driver))

	cfg.Browser = BrowserConfig{
		Headless:     parseBoolOrDefault("BROWSER_HEADLESS", true),
		ImplicitWait: parseDurationOrDefault("BROWSER_IMPLICIT_WAIT", defaultImplicitWait),
		SoftWait:     parseDurationOrDefault("BROWSER_SOFT_WAIT", defaultSoftWait),
	}
	width, height, sizeErr := parseWindowSize(getEnvOrDefault("BROWSER_WINDOW_SIZE", "1920,1080"))
	cfg.Browser.Width, cfg.Browser.Height = width, height

	cfg.Hasher = HasherConfig{
		Backend: strings.ToLower(getEnvOrDefault("HASHER", HasherPHP)),
		PHPBin:  getEnvOrDefault("PHP_BIN", "php"),
		Timeout: parseDurationOrDefault("HASHER_TIMEOUT", defaultHashTimeout),
	}

	cfg.Categories = splitList(os.Getenv("TEST_CATEGORIES"))
	cfg.SkipCategories = splitList(os.Getenv("TEST_SKIP_CATEGORIES"))

	cfg.Artifacts = ArtifactConfig{
		ScreenshotDir:      strings.TrimSpace(os.Getenv("SCREENSHOT_DIR")),
		Bucket:             strings.TrimSpace(os.Getenv("ARTIFACT_BUCKET")),
		AWSEndpointS3:      strings.TrimSpace(os.Getenv("AWS_ENDPOINT_URL_S3")),
		AWSRegion:          getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:     strings.TrimSpace(os.Getenv("AWS_ACCESS_KEY_ID")),
		AWSSecretAccessKey: strings.TrimSpace(os.Getenv("AWS_SECRET_ACCESS_KEY")),
	}

	err := cfg.Validate()
	if sizeErr != nil {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			verr = &ValidationError{}
		}
		verr.Errors = append(verr.Errors, sizeErr.Error())
		return nil, verr
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all configuration is present and consistent.
func (c *Config) Validate() error {
	var errs []string

	if c.BaseURL == "" {
		errs = append(errs, "QUIZ_BASE_URL must not be empty")
	} else if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		errs = append(errs, "QUIZ_BASE_URL must start with http:// or https://")
	}

	switch c.DB.Driver {
	case DriverMySQL, DriverPostgres:
		if c.DB.DSN == "" {
			if c.DB.Host == "" {
				errs = append(errs, "DB_HOST is required (or set DB_DSN)")
			}
			if c.DB.Name == "" {
				errs = append(errs, "DB_NAME is required (or set DB_DSN)")
			}
			if c.DB.Port <= 0 || c.DB.Port > 65535 {
				errs = append(errs, "DB_PORT must be between 1 and 65535")
			}
		}
	case DriverSQLite:
		if c.DB.DSN == "" && c.DB.Name == "" {
			errs = append(errs, "DB_DSN or DB_NAME is required for sqlite3")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported (mysql, pgx, sqlite3)", c.DB.Driver))
	}

	if c.Browser.ImplicitWait <= 0 {
		errs = append(errs, "BROWSER_IMPLICIT_WAIT must be positive")
	}
	if c.Browser.SoftWait <= 0 {
		errs = append(errs, "BROWSER_SOFT_WAIT must be positive")
	}

	switch c.Hasher.Backend {
	case HasherPHP:
		if c.Hasher.PHPBin == "" {
			errs = append(errs, "PHP_BIN must not be empty when HASHER=php")
		}
	case HasherBcrypt, HasherInsecurePlaintext:
	default:
		errs = append(errs, fmt.Sprintf("HASHER %q is not supported (php, bcrypt, insecure-plaintext)", c.Hasher.Backend))
	}
	if c.Hasher.Timeout <= 0 {
		errs = append(errs, "HASHER_TIMEOUT must be positive")
	}

	if c.Artifacts.UploadEnabled() {
		if c.Artifacts.AWSRegion == "" {
			errs = append(errs, "AWS_REGION is required when ARTIFACT_BUCKET is set")
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// LoginURL returns the login page URL.
func (c *Config) LoginURL() string {
	return urlutil.BuildAbsolute(c.BaseURL, "login.php")
}

// RegisterURL returns the register page URL.
func (c *Config) RegisterURL() string {
	return urlutil.BuildAbsolute(c.BaseURL, "register.php")
}

// IndexURL returns the page a successful login lands on.
func (c *Config) IndexURL() string {
	return urlutil.BuildAbsolute(c.BaseURL, "index.php")
}

// PrintSummary writes a human-readable summary of the configuration.
// Secrets are never printed.
func (c *Config) PrintSummary(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "quiz ui suite")
	fmt.Fprintf(w, "  App:      %s (e2e=%t)\n", c.BaseURL, c.E2E)
	if c.DB.DSN != "" {
		fmt.Fprintf(w, "  DB:       %s (DSN from DB_DSN)\n", c.DB.Driver)
	} else {
		fmt.Fprintf(w, "  DB:       %s %s@%s:%d/%s\n", c.DB.Driver, c.DB.User, c.DB.Host, c.DB.Port, c.DB.Name)
	}
	fmt.Fprintf(w, "  Browser:  headless=%t %dx%d wait=%s soft=%s\n",
		c.Browser.Headless, c.Browser.Width, c.Browser.Height, c.Browser.ImplicitWait, c.Browser.SoftWait)
	fmt.Fprintf(w, "  Hasher:   %s (timeout %s)\n", c.Hasher.Backend, c.Hasher.Timeout)
	if len(c.Categories) > 0 {
		fmt.Fprintf(w, "  Run:      %s\n", strings.Join(c.Categories, ","))
	}
	if len(c.SkipCategories) > 0 {
		fmt.Fprintf(w, "  Skip:     %s\n", strings.Join(c.SkipCategories, ","))
	}
	fmt.Fprintln(w, "")
}

func defaultPort(driver string) int {
	if driver == DriverPostgres {
		return 5432
	}
	return 3306
}

func parseWindowSize(value string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ReplaceAll(value, "x", ","), ",")
	if !ok {
		return 1920, 1080, fmt.Errorf("BROWSER_WINDOW_SIZE %q must look like 1920,1080", value)
	}
	width, errW := strconv.Atoi(strings.TrimSpace(w))
	height, errH := strconv.Atoi(strings.TrimSpace(h))
	if errW != nil || errH != nil || width <= 0 || height <= 0 {
		return 1920, 1080, fmt.Errorf("BROWSER_WINDOW_SIZE %q must look like 1920,1080", value)
	}
	return width, height, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper functions for parsing environment variables

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func parseIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
