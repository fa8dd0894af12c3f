package config

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func validTestConfig() Config {
	return Config{
		BaseURL: "http://localhost/quiz",
		DB: DBConfig{
			Driver: DriverMySQL,
			Host:   "localhost",
			Port:   3306,
			User:   "root",
			Name:   "quiz_pengupil",
		},
		Browser: BrowserConfig{
			Headless:     true,
			Width:        1920,
			Height:       1080,
			ImplicitWait: 10 * time.Second,
			SoftWait:     5 * time.Second,
		},
		Hasher: HasherConfig{
			Backend: HasherPHP,
			PHPBin:  "php",
			Timeout: 5 * time.Second,
		},
	}
}

func TestValidate_DefaultsPass(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.BaseURL = "localhost/quiz"
	cfg.DB.Host = ""
	cfg.DB.Name = ""
	cfg.Browser.ImplicitWait = 0
	cfg.Hasher.Backend = "md5"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	msg := err.Error()
	for _, expected := range []string{
		"QUIZ_BASE_URL",
		"DB_HOST",
		"DB_NAME",
		"BROWSER_IMPLICIT_WAIT",
		"HASHER",
	} {
		if !strings.Contains(msg, expected) {
			t.Fatalf("expected validation error to mention %q, got: %v", expected, err)
		}
	}
}

func TestValidate_DSNReplacesConnectionPieces(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.DB.DSN = "root:@tcp(db:3306)/quiz_pengupil"
	cfg.DB.Host = ""
	cfg.DB.Port = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DSN should satisfy connection requirements: %v", err)
	}
}

func testValidate_RejectsUnknownDrivers(t *rapid.T) {
	driver := rapid.StringMatching(`[a-z]{3,10}`).Filter(func(s string) bool {
		return s != DriverMySQL && s != DriverPostgres && s != DriverSQLite
	}).Draw(t, "driver")

	cfg := validTestConfig()
	cfg.DB.Driver = driver
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DB_DRIVER") {
		t.Fatalf("expected DB_DRIVER error for %q, got %v", driver, err)
	}
}

func TestValidate_RejectsUnknownDrivers(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testValidate_RejectsUnknownDrivers)
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"QUIZ_E2E", "QUIZ_BASE_URL", "DB_DRIVER", "DB_DSN", "DB_HOST", "DB_PORT", "DB_USER",
		"DB_PASSWORD", "DB_NAME", "DB_MIGRATE", "BROWSER_HEADLESS", "BROWSER_WINDOW_SIZE",
		"BROWSER_IMPLICIT_WAIT", "BROWSER_SOFT_WAIT", "HASHER", "PHP_BIN", "HASHER_TIMEOUT",
		"TEST_CATEGORIES", "TEST_SKIP_CATEGORIES", "SCREENSHOT_DIR", "ARTIFACT_BUCKET",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with empty env: %v", err)
	}
	if cfg.E2E {
		t.Error("QUIZ_E2E should default to false")
	}
	if cfg.BaseURL != "http://localhost/quiz" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DB.Driver != DriverMySQL || cfg.DB.Port != 3306 || cfg.DB.Name != "quiz_pengupil" || cfg.DB.User != "root" {
		t.Errorf("unexpected DB defaults: %+v", cfg.DB)
	}
	if !cfg.Browser.Headless || cfg.Browser.Width != 1920 || cfg.Browser.Height != 1080 {
		t.Errorf("unexpected browser defaults: %+v", cfg.Browser)
	}
	if cfg.Browser.ImplicitWait != 10*time.Second || cfg.Browser.SoftWait != 5*time.Second {
		t.Errorf("unexpected wait defaults: %+v", cfg.Browser)
	}
	if cfg.Hasher.Backend != HasherPHP || cfg.Hasher.Timeout != 5*time.Second {
		t.Errorf("unexpected hasher defaults: %+v", cfg.Hasher)
	}
	if cfg.LoginURL() != "http://localhost/quiz/login.php" || cfg.RegisterURL() != "http://localhost/quiz/register.php" {
		t.Errorf("unexpected page URLs: %s %s", cfg.LoginURL(), cfg.RegisterURL())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("QUIZ_E2E", "1")
	t.Setenv("QUIZ_BASE_URL", "http://app:8080/quiz/")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("DB_PORT", "")
	t.Setenv("BROWSER_WINDOW_SIZE", "1280x720")
	t.Setenv("TEST_CATEGORIES", "Smoke, negative ,")
	t.Setenv("TEST_SKIP_CATEGORIES", "stub")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.E2E {
		t.Error("QUIZ_E2E=1 should enable the suite")
	}
	if cfg.BaseURL != "http://app:8080/quiz" {
		t.Errorf("trailing slash not trimmed: %q", cfg.BaseURL)
	}
	if cfg.DB.Port != 5432 {
		t.Errorf("pgx default port = %d, want 5432", cfg.DB.Port)
	}
	if cfg.Browser.Width != 1280 || cfg.Browser.Height != 720 {
		t.Errorf("window size = %dx%d", cfg.Browser.Width, cfg.Browser.Height)
	}
	if strings.Join(cfg.Categories, ",") != "smoke,negative" {
		t.Errorf("categories = %v", cfg.Categories)
	}
	if strings.Join(cfg.SkipCategories, ",") != "stub" {
		t.Errorf("skip categories = %v", cfg.SkipCategories)
	}
}

func TestLoad_BadWindowSize(t *testing.T) {
	t.Setenv("BROWSER_WINDOW_SIZE", "wide")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "BROWSER_WINDOW_SIZE") {
		t.Fatalf("expected window size error, got %v", err)
	}
}

func TestPrintSummary_OmitsPassword(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.DB.Password = "s3cret-pw"
	var buf bytes.Buffer
	cfg.PrintSummary(&buf)
	if strings.Contains(buf.String(), "s3cret-pw") {
		t.Fatalf("summary leaked DB password: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "quiz_pengupil") {
		t.Fatalf("summary missing DB name: %s", buf.String())
	}
}

func TestPageURLs_JoinOnBase(t *testing.T) {
	t.Parallel()
	cfg := validTestConfig()
	cfg.BaseURL = "http://app:8080/quiz"
	if got := cfg.IndexURL(); got != "http://app:8080/quiz/index.php" {
		t.Fatalf("IndexURL = %q", got)
	}
	if got := cfg.LoginURL(); got != "http://app:8080/quiz/login.php" {
		t.Fatalf("LoginURL = %q", got)
	}
}
