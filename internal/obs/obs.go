// Package obs configures the process-wide structured logger and carries
// per-run and per-test correlation fields through context.
package obs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type correlationContextKey struct{}

// Correlation carries run and test identifiers.
type Correlation struct {
	RunID string
	Test  string
	Page  string
}

var (
	loggerMu sync.RWMutex
	logger   *slog.Logger

	runIDOnce sync.Once
	runID     string
)

// Init configures the global structured logger.
func Init() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger != nil {
		return
	}
	logger = newLogger(os.Stderr, levelFromEnv())
	slog.SetDefault(logger)
}

// SetOutputForTests overrides the global logger output for tests.
func SetOutputForTests(w io.Writer) func() {
	loggerMu.Lock()
	prev := logger
	logger = newLogger(w, slog.LevelDebug)
	slog.SetDefault(logger)
	loggerMu.Unlock()

	return func() {
		loggerMu.Lock()
		defer loggerMu.Unlock()
		if prev != nil {
			logger = prev
		} else {
			logger = newLogger(os.Stderr, levelFromEnv())
		}
		slog.SetDefault(logger)
	}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				t, ok := attr.Value.Any().(time.Time)
				if ok {
					return slog.String(slog.TimeKey, t.UTC().Format(time.RFC3339Nano))
				}
			}
			return attr
		},
	})
	return slog.New(handler).With("run_id", RunID())
}

func globalLogger() *slog.Logger {
	loggerMu.RLock()
	l := logger
	loggerMu.RUnlock()
	if l != nil {
		return l
	}
	Init()
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// RunID identifies this test process in logs and artifact keys.
func RunID() string {
	runIDOnce.Do(func() {
		runID = uuid.NewString()
	})
	return runID
}

// Pkg returns a logger tagged with package name.
func Pkg(pkg string) *slog.Logger {
	return globalLogger().With("pkg", pkg)
}

// From returns a logger with correlation fields from context.
func From(ctx context.Context) *slog.Logger {
	l := globalLogger()
	attrs := correlationAttrs(CorrelationFromContext(ctx))
	if len(attrs) == 0 {
		return l
	}
	return l.With(attrs...)
}

// WithTest stores the running test name in context.
func WithTest(ctx context.Context, name string) context.Context {
	corr := CorrelationFromContext(ctx)
	corr.Test = strings.TrimSpace(name)
	return context.WithValue(ctx, correlationContextKey{}, corr)
}

// WithPage stores the page object name in context.
func WithPage(ctx context.Context, page string) context.Context {
	corr := CorrelationFromContext(ctx)
	corr.Page = strings.TrimSpace(page)
	return context.WithValue(ctx, correlationContextKey{}, corr)
}

// CorrelationFromContext returns correlation fields from context.
func CorrelationFromContext(ctx context.Context) Correlation {
	if ctx == nil {
		return Correlation{}
	}
	corr, ok := ctx.Value(correlationContextKey{}).(Correlation)
	if !ok {
		return Correlation{}
	}
	return corr
}

func correlationAttrs(corr Correlation) []any {
	attrs := make([]any, 0, 4)
	if corr.Test != "" {
		attrs = append(attrs, "test", corr.Test)
	}
	if corr.Page != "" {
		attrs = append(attrs, "page", corr.Page)
	}
	return attrs
}
