package hasher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"

	"github.com/kuitang/quiz-uitest/internal/errs"
	"github.com/kuitang/quiz-uitest/internal/logutil"
	"github.com/kuitang/quiz-uitest/internal/obs"
)

// DefaultTimeout bounds a single interpreter invocation.
const DefaultTimeout = 5 * time.Second

// Passwords are passed on stdin, never in argv or PHP source.
const (
	phpHashScript   = `echo password_hash(stream_get_contents(STDIN), PASSWORD_DEFAULT);`
	phpVerifyScript = `$in = json_decode(stream_get_contents(STDIN), true); echo password_verify($in['password'], $in['hash']) ? 'true' : 'false';`
)

// PHP hashes through the PHP interpreter.
type PHP struct {
	Bin     string
	Timeout time.Duration
}

// NewPHP returns a PHP hasher using bin (default "php").
func NewPHP(bin string, timeout time.Duration) *PHP {
	if bin == "" {
		bin = "php"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PHP{Bin: bin, Timeout: timeout}
}

// Hash returns password_hash(password, PASSWORD_DEFAULT).
func (p *PHP) Hash(ctx context.Context, password string) (string, error) {
	out, err := p.run(ctx, phpHashScript, []byte(password))
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(out, "$") {
		return "", unavailable("php returned something that is not a hash", errors.New(logutil.TruncateForLog(out, 120)))
	}
	return out, nil
}

// Verify returns password_verify(password, hash).
func (p *PHP) Verify(ctx context.Context, password, hash string) (bool, error) {
	payload, err := json.Marshal(map[string]string{"password": password, "hash": hash})
	if err != nil {
		return false, fmt.Errorf("hasher: encode verify input: %w", err)
	}
	out, err := p.run(ctx, phpVerifyScript, payload)
	if err != nil {
		return false, err
	}
	switch out {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, unavailable("php returned an unexpected verify result", errors.New(logutil.TruncateForLog(out, 120)))
	}
}

func (p *PHP) run(ctx context.Context, script string, stdin []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.Bin, "-r", script)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log := obs.From(ctx).With("pkg", "hasher")
	log.Debug("running php", "cmd", commandLine(p.Bin, "-r", script))

	start := time.Now()
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		log.Error("php hasher timed out", "timeout", p.Timeout)
		return "", errs.Wrap(errs.DeadlineExceeded, fmt.Sprintf("php hasher exceeded %s", p.Timeout), ctx.Err())
	}
	if err != nil {
		detail := logutil.TruncateForLog(stderr.String(), 200)
		log.Error("php hasher failed", "error", err, "stderr", detail)
		if detail != "" {
			err = fmt.Errorf("%w (stderr: %s)", err, detail)
		}
		return "", unavailable("php hasher failed", err)
	}
	log.Debug("php finished", "took", time.Since(start))

	out := strings.TrimSpace(stdout.String())
	if out == "" {
		return "", unavailable("php produced no output", nil)
	}
	return out, nil
}

func unavailable(message string, cause error) error {
	if cause == nil {
		return errs.Wrap(errs.Unavailable, message, ErrBackendUnavailable)
	}
	return errs.Wrap(errs.Unavailable, message, fmt.Errorf("%w: %w", ErrBackendUnavailable, cause))
}

func commandLine(args ...string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellescape.Quote(a)
	}
	return strings.Join(quoted, " ")
}
