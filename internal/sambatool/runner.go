package sambatool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ErrOutputLimit is returned when a process writes more than the configured
// output cap. The process is killed when the cap is reached.
var ErrOutputLimit = errors.New("output limit exceeded")

// RunResult is the raw outcome of a process that ran to completion.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner spawns a program with an explicit argument vector. Implementations
// must never involve a shell.
type Runner interface {
	Run(ctx context.Context, path string, argv []string) (RunResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// MaxOutput caps stdout and stderr combined, in bytes.
	MaxOutput int64
}

// Run executes path with argv. A non-zero exit is reported through
// RunResult.ExitCode with a nil error; spawn failures, cancellation and
// output overflow are returned as errors alongside whatever was captured.
func (r ExecRunner) Run(ctx context.Context, path string, argv []string) (RunResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := &capture{limit: r.MaxOutput, onOverflow: cancel}
	cmd := exec.CommandContext(ctx, path, argv...)
	cmd.Env = sanitizedEnvironment()
	cmd.Stdin = nil
	cmd.Stdout = out.stream(&out.stdout)
	cmd.Stderr = out.stream(&out.stderr)
	cmd.WaitDelay = 2 * time.Second

	err := cmd.Run()
	res := RunResult{Stdout: out.stdout.String(), Stderr: out.stderr.String()}
	if out.overflowed() {
		return res, ErrOutputLimit
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && ctx.Err() == nil {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, fmt.Errorf("start %s: %w", path, err)
	}
	return res, nil
}

// sanitizedEnvironment returns a minimal set of safe environment variables
// so the service's own secrets never reach the child process.
func sanitizedEnvironment() []string {
	safeVars := []string{
		"PATH",
		"HOME",
		"USER",
		"LANG",
		"LC_ALL",
		"TZ",
		"TERM",
		"TMPDIR",
	}

	var env []string
	for _, name := range safeVars {
		if value := os.Getenv(name); value != "" {
			env = append(env, fmt.Sprintf("%s=%s", name, value))
		}
	}
	return env
}

// capture collects stdout and stderr under a shared byte budget.
type capture struct {
	mu         sync.Mutex
	limit      int64
	written    int64
	exceeded   bool
	onOverflow func()
	stdout     limitedBuffer
	stderr     limitedBuffer
}

type limitedBuffer struct {
	data []byte
}

func (b *limitedBuffer) String() string { return string(b.data) }

type captureWriter struct {
	c   *capture
	dst *limitedBuffer
}

func (c *capture) stream(dst *limitedBuffer) *captureWriter {
	return &captureWriter{c: c, dst: dst}
}

func (w *captureWriter) Write(p []byte) (int, error) {
	c := w.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exceeded {
		return 0, ErrOutputLimit
	}
	if c.limit > 0 && c.written+int64(len(p)) > c.limit {
		keep := c.limit - c.written
		w.dst.data = append(w.dst.data, p[:keep]...)
		c.written = c.limit
		c.exceeded = true
		if c.onOverflow != nil {
			c.onOverflow()
		}
		return int(keep), ErrOutputLimit
	}
	w.dst.data = append(w.dst.data, p...)
	c.written += int64(len(p))
	return len(p), nil
}

func (c *capture) overflowed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exceeded
}
