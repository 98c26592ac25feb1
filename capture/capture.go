package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrMissingDependency indicates the interpreter or the profiler module is
	// not available.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrProfileFailed indicates the profiler did not complete successfully.
	ErrProfileFailed = errors.New("profiling failed")
)

// bootstrap imports the profiler module and calls its entry function with
// the model path. Arguments are passed positionally to avoid quoting.
const bootstrap = `import importlib, sys
getattr(importlib.import_module(sys.argv[1]), sys.argv[2])(sys.argv[3])
`

// waitDelay bounds how long output is drained after the child is killed, in
// case a grandchild still holds the pipes open.
const waitDelay = time.Second

// importCheck only imports the profiler module.
const importCheck = `import importlib, sys
importlib.import_module(sys.argv[1])
`

// Request identifies one profiling run.
type Request struct {
	// Path is the model file handed to the profiler.
	Path string
	// Seq numbers runs so results can be matched to requests.
	Seq uint64
}

// Result is the outcome of one profiling run. On failure Text is empty even
// if the profiler printed something before failing.
type Result struct {
	Err      error
	Text     string
	Request  Request
	Duration time.Duration
}

// Runner invokes the external profiler and captures its standard output.
//
// Create instances with [Config.NewRunner].
type Runner struct {
	logger *slog.Logger
	Config
}

// CheckDependencies verifies that the interpreter can be found and that the
// profiler module imports cleanly. Failures wrap [ErrMissingDependency] and
// name the package to install.
func (r *Runner) CheckDependencies(ctx context.Context) error {
	python, err := exec.LookPath(r.Python)
	if err != nil {
		return fmt.Errorf("%w: python interpreter %q not found: %w", ErrMissingDependency, r.Python, err)
	}

	var stderr bytes.Buffer

	//nolint:gosec // The interpreter and module come from configuration.
	cmd := exec.CommandContext(ctx, python, "-c", importCheck, r.Module)
	cmd.Env = r.environ()
	cmd.Stderr = &stderr

	cmd.WaitDelay = waitDelay

	err = cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		return fmt.Errorf("%w: %s is not importable (pip install %s): %w",
			ErrMissingDependency, r.Module, r.Package, withStderr(err, stderr.String()))
	}

	r.logger.DebugContext(ctx, "profiler available",
		slog.String("python", python),
		slog.String("module", r.Module),
	)

	return nil
}

// Capture runs the profiler for req.Path and returns everything it wrote to
// standard output. The output buffer belongs to this call only. Any failure,
// including a non-zero exit, the context ending or the configured timeout
// passing, wraps [ErrProfileFailed] and discards the partial output.
func (r *Runner) Capture(ctx context.Context, req Request) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.capture(ctx, req)
}

func (r *Runner) capture(ctx context.Context, req Request) (string, error) {
	var stdout, stderr bytes.Buffer

	//nolint:gosec // The interpreter, module and model path are user-provided.
	cmd := exec.CommandContext(ctx, r.Python, "-c", bootstrap, r.Module, r.Entry, req.Path)
	cmd.Env = r.environ()
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	r.logger.DebugContext(ctx, "starting profiler",
		slog.String("path", req.Path),
		slog.Uint64("seq", req.Seq),
		slog.String("python", r.Python),
	)

	err := cmd.Run()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		return "", fmt.Errorf("%w: %w", ErrProfileFailed, withStderr(err, stderr.String()))
	}

	return stdout.String(), nil
}

// Run checks dependencies and then captures one run, timing both. The
// configured timeout bounds the two steps together.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	start := time.Now()

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res := Result{Request: req}

	res.Err = r.CheckDependencies(ctx)
	if res.Err == nil {
		res.Text, res.Err = r.capture(ctx, req)
	}

	res.Duration = time.Since(start)

	if res.Err != nil {
		r.logger.ErrorContext(ctx, "profiling run failed",
			slog.String("path", req.Path),
			slog.Uint64("seq", req.Seq),
			slog.Any("err", res.Err),
		)
	} else {
		r.logger.InfoContext(ctx, "profiling run finished",
			slog.String("path", req.Path),
			slog.Uint64("seq", req.Seq),
			slog.Int("bytes", len(res.Text)),
			slog.Duration("duration", res.Duration),
		)
	}

	return res
}

// Start performs [Runner.Run] on a new goroutine and delivers its single
// [Result] on the returned channel, which is then closed.
func (r *Runner) Start(ctx context.Context, req Request) <-chan Result {
	ch := make(chan Result, 1)

	go func() {
		defer close(ch)

		ch <- r.Run(ctx, req)
	}()

	return ch
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, r.Timeout)
}

func (r *Runner) environ() []string {
	env := append(os.Environ(), "PYTHONIOENCODING=utf-8", "PYTHONUNBUFFERED=1")

	return append(env, r.Env...)
}

// withStderr prefixes err with the last non-blank line of stderr, which for
// a Python traceback is the exception message.
func withStderr(err error, stderr string) error {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")

	last := strings.TrimSpace(lines[len(lines)-1])
	if last == "" {
		return err
	}

	return fmt.Errorf("%s: %w", last, err)
}
