package shell

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.jacobcolvin.com/onnxprof/capture"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/table"
)

// Status line texts.
const (
	StatusReady     = "Ready"
	StatusProfiling = "Profiling… (please wait)"
	StatusComplete  = "Profiling complete"
	StatusUnparsed  = "Profiling complete (table could not be parsed)"
	StatusCopied    = "Raw text copied to clipboard"
	StatusCleared   = "Cleared"
	StatusError     = "Error"
	statusSaved     = "Saved: "
)

var (
	// ErrInvalidPath indicates the model path is empty or not a regular file.
	ErrInvalidPath = errors.New("invalid model path")
	// ErrRunInProgress indicates a profiling run is already outstanding.
	ErrRunInProgress = errors.New("profiling already in progress")
	// ErrNothingToSave indicates there is no parsed table to export.
	ErrNothingToSave = errors.New("no table to save, profile a model first")
	// ErrNothingToCopy indicates there is no captured text to copy.
	ErrNothingToCopy = errors.New("no text to copy, profile a model first")
)

// State is everything the presentation layer renders.
type State struct {
	// Err is the most recent failure, set together with [StatusError].
	Err error
	// Warning is a non-fatal problem with the last run, such as a table that
	// could not be parsed or a layout that no longer matches.
	Warning error
	// Table is the parsed table, nil when none is available.
	Table *table.Table
	// Path is the model path as entered.
	Path string
	// Status is the one-line status text.
	Status string
	// Raw is the captured profiler output of the last successful run.
	Raw string
	// Running is true while a run is outstanding.
	Running bool
}

// Outcome describes what [App.Complete] did with a [capture.Result].
type Outcome struct {
	// Err is the run failure, if any. State was left untouched apart from the
	// status.
	Err error
	// Warning is an extraction failure or format drift.
	Warning error
	// Offset is the byte offset of the table header in the raw text, or -1.
	Offset int
	// Stale is true when the result did not belong to the outstanding run and
	// was ignored.
	Stale bool
}

// Option configures an [App].
type Option func(*App)

// WithLayout sets the profiler output layout used for extraction.
func WithLayout(l table.Layout) Option {
	return func(a *App) {
		a.layout = l
	}
}

// WithFileName sets the file name suggested by [App.DefaultExportPath].
func WithFileName(name string) Option {
	return func(a *App) {
		if name != "" {
			a.fileName = name
		}
	}
}

// App holds the state of one interactive session. It is not safe for
// concurrent use; a single event loop owns it and feeds it run results.
type App struct {
	logger   *slog.Logger
	layout   table.Layout
	fileName string
	state    State
	seq      uint64
}

// New creates an [App] in the ready state. A nil logger discards log output.
func New(logger *slog.Logger, opts ...Option) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	a := &App{
		logger:   logger,
		layout:   table.DefaultLayout,
		fileName: export.DefaultFileName,
		state:    State{Status: StatusReady},
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// State returns a snapshot of the current state.
func (a *App) State() State {
	return a.state
}

// SetPath replaces the model path.
func (a *App) SetPath(path string) {
	a.state.Path = path
}

// ValidatePath returns the trimmed model path when it names a regular file.
func (a *App) ValidatePath() (string, error) {
	path := strings.TrimSpace(a.state.Path)
	if path == "" {
		return "", fmt.Errorf("%w: select a .onnx file first", ErrInvalidPath)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}

	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrInvalidPath, path)
	}

	return path, nil
}

// BeginProfile validates the path and marks a new run as outstanding. The
// returned request must be run and its result passed to [App.Complete].
// While a run is outstanding further calls fail with [ErrRunInProgress] and
// leave the state alone.
func (a *App) BeginProfile() (capture.Request, error) {
	if a.state.Running {
		return capture.Request{}, ErrRunInProgress
	}

	path, err := a.ValidatePath()
	if err != nil {
		return capture.Request{}, a.fail(err)
	}

	a.seq++
	a.state.Running = true
	a.state.Status = StatusProfiling
	a.state.Err = nil
	a.state.Warning = nil

	a.logger.Info("profiling started", slog.String("path", path), slog.Uint64("seq", a.seq))

	return capture.Request{Path: path, Seq: a.seq}, nil
}

// Complete applies the result of the outstanding run.
//
// On failure the previous raw text and table are kept and the status becomes
// [StatusError]. On success the raw text is replaced and a table extracted
// from it; if extraction fails the table is cleared and the failure reported
// as a warning.
func (a *App) Complete(res capture.Result) Outcome {
	if !a.state.Running || res.Request.Seq != a.seq {
		a.logger.Debug("ignoring stale result", slog.Uint64("seq", res.Request.Seq))

		return Outcome{Offset: -1, Stale: true}
	}

	a.state.Running = false

	if res.Err != nil {
		return Outcome{Err: a.fail(res.Err), Offset: -1}
	}

	a.state.Raw = res.Text

	t, offset, err := a.layout.Extract(res.Text)
	if err != nil {
		a.state.Table = nil
		a.state.Status = StatusUnparsed
		a.state.Warning = err

		a.logger.Warn("table could not be parsed", slog.Any("err", err))

		return Outcome{Warning: err, Offset: -1}
	}

	a.state.Table = t
	a.state.Status = StatusComplete

	err = a.layout.Check(t)
	if err != nil {
		a.state.Warning = err

		a.logger.Warn("unexpected profiler layout", slog.Any("err", err))
	}

	a.logger.Info("profiling complete",
		slog.Int("rows", len(t.Rows)),
		slog.Int("columns", len(t.Columns)),
	)

	return Outcome{Warning: err, Offset: offset}
}

// DefaultExportPath is the suggested export path: the configured file name
// in the model's directory, or in the working directory when no path is set.
func (a *App) DefaultExportPath() string {
	return filepath.Join(filepath.Dir(strings.TrimSpace(a.state.Path)), a.fileName)
}

// PrepareSave returns the path to suggest for an export, or records
// [ErrNothingToSave] when there is no table.
func (a *App) PrepareSave() (string, error) {
	if a.state.Table == nil {
		return "", a.fail(ErrNothingToSave)
	}

	return a.DefaultExportPath(), nil
}

// Save exports the table to path. An empty format is inferred from the path
// extension.
func (a *App) Save(path string, format export.Format) error {
	if a.state.Table == nil {
		return a.fail(ErrNothingToSave)
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return a.fail(fmt.Errorf("%w: empty export path", ErrInvalidPath))
	}

	if format == "" {
		format = export.FormatFromPath(path)
	}

	err := export.WriteFile(path, a.state.Table, format)
	if err != nil {
		return a.fail(err)
	}

	a.state.Status = statusSaved + path
	a.state.Err = nil

	a.logger.Info("table saved", slog.String("path", path), slog.String("format", string(format)))

	return nil
}

// CopyText returns the raw text for the clipboard.
func (a *App) CopyText() (string, error) {
	if a.state.Raw == "" {
		return "", a.fail(ErrNothingToCopy)
	}

	a.state.Status = StatusCopied
	a.state.Err = nil

	return a.state.Raw, nil
}

// Clear drops the raw text and table. The path and any outstanding run are
// kept.
func (a *App) Clear() {
	a.state.Raw = ""
	a.state.Table = nil
	a.state.Err = nil
	a.state.Warning = nil
	a.state.Status = StatusCleared
}

// ReportDependencies records the outcome of the startup dependency check.
func (a *App) ReportDependencies(err error) {
	if err != nil {
		_ = a.fail(err)
	}
}

func (a *App) fail(err error) error {
	a.state.Status = StatusError
	a.state.Err = err

	a.logger.Error("operation failed", slog.Any("err", err))

	return err
}
