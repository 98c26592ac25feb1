package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"charm.land/bubbles/v2/filepicker"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"

	"go.jacobcolvin.com/onnxprof/capture"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/log"
	"go.jacobcolvin.com/onnxprof/shell"
)

// maxLogLines bounds the lines kept for the log pane.
const maxLogLines = 200

// modelTypes are the file suffixes the picker lets the user choose.
var modelTypes = []string{".onnx", ".ONNX"}

// Runner executes profiling requests in the background. [*capture.Runner]
// implements it.
type Runner interface {
	CheckDependencies(ctx context.Context) error
	Start(ctx context.Context, req capture.Request) <-chan capture.Result
}

var _ Runner = (*capture.Runner)(nil)

type mode int

const (
	modeNormal mode = iota
	modeEditPath
	modePicker
	modeSave
)

type pane int

const (
	paneRaw pane = iota
	paneTable
)

type (
	depsMsg   struct{ err error }
	resultMsg struct{ res capture.Result }
	logMsg    struct{ line string }
)

// Option configures a [Model].
type Option func(*Model)

// WithLogs shows entries from sub in the log pane.
func WithLogs(sub *log.Subscription) Option {
	return func(m *Model) {
		m.logs = sub
	}
}

// WithExportFormat sets the format used when saving. Empty infers it from the
// file extension.
func WithExportFormat(f export.Format) Option {
	return func(m *Model) {
		m.format = f
	}
}

// Model is the Bubble Tea model of the interactive profiler. It owns the
// [shell.App]; profiling runs execute as commands and their results come back
// through Update.
type Model struct {
	ctx     context.Context //nolint:containedctx // Runs outlive a single Update call.
	app     *shell.App
	runner  Runner
	logs    *log.Subscription
	format  export.Format
	notice  string
	styles  styles
	logBuf  []string
	raw     viewport.Model
	picker  filepicker.Model
	path    textinput.Model
	save    textinput.Model
	mode    mode
	focus   pane
	rowTop  int
	colLeft int
	width   int
	height  int
	showAll bool
}

// New creates a [Model] driving app. Runs use runner and are cancelled when
// ctx ends.
func New(ctx context.Context, app *shell.App, runner Runner, opts ...Option) *Model {
	m := &Model{
		ctx:    ctx,
		app:    app,
		runner: runner,
		styles: defaultStyles(),
		raw:    viewport.New(),
		path:   newInput(""),
		save:   newInput(""),
		width:  100,
		height: 30,
	}

	m.path.SetValue(app.State().Path)

	for _, opt := range opts {
		opt(m)
	}

	m.resize()

	return m
}

func newInput(prompt string) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt

	return in
}

// Init starts the dependency check and the log pane feed.
func (m *Model) Init() tea.Cmd {
	ctx, runner := m.ctx, m.runner
	check := func() tea.Msg {
		return depsMsg{err: runner.CheckDependencies(ctx)}
	}

	if m.logs == nil {
		return check
	}

	return tea.Batch(check, m.waitLog())
}

// Update handles input, run results and log entries.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

		if m.mode == modePicker {
			return m, m.updatePicker(m.pickerSize())
		}

		return m, nil

	case depsMsg:
		m.app.ReportDependencies(msg.err)

		return m, nil

	case resultMsg:
		out := m.app.Complete(msg.res)
		if !out.Stale && out.Err == nil {
			m.syncRaw()
			m.rowTop, m.colLeft = 0, 0
		}

		return m, nil

	case logMsg:
		m.logBuf = append(m.logBuf, msg.line)
		if len(m.logBuf) > maxLogLines {
			m.logBuf = m.logBuf[len(m.logBuf)-maxLogLines:]
		}

		return m, m.waitLog()

	case tea.KeyPressMsg:
		m.notice = ""

		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.mode {
		case modeEditPath:
			return m, m.updateEditPath(msg)
		case modeSave:
			return m, m.updateSave(msg)
		case modePicker:
			return m, m.updatePicker(msg)
		case modeNormal:
			return m, m.updateNormal(msg)
		}
	}

	// Everything else (pastes, cursor blinks, directory listings) belongs to
	// the active widget.
	var cmd tea.Cmd

	switch m.mode {
	case modeEditPath:
		m.path, cmd = m.path.Update(msg)
	case modeSave:
		m.save, cmd = m.save.Update(msg)
	case modePicker:
		cmd = m.updatePicker(msg)
	case modeNormal:
	}

	return m, cmd
}

func (m *Model) updateNormal(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit

	case "o":
		return m.openPicker()

	case "e", "i":
		m.path.SetValue(m.app.State().Path)
		m.path.CursorEnd()
		m.mode = modeEditPath

		return m.path.Focus()

	case "enter", "p":
		return m.profile()

	case "s":
		path, err := m.app.PrepareSave()
		if err != nil {
			return nil
		}

		m.save.SetValue(path)
		m.save.CursorEnd()
		m.mode = modeSave

		return m.save.Focus()

	case "c":
		text, err := m.app.CopyText()
		if err == nil {
			return tea.SetClipboard(text)
		}

	case "x":
		m.app.Clear()
		m.syncRaw()
		m.rowTop, m.colLeft = 0, 0

	case "tab":
		if m.focus == paneRaw {
			m.focus = paneTable
		} else {
			m.focus = paneRaw
		}

	default:
		return m.scroll(msg)
	}

	return nil
}

func (m *Model) profile() tea.Cmd {
	req, err := m.app.BeginProfile()
	if errors.Is(err, shell.ErrRunInProgress) {
		m.notice = "a profiling run is already in progress"

		return nil
	}

	if err != nil {
		return nil
	}

	results := m.runner.Start(m.ctx, req)

	return func() tea.Msg {
		return resultMsg{res: <-results}
	}
}

func (m *Model) updateEditPath(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.app.SetPath(m.path.Value())
		m.path.Blur()
		m.mode = modeNormal

		return nil

	case "esc":
		m.path.SetValue(m.app.State().Path)
		m.path.Blur()
		m.mode = modeNormal

		return nil
	}

	var cmd tea.Cmd

	m.path, cmd = m.path.Update(msg)

	return cmd
}

func (m *Model) updateSave(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.save.Blur()
		m.mode = modeNormal
		_ = m.app.Save(m.save.Value(), m.format)

		return nil

	case "esc":
		m.save.Blur()
		m.mode = modeNormal

		return nil
	}

	var cmd tea.Cmd

	m.save, cmd = m.save.Update(msg)

	return cmd
}

func (m *Model) openPicker() tea.Cmd {
	dir := "."
	if p := strings.TrimSpace(m.app.State().Path); p != "" {
		dir = filepath.Dir(p)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		m.notice = err.Error()

		return nil
	}

	fp := filepicker.New()
	fp.CurrentDirectory = abs
	fp.AutoHeight = true
	fp.ShowHidden = m.showAll

	if !m.showAll {
		fp.AllowedTypes = modelTypes
	}

	m.picker = fp
	m.mode = modePicker
	m.picker, _ = m.picker.Update(m.pickerSize())

	return m.picker.Init()
}

// pickerSize sizes the file list to the body, below its title line.
func (m *Model) pickerSize() tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: m.width, Height: m.bodyHeight() - 1}
}

func (m *Model) updatePicker(msg tea.Msg) tea.Cmd {
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "esc", "q":
			m.mode = modeNormal

			return nil

		case "a":
			m.showAll = !m.showAll
			m.picker.ShowHidden = m.showAll

			m.picker.AllowedTypes = modelTypes
			if m.showAll {
				m.picker.AllowedTypes = nil
			}

			return m.picker.Init()
		}
	}

	var cmd tea.Cmd

	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok && path != "" {
		m.app.SetPath(path)
		m.path.SetValue(path)
		m.mode = modeNormal

		return nil
	}

	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = filepath.Base(path) + " is not an ONNX model, press a to list all files"
	}

	return cmd
}

func (m *Model) scroll(msg tea.KeyPressMsg) tea.Cmd {
	if m.focus == paneRaw {
		switch msg.String() {
		case "home", "g":
			m.raw.GotoTop()

			return nil
		case "end", "G":
			m.raw.GotoBottom()

			return nil
		}

		var cmd tea.Cmd

		m.raw, cmd = m.raw.Update(msg)

		return cmd
	}

	page := max(1, m.bodyHeight()/2)

	switch msg.String() {
	case "up", "k":
		m.rowTop--
	case "down", "j":
		m.rowTop++
	case "pgup":
		m.rowTop -= page
	case "pgdown":
		m.rowTop += page
	case "home", "g":
		m.rowTop = 0
	case "end", "G":
		m.rowTop = m.rowCount()
	case "left", "h":
		m.colLeft--
	case "right", "l":
		m.colLeft++
	}

	m.clampGrid()

	return nil
}

// clampGrid keeps the table window on existing rows and columns.
func (m *Model) clampGrid() {
	m.rowTop = clamp(m.rowTop, 0, m.rowCount()-1)

	cols := 0
	if t := m.app.State().Table; t != nil {
		cols = len(t.Columns)
	}

	m.colLeft = clamp(m.colLeft, 0, cols-1)
}

// resize fits the raw text viewport and the inputs to the window.
func (m *Model) resize() {
	rawH, _, _ := m.paneHeights()

	m.raw.SetWidth(m.width)
	m.raw.SetHeight(max(0, rawH-1))
	m.path.SetWidth(max(1, m.width-len("onnxprof  model: ")))
	m.save.SetWidth(max(1, m.width-len("Save as: ")))
}

// syncRaw shows the current raw output from its first line.
func (m *Model) syncRaw() {
	m.raw.SetContent(strings.TrimRight(m.app.State().Raw, "\n"))
	m.raw.GotoTop()
}

func (m *Model) rowCount() int {
	if t := m.app.State().Table; t != nil {
		return len(t.Rows)
	}

	return 0
}

func (m *Model) waitLog() tea.Cmd {
	if m.logs == nil {
		return nil
	}

	ch := m.logs.C()

	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}

		return logMsg{line: strings.TrimRight(string(entry), "\n")}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}

	return min(max(v, lo), hi)
}
