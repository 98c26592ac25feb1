package tui

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	ltable "charm.land/lipgloss/v2/table"
	"github.com/charmbracelet/x/ansi"

	"go.jacobcolvin.com/onnxprof/table"
)

// chromeLines is the header, status and help lines around the body.
const chromeLines = 3

const (
	helpNormal = "o open · e edit path · enter profile · s save · c copy · x clear · tab focus · ↑↓←→ scroll · q quit"
	helpPicker = "↑↓ move · enter open · backspace parent · a toggle all files · esc cancel"
	helpInput  = "enter confirm · esc cancel · ctrl+u clear"
)

// View renders the whole screen.
func (m *Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true

	return v
}

func (m *Model) render() string {
	var body string

	if m.mode == modePicker {
		body = m.renderPicker(m.bodyHeight())
	} else {
		body = m.renderPanes()
	}

	return strings.Join([]string{
		m.renderHeader(),
		body,
		m.renderStatus(),
		m.renderHelp(),
	}, "\n")
}

func (m *Model) bodyHeight() int {
	return max(1, m.height-chromeLines)
}

// paneHeights splits the body between the raw text, table and log panes,
// each including its title line.
func (m *Model) paneHeights() (raw, grid, logs int) {
	body := m.bodyHeight()

	if m.logs != nil && body >= 18 {
		logs = 6
	}

	rest := body - logs
	raw = rest * 2 / 5
	grid = rest - raw

	return raw, grid, logs
}

func (m *Model) renderHeader() string {
	s := m.styles

	path := m.app.State().Path
	if m.mode == modeEditPath {
		path = m.path.View()
	} else if strings.TrimSpace(path) == "" {
		path = s.dim.Render("(no model selected, press o to browse or e to type a path)")
	}

	return ansi.Truncate(s.title.Render("onnxprof")+"  model: "+path, m.width, "…")
}

func (m *Model) renderPanes() string {
	s := m.styles
	st := m.app.State()
	rawH, gridH, logH := m.paneHeights()

	parts := make([]string, 0, 3)

	rawLines := []string{s.dim.Render("(no output yet)")}
	if st.Raw != "" {
		rawLines = strings.Split(m.raw.View(), "\n")
	}

	parts = append(parts, m.renderPane("Raw output", m.focus == paneRaw, rawLines, rawH))

	var gridLines []string

	title := "Table"

	if st.Table != nil {
		title = fmt.Sprintf("Table (%d rows × %d columns)", len(st.Table.Rows), len(st.Table.Columns))
		grid := renderGrid(st.Table, m.rowTop, m.colLeft, max(0, gridH-3), false, s)
		gridLines = strings.Split(grid, "\n")
	} else {
		gridLines = []string{s.dim.Render("(no table)")}
	}

	parts = append(parts, m.renderPane(title, m.focus == paneTable, gridLines, gridH))

	if logH > 0 {
		var logLines []string
		for _, l := range m.logBuf {
			logLines = append(logLines, strings.Split(l, "\n")...)
		}

		if len(logLines) > logH-1 {
			logLines = logLines[len(logLines)-(logH-1):]
		}

		parts = append(parts, m.renderPane("Log", false, logLines, logH))
	}

	return strings.Join(parts, "\n")
}

func (m *Model) renderPane(title string, focused bool, lines []string, h int) string {
	if h <= 0 {
		return ""
	}

	st := m.styles.pane
	if focused {
		st = m.styles.focused
	}

	return ansi.Truncate(st.Render("── "+title+" "), m.width, "") + "\n" + fit(lines, h-1, m.width)
}

func (m *Model) renderPicker(h int) string {
	s := m.styles

	filter := "*.onnx"
	if m.showAll {
		filter = "all files"
	}

	title := s.focused.Render(fmt.Sprintf("Open model: %s [%s]", m.picker.CurrentDirectory, filter))
	lines := append([]string{title}, strings.Split(m.picker.View(), "\n")...)

	return fit(lines, h, m.width)
}

func (m *Model) renderStatus() string {
	s := m.styles
	st := m.app.State()

	if m.mode == modeSave {
		return ansi.Truncate(s.status.Render("Save as: ")+m.save.View(), m.width, "…")
	}

	line := s.status.Render(st.Status)

	switch {
	case st.Err != nil:
		line += "  " + s.errText.Render(oneLine(st.Err.Error()))
	case st.Warning != nil:
		line += "  " + s.warnText.Render(oneLine(st.Warning.Error()))
	}

	if m.notice != "" {
		line += "  " + s.warnText.Render(m.notice)
	}

	return ansi.Truncate(line, m.width, "…")
}

func (m *Model) renderHelp() string {
	help := helpNormal

	switch m.mode {
	case modePicker:
		help = helpPicker
	case modeEditPath, modeSave:
		help = helpInput
	case modeNormal:
	}

	return ansi.Truncate(m.styles.help.Render(help), m.width, "…")
}

// RenderTable renders every row of t with borders, truncating lines to width
// when width is positive.
func RenderTable(t *table.Table, width int) string {
	out := renderGrid(t, 0, 0, len(t.Rows), true, defaultStyles())
	if width <= 0 {
		return out
	}

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, width, "…")
	}

	return strings.Join(lines, "\n")
}

// renderGrid renders up to n rows starting at row top, and the columns from
// left onward.
func renderGrid(t *table.Table, top, left, n int, bordered bool, s styles) string {
	left = clamp(left, 0, len(t.Columns)-1)
	cols := t.Columns[left:]

	numeric := make([]bool, len(cols))

	for _, row := range t.Rows {
		for i, v := range cells(row, left) {
			if v.Kind() == table.KindNumber {
				numeric[i] = true
			}
		}
	}

	lt := ltable.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(bordered).
		BorderBottom(bordered).
		BorderLeft(bordered).
		BorderRight(bordered).
		Headers(cols...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == ltable.HeaderRow:
				return s.header
			case col < len(numeric) && numeric[col]:
				return s.cell.Align(lipgloss.Right)
			default:
				return s.cell
			}
		})

	top = clamp(top, 0, len(t.Rows))
	end := min(len(t.Rows), top+n)

	for _, row := range t.Rows[top:end] {
		vals := cells(row, left)

		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = v.String()
		}

		lt.Row(strs...)
	}

	return lt.Render()
}

func cells(row []table.Value, left int) []table.Value {
	if left >= len(row) {
		return nil
	}

	return row[left:]
}

// fit returns exactly h lines, each truncated to w cells.
func fit(lines []string, h, w int) string {
	out := make([]string, h)
	for i := 0; i < h && i < len(lines); i++ {
		out[i] = ansi.Truncate(lines[i], w, "…")
	}

	return strings.Join(out, "\n")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
