package table

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.jacobcolvin.com/onnxprof/fwf"
)

// FormatVersion names the profiler output layout described by
// [DefaultLayout]. Bump it whenever the layout fields change.
const FormatVersion = "onnx_tool/model_profile/v1"

var (
	// ErrHeaderNotFound indicates the header marker does not occur in the
	// captured text.
	ErrHeaderNotFound = errors.New("no table header found")
	// ErrMalformedTable indicates the located text is not a fixed-width table.
	ErrMalformedTable = errors.New("malformed table")
	// ErrFormatDrift indicates a table was parsed but does not look like the
	// profiler's per-node table, usually because the profiler's output
	// format changed.
	ErrFormatDrift = errors.New("unexpected table format")
)

// Layout describes where the per-node table sits in the profiler's console
// output and which of its columns hold metrics.
type Layout struct {
	// Version identifies the layout, see [FormatVersion].
	Version string
	// Marker is the first text of the header line.
	Marker string
	// Terminator ends the table. Without it the table runs to the end of the
	// text.
	Terminator string
	// MetricColumns are coerced with [Coerce].
	MetricColumns []string
	// NullTokens coerce to null, in addition to the empty string.
	NullTokens []string
	// Parse tunes the fixed-width reader.
	Parse fwf.Options
}

// DefaultLayout is the layout printed by onnx_tool's model_profile.
var DefaultLayout = Layout{
	Version:    FormatVersion,
	Marker:     "Name",
	Terminator: "\n\n\n",
	MetricColumns: []string{
		"Forward_MACs", "FPercent",
		"Memory", "MPercent",
		"Params", "PPercent",
	},
	NullTokens: []string{"_", "None"},
}

// Table is a parsed profiler table. Rows hold one [Value] per column.
type Table struct {
	Columns []string
	Rows    [][]Value
}

// Extract locates the profiler table in text using [DefaultLayout]. It
// returns the table and the character offset of the header marker.
func Extract(text string) (*Table, int, error) {
	return DefaultLayout.Extract(text)
}

// Extract locates the first occurrence of l.Marker, cuts the text at
// l.Terminator, parses the remainder as a fixed-width table and coerces the
// metric columns. It returns the table and the offset of the marker in
// characters (runes, not bytes), or -1 with an error.
func (l Layout) Extract(text string) (*Table, int, error) {
	start := strings.Index(text, l.Marker)
	if start < 0 {
		return nil, -1, fmt.Errorf("%w: %q does not occur in the output", ErrHeaderNotFound, l.Marker)
	}

	body := text[start:]
	if l.Terminator != "" {
		body, _, _ = strings.Cut(body, l.Terminator)
	}

	f, err := fwf.Parse(body, l.Parse)
	if err != nil {
		return nil, -1, fmt.Errorf("%w: %w", ErrMalformedTable, err)
	}

	t := &Table{
		Columns: f.Header,
		Rows:    make([][]Value, len(f.Rows)),
	}

	metric := make([]bool, len(f.Header))
	for i, name := range f.Header {
		metric[i] = slices.Contains(l.MetricColumns, name)
	}

	for r, cells := range f.Rows {
		row := make([]Value, len(cells))

		for c, cell := range cells {
			switch {
			case metric[c]:
				row[c] = l.Coerce(cell)
			case cell == "":
				row[c] = Null()
			default:
				row[c] = Text(cell)
			}
		}

		t.Rows[r] = row
	}

	return t, utf8.RuneCountInString(text[:start]), nil
}

// Coerce converts a metric cell using [DefaultLayout].
func Coerce(s string) Value {
	return DefaultLayout.Coerce(s)
}

// Coerce strips thousands separators, percent signs and surrounding
// whitespace from s. Empty strings and l.NullTokens become null, decimal
// numbers become [Number], anything else is kept as the stripped [Text].
// Hexadecimal forms stay text and out-of-range values become infinities.
func (l Layout) Coerce(s string) Value {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	if s == "" || slices.Contains(l.NullTokens, s) {
		return Null()
	}

	if isHex(s) {
		return Text(s)
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Text(s)
	}

	return Number(f)
}

func isHex(s string) bool {
	s = strings.TrimLeft(s, "+-")

	return len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// Check reports [ErrFormatDrift] when t does not start with the marker
// column or carries none of the metric columns.
func (l Layout) Check(t *Table) error {
	if len(t.Columns) == 0 || t.Columns[0] != l.Marker {
		return fmt.Errorf("%w (%s): first column is not %q", ErrFormatDrift, l.Version, l.Marker)
	}

	for _, c := range l.MetricColumns {
		if slices.Contains(t.Columns, c) {
			return nil
		}
	}

	return fmt.Errorf("%w (%s): none of the metric columns %v are present",
		ErrFormatDrift, l.Version, l.MetricColumns)
}

// CheckFormat checks t against [DefaultLayout].
func CheckFormat(t *Table) error {
	return DefaultLayout.Check(t)
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, bool) {
	i := slices.Index(t.Columns, name)

	return i, i >= 0
}

// Strings returns the rows rendered with [Value.String].
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))

	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = v.String()
		}

		out[i] = cells
	}

	return out
}
