package fwf

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultInferRows is the number of lines, header included, inspected when
// inferring column boundaries.
const DefaultInferRows = 100

// DefaultDelimiters are the characters treated as column filler.
const DefaultDelimiters = " \t"

var (
	// ErrNoColumns indicates the input held no non-blank lines.
	ErrNoColumns = errors.New("no columns to parse")
	// ErrMalformed indicates a row carries text outside every inferred column.
	ErrMalformed = errors.New("malformed fixed-width row")
)

// Colspec is a half-open [Start, End) range of character positions that
// holds one column.
type Colspec struct {
	Start int
	End   int
}

// Options tunes [Parse]. The zero value uses [DefaultInferRows] and
// [DefaultDelimiters].
type Options struct {
	// Delimiters lists the filler characters between columns.
	Delimiters string
	// InferRows limits how many lines drive column inference. Negative
	// values use every line.
	InferRows int
}

// Mode records how a [Frame] was split into columns.
type Mode string

const (
	// ModePositional cuts every line at the inferred character ranges.
	ModePositional Mode = "positional"
	// ModeFields splits every line on runs of delimiters.
	ModeFields Mode = "fields"
)

// Frame is the result of [Parse]: a header and the data rows. Every row has
// len(Header) cells. Colspecs is set for [ModePositional] only.
type Frame struct {
	Mode     Mode
	Header   []string
	Rows     [][]string
	Colspecs []Colspec
}

// Parse reads text as a fixed-width table whose first non-blank line is the
// header. Blank lines are skipped and a trailing carriage return on each line
// is ignored. Positions are counted in characters, not bytes.
//
// Column boundaries are driven by the header. When the inferred ranges (a
// column is a maximal run of positions where at least one line has a
// non-delimiter character) line up one-to-one with the header's fields, lines are cut
// positionally, which keeps empty cells in place. Otherwise the header and
// rows are split on delimiter runs and every row must have exactly as many
// fields as the header.
func Parse(text string, opts Options) (*Frame, error) {
	delims := opts.Delimiters
	if delims == "" {
		delims = DefaultDelimiters
	}

	lines := splitLines(text, delims)
	if len(lines) == 0 {
		return nil, ErrNoColumns
	}

	infer := opts.InferRows
	if infer == 0 {
		infer = DefaultInferRows
	}

	if infer < 0 || infer > len(lines) {
		infer = len(lines)
	}

	names := fields(lines[0].text, delims)

	specs := detect(lines[:infer], delims)
	if len(specs) == len(names) {
		return positional(lines, infer, specs, delims)
	}

	f := &Frame{
		Mode:   ModeFields,
		Header: header(names),
		Rows:   make([][]string, 0, len(lines)-1),
	}

	for _, l := range lines[1:] {
		row := fields(l.text, delims)
		if len(row) != len(names) {
			return nil, fmt.Errorf("line %d: %w: expected %d fields, found %d",
				l.number, ErrMalformed, len(names), len(row))
		}

		f.Rows = append(f.Rows, row)
	}

	return f, nil
}

func positional(lines []line, infer int, specs []Colspec, delims string) (*Frame, error) {
	for i := infer; i < len(lines); i++ {
		err := checkCovered(lines[i].text, specs, delims)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lines[i].number, err)
		}
	}

	f := &Frame{
		Mode:     ModePositional,
		Header:   header(cut(lines[0].text, specs, delims)),
		Colspecs: specs,
		Rows:     make([][]string, 0, len(lines)-1),
	}

	for _, l := range lines[1:] {
		f.Rows = append(f.Rows, cut(l.text, specs, delims))
	}

	return f, nil
}

func detect(lines []line, delims string) []Colspec {
	width := 0
	for _, l := range lines {
		width = max(width, len(l.text))
	}

	mask := make([]bool, width)

	for _, l := range lines {
		for i, r := range l.text {
			if !strings.ContainsRune(delims, r) {
				mask[i] = true
			}
		}
	}

	var (
		specs []Colspec
		start = -1
	)

	for i, filled := range mask {
		switch {
		case filled && start < 0:
			start = i
		case !filled && start >= 0:
			specs = append(specs, Colspec{Start: start, End: i})
			start = -1
		}
	}

	if start >= 0 {
		specs = append(specs, Colspec{Start: start, End: width})
	}

	return specs
}

// line is one non-blank input line with its 1-based line number.
type line struct {
	text   []rune
	number int
}

func splitLines(text, delims string) []line {
	var out []line

	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSuffix(raw, "\r")
		if strings.Trim(raw, delims) == "" {
			continue
		}

		out = append(out, line{text: []rune(raw), number: i + 1})
	}

	return out
}

func checkCovered(text []rune, specs []Colspec, delims string) error {
	next := 0

	for i, r := range text {
		if strings.ContainsRune(delims, r) {
			continue
		}

		for next < len(specs) && specs[next].End <= i {
			next++
		}

		if next == len(specs) || i < specs[next].Start {
			return fmt.Errorf("%w: unexpected %q at column %d", ErrMalformed, r, i+1)
		}
	}

	return nil
}

func fields(text []rune, delims string) []string {
	return strings.FieldsFunc(string(text), func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
}

func cut(text []rune, specs []Colspec, delims string) []string {
	cells := make([]string, len(specs))

	for i, s := range specs {
		if s.Start >= len(text) {
			continue
		}

		end := min(s.End, len(text))
		cells[i] = strings.Trim(string(text[s.Start:end]), delims)
	}

	return cells
}

// header names blank header cells "Unnamed: N" and suffixes repeated names
// with ".1", ".2" and so on.
func header(cells []string) []string {
	seen := make(map[string]int, len(cells))
	out := make([]string, len(cells))

	for i, name := range cells {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		base := name
		for n := seen[base]; seen[name] > 0; n++ {
			name = base + "." + strconv.Itoa(n)
		}

		seen[base]++
		if name != base {
			seen[name]++
		}

		out[i] = name
	}

	return out
}
