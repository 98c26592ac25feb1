package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/xuri/excelize/v2"

	"go.jacobcolvin.com/onnxprof/table"
)

// Format is an export file format.
type Format string

const (
	// FormatCSV is comma-separated values, UTF-8 with a byte-order mark.
	FormatCSV Format = "csv"
	// FormatXLSX is an Office Open XML workbook with one sheet.
	FormatXLSX Format = "xlsx"
	// FormatJSON is a {"columns": [...], "rows": [[...]]} document.
	FormatJSON Format = "json"
	// FormatYAML is the YAML equivalent of [FormatJSON].
	FormatYAML Format = "yaml"
)

// DefaultFileName is the file name suggested when saving a table.
const DefaultFileName = "model_profile.csv"

// SheetName is the worksheet that holds the table in [FormatXLSX] exports.
const SheetName = "Profile"

// BOM is written before CSV content so spreadsheet applications detect UTF-8.
const BOM = "\ufeff"

var (
	// ErrUnknownFormat indicates an unrecognized export format string.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrWrite indicates the export could not be written.
	ErrWrite = errors.New("write export")
)

var allFormats = []Format{FormatCSV, FormatXLSX, FormatJSON, FormatYAML}

// ParseFormat parses an export format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(s))
	if f == "yml" {
		return FormatYAML, nil
	}

	for _, known := range allFormats {
		if f == known {
			return f, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromPath picks a format from the extension of path, falling back to
// [FormatCSV].
func FormatFromPath(path string) Format {
	f, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return FormatCSV
	}

	return f
}

// GetAllFormatStrings returns every accepted format name.
func GetAllFormatStrings() []string {
	out := make([]string, 0, len(allFormats))
	for _, f := range allFormats {
		out = append(out, string(f))
	}

	return out
}

// Document is the shape of [FormatJSON] and [FormatYAML] exports.
type Document struct {
	Columns []string        `json:"columns" yaml:"columns"`
	Rows    [][]table.Value `json:"rows"    yaml:"rows"`
}

// Write encodes t to w in format f.
func Write(w io.Writer, t *table.Table, f Format) error {
	var err error

	switch f {
	case FormatCSV:
		err = writeCSV(w, t)
	case FormatXLSX:
		err = writeXLSX(w, t)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(Document{Columns: t.Columns, Rows: t.Rows})
	case FormatYAML:
		err = yaml.NewEncoder(w).Encode(Document{Columns: t.Columns, Rows: t.Rows})
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, f, err)
	}

	return nil
}

// WriteFile creates path (truncating any existing file) and writes t to it.
func WriteFile(path string, t *table.Table, f Format) error {
	out, err := os.Create(path) //nolint:gosec // Export path is chosen by the user.
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	err = Write(out, t, f)
	if err != nil {
		_ = out.Close()

		return err
	}

	err = out.Close()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return nil
}

func writeCSV(w io.Writer, t *table.Table) error {
	_, err := io.WriteString(w, BOM)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	err = cw.Write(t.Columns)
	if err != nil {
		return err
	}

	record := make([]string, len(t.Columns))

	for _, row := range t.Rows {
		for i, v := range row {
			record[i] = csvCell(v)
		}

		err = cw.Write(record[:len(row)])
		if err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// csvCell renders non-finite numbers as empty cells, the way missing values
// are written.
func csvCell(v table.Value) string {
	if f, ok := v.Float(); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return ""
	}

	return v.String()
}

func writeXLSX(w io.Writer, t *table.Table) (err error) {
	f := excelize.NewFile()

	defer func() {
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
	}()

	err = f.SetSheetName("Sheet1", SheetName)
	if err != nil {
		return err
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}

	err = f.SetSheetRow(SheetName, "A1", &header)
	if err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	err = f.SetRowStyle(SheetName, 1, 1, bold)
	if err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for c, v := range row {
			cells[c] = v.Any()
		}

		cell, cellErr := excelize.CoordinatesToCellName(1, r+2)
		if cellErr != nil {
			return cellErr
		}

		err = f.SetSheetRow(SheetName, cell, &cells)
		if err != nil {
			return err
		}
	}

	err = f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	if err != nil {
		return err
	}

	return f.Write(w)
}
