// Package export writes parsed profiler tables to files.
//
// CSV is the primary format: a header row with the table's columns in order,
// one line per row, UTF-8 with a leading byte-order mark so spreadsheet
// applications pick the right encoding. XLSX, JSON and YAML are also
// available; [FormatFromPath] chooses one from a file extension.
package export
