// Package table extracts the per-node table from onnx_tool's console output.
//
// The profiler prints free-form text with one fixed-width table in it. The
// table is found textually: it starts at the first "Name" (the first header
// cell) and ends at the first two consecutive blank lines. The extracted
// text is parsed with [go.jacobcolvin.com/onnxprof/fwf], and six metric
// columns are coerced to numbers where possible:
//
//	t, offset, err := table.Extract(raw)
//	if err != nil {
//	    return err
//	}
//
// Because this relies on the profiler's output layout, the layout is a
// versioned value ([DefaultLayout], [FormatVersion]) and [CheckFormat]
// reports tables that parse but no longer resemble it.
package table
