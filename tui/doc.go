// Package tui implements the interactive terminal front end of onnxprof with
// Bubble Tea.
//
// The screen shows the model path, the raw profiler output, the extracted
// table, recent log entries and a status line. Profiling runs are started
// in the background with [Runner.Start] and a [tea.Cmd] waits for the single
// result, so the interface stays responsive; every result is applied to the [shell.App] from Update, which makes the event loop the
// only writer of application state. Copying uses the terminal clipboard
// escape sequence, so it also works over SSH.
//
// The path and save prompts, the raw output pane and the model picker are
// Bubbles components (textinput, viewport and filepicker).
package tui
