// Package shell holds the state of an interactive profiling session.
//
// An [App] tracks the selected model path, the captured profiler output,
// the table extracted from it and a one-line status. Operations mirror the
// user actions: pick a model ([App.SetPath]), profile it
// ([App.BeginProfile] then [App.Complete]), save the table ([App.Save]), copy
// the raw text ([App.CopyText]) and clear the results ([App.Clear]).
//
// [App] performs no I/O besides path checks and exports and is not safe for
// concurrent use. The caller runs profiling requests in the background and
// hands each [capture.Result] back to the same goroutine that owns the App.
// Every failure is recorded as [StatusError] with the error kept in
// [State.Err], so the presentation layer only has to render [App.State].
package shell
