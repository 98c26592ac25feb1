// Package log builds the [log/slog] handlers used by onnxprof.
//
// Three output formats are supported: [FormatJSON] and [FormatLogfmt] use the
// standard library handlers, and [FormatText] uses [charm.land/log/v2] for
// colored, human-oriented output. Severity is one of [LevelError],
// [LevelWarn], [LevelInfo], or [LevelDebug].
//
// The CLI wires logging through [Config]:
//
//	cfg := log.NewConfig()
//	cfg.RegisterFlags(rootCmd.PersistentFlags())
//	cfg.RegisterCompletions(rootCmd)
//
//	logger, err := cfg.NewLogger(os.Stderr)
//
// While the terminal UI owns the screen, log output goes to a [Publisher]
// instead, and the UI drains a [Subscription] into its log pane:
//
//	pub := log.NewPublisher(log.WithHistory(50))
//	logger := slog.New(log.NewHandler(pub, log.LevelInfo, log.FormatLogfmt))
//
//	sub := pub.Subscribe()
//	for entry := range sub.C() {
//	    // Append entry to the log pane.
//	}
package log
