package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"go.jacobcolvin.com/onnxprof/capture"
	"go.jacobcolvin.com/onnxprof/config"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/log"
	"go.jacobcolvin.com/onnxprof/selfprofile"
	"go.jacobcolvin.com/onnxprof/shell"
	"go.jacobcolvin.com/onnxprof/tui"
)

// logHistory is the number of log entries replayed into the TUI log pane.
const logHistory = 100

// cli holds the configuration shared by all commands.
type cli struct {
	logger     *slog.Logger
	file       *config.File
	session    *selfprofile.Session
	publisher  *log.Publisher
	log        *log.Config
	capture    *capture.Config
	export     *export.Config
	profiling  *selfprofile.Config
	configPath string
}

func newCLI() *cli {
	return &cli{
		log:       log.NewConfig(),
		capture:   capture.NewConfig(),
		export:    export.NewConfig(),
		profiling: selfprofile.NewConfig(),
		file:      &config.File{},
		logger:    slog.New(slog.DiscardHandler),
	}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "onnxprof [model.onnx]",
		Short: "Profile ONNX models and browse the per-node report",
		Long: `onnxprof runs the onnx_tool model profiler on an ONNX model, captures its
report and extracts the per-node table (MACs, memory, parameters).

Without a subcommand it starts an interactive terminal interface where models
can be picked, profiled, inspected and exported. The profile and parse
subcommands do the same non-interactively.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeModels,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
		RunE:              c.runInteractive,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "",
		"config file (default: onnxprof/config.yaml in the user config directory)")
	c.log.RegisterFlags(pf)
	c.capture.RegisterFlags(pf)
	c.export.RegisterFlags(pf)
	c.profiling.RegisterFlags(pf)

	root.AddCommand(
		c.profileCmd(),
		c.parseCmd(),
		c.checkCmd(),
		c.configCmd(),
		c.versionCmd(),
	)

	for _, register := range []func(*cobra.Command) error{
		c.log.RegisterCompletions,
		c.capture.RegisterCompletions,
		c.export.RegisterCompletions,
		c.profiling.RegisterCompletions,
	} {
		err := register(root)
		if err != nil {
			fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
		}
	}

	return root
}

// setup loads the config file, builds the logger and starts runtime
// profiling. It runs before every command.
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	f, err := config.Load(config.Resolve(c.configPath))
	if err != nil {
		return err
	}

	err = f.Apply(cmd.Flags(), config.Bindings{
		Capture: c.capture.Flags,
		Export:  c.export.Flags,
		Log:     c.log.Flags,
	})
	if err != nil {
		return err
	}

	c.file = f

	var w io.Writer = cmd.ErrOrStderr()

	// The interactive screen owns the terminal, so its logs go to the log pane.
	if cmd == cmd.Root() {
		c.publisher = log.NewPublisher(log.WithHistory(logHistory))
		w = c.publisher
	}

	c.logger, err = c.log.NewLogger(w)
	if err != nil {
		return err
	}

	if c.export.Format != "" {
		_, err = export.ParseFormat(c.export.Format)
		if err != nil {
			return err
		}
	}

	c.session = c.profiling.NewSession()

	return c.session.Start()
}

// close stops runtime profiling and the log publisher.
func (c *cli) close() error {
	var errs []error

	if c.session != nil {
		errs = append(errs, c.session.Stop())
	}

	if c.publisher != nil {
		errs = append(errs, c.publisher.Close())
	}

	return errors.Join(errs...)
}

func (c *cli) runInteractive(cmd *cobra.Command, args []string) error {
	if !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("%w: use 'onnxprof profile' for non-interactive runs", ErrNotTerminal)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	app := c.newApp()
	if len(args) == 1 {
		app.SetPath(args[0])
	}

	sub := c.publisher.Subscribe()
	defer sub.Close()

	m := tui.New(ctx, app, c.capture.NewRunner(c.logger),
		tui.WithLogs(sub),
		tui.WithExportFormat(export.Format(c.export.Format)),
	)

	_, err := tea.NewProgram(m).Run()
	if err != nil {
		return fmt.Errorf("run interface: %w", err)
	}

	return nil
}

func (c *cli) newApp() *shell.App {
	return shell.New(c.logger,
		shell.WithLayout(c.file.Layout()),
		shell.WithFileName(c.export.FileName),
	)
}

func completeModels(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	return []string{"onnx"}, cobra.ShellCompDirectiveFilterFileExt
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)

	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // File descriptors fit in int.
}

// terminalWidth returns the width of the terminal w writes to, or 0 when w is
// not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) { //nolint:gosec // File descriptors fit in int.
		return 0
	}

	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // File descriptors fit in int.
	if err != nil {
		return 0
	}

	return width
}
