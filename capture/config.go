package capture

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Default profiler invocation.
const (
	DefaultPython  = "python3"
	DefaultModule  = "onnx_tool"
	DefaultEntry   = "model_profile"
	DefaultPackage = "onnx-tool"
)

// Flags holds CLI flag names for profiler invocation, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Python  string
	Module  string
	Entry   string
	Package string
	Env     string
	Timeout string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:   f,
		Python:  DefaultPython,
		Module:  DefaultModule,
		Entry:   DefaultEntry,
		Package: DefaultPackage,
	}
}

// Config describes how the external profiler is invoked.
//
// The profiler is a Python function taking a model path and printing its
// report to standard output. It is run as
//
//	<Python> -c <bootstrap> <Module> <Entry> <model path>
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewRunner] to create a [Runner].
type Config struct {
	Flags Flags

	// Python is the interpreter, resolved through PATH when it has no
	// directory component.
	Python string
	// Module is the importable profiler module.
	Module string
	// Entry is the function in Module called with the model path.
	Entry string
	// Package is the pip package suggested when Module cannot be imported.
	Package string
	// Env is appended to the inherited environment of the profiler process.
	Env []string
	// Timeout bounds a single run. Zero waits indefinitely.
	Timeout time.Duration
}

// NewConfig returns a new [Config] with default flag names and the default
// onnx_tool invocation.
func NewConfig() *Config {
	f := Flags{
		Python:  "python",
		Module:  "profiler-module",
		Entry:   "profiler-entry",
		Package: "profiler-package",
		Env:     "profiler-env",
		Timeout: "timeout",
	}

	return f.NewConfig()
}

// RegisterFlags adds profiler flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Python, c.Flags.Python, c.Python,
		"python interpreter used to run the profiler")
	flags.StringVar(&c.Module, c.Flags.Module, c.Module,
		"python module providing the profiler")
	flags.StringVar(&c.Entry, c.Flags.Entry, c.Entry,
		"function in the profiler module called with the model path")
	flags.StringVar(&c.Package, c.Flags.Package, c.Package,
		"pip package suggested when the profiler module is missing")
	flags.StringArrayVar(&c.Env, c.Flags.Env, c.Env,
		"extra KEY=VALUE environment for the profiler process (repeatable)")
	flags.DurationVar(&c.Timeout, c.Flags.Timeout, c.Timeout,
		"abort a profiling run after this long (0 waits indefinitely)")
}

// RegisterCompletions registers shell completions for profiler flags on cmd.
// The interpreter flag keeps default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{c.Flags.Module, c.Flags.Entry, c.Flags.Package, c.Flags.Env, c.Flags.Timeout} {
		err := cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	return nil
}

// NewRunner creates a [Runner] using this [Config]. A nil logger discards
// log output.
func (c *Config) NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Runner{
		Config: *c,
		logger: logger,
	}
}
