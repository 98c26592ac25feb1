package selfprofile

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Names of the profiles that can be requested.
const (
	CPU          = "cpu"
	Heap         = "heap"
	Allocs       = "allocs"
	Goroutine    = "goroutine"
	Threadcreate = "threadcreate"
	Block        = "block"
	Mutex        = "mutex"
)

// Default sampling rates, applied only when the matching profile is
// requested.
const (
	DefaultBlockRate     = 1
	DefaultMutexFraction = 1
)

// Flags holds CLI flag names for self-profiling, allowing callers to customize
// flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Dir           string
	Profiles      string
	BlockRate     string
	MutexFraction string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:         f,
		Dir:           ".",
		BlockRate:     DefaultBlockRate,
		MutexFraction: DefaultMutexFraction,
	}
}

// Config selects which runtime profiles of this process are written and
// where. A Config with no Profiles does nothing.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags]. Use [Config.NewSession] to create a [Session].
type Config struct {
	Flags Flags

	// Dir receives one <name>.pprof file per profile.
	Dir string
	// Profiles lists profile names, see [AllProfiles].
	Profiles []string

	BlockRate     int
	MutexFraction int
}

// NewConfig creates a new [Config] with default flag names and no profiles.
func NewConfig() *Config {
	f := Flags{
		Dir:           "pprof-dir",
		Profiles:      "pprof",
		BlockRate:     "pprof-block-rate",
		MutexFraction: "pprof-mutex-fraction",
	}

	return f.NewConfig()
}

// AllProfiles returns every accepted profile name.
func AllProfiles() []string {
	return []string{CPU, Heap, Allocs, Goroutine, Threadcreate, Block, Mutex}
}

// RegisterFlags adds self-profiling flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Dir, c.Flags.Dir, c.Dir,
		"directory receiving runtime profiles of this process")
	flags.StringSliceVar(&c.Profiles, c.Flags.Profiles, c.Profiles,
		fmt.Sprintf("runtime profiles to write (%v)", AllProfiles()))
	flags.IntVar(&c.BlockRate, c.Flags.BlockRate, c.BlockRate,
		"block profile rate in nanoseconds, used with the block profile")
	flags.IntVar(&c.MutexFraction, c.Flags.MutexFraction, c.MutexFraction,
		"mutex profile fraction (1/N sampling), used with the mutex profile")
}

// RegisterCompletions registers shell completions for self-profiling flags on
// cmd. The directory flag keeps default file completion.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Profiles,
		cobra.FixedCompletions(AllProfiles(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Profiles, err)
	}

	noFileComp := func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	for _, flag := range []string{c.Flags.BlockRate, c.Flags.MutexFraction} {
		err = cmd.RegisterFlagCompletionFunc(flag, noFileComp)
		if err != nil {
			return fmt.Errorf("registering %s completion: %w", flag, err)
		}
	}

	return nil
}

// Enabled reports whether the named profile was requested.
func (c *Config) Enabled(name string) bool {
	return slices.Contains(c.Profiles, name)
}

// NewSession creates a [Session] using this [Config].
func (c *Config) NewSession() *Session {
	return &Session{
		Config: *c,
	}
}
