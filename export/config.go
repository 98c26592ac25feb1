package export

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names for export configuration, allowing callers to
// customize flag names while keeping sensible defaults via [NewConfig].
type Flags struct {
	Format   string
	FileName string
}

// NewConfig creates a new [Config] embedding these flag names.
func (f Flags) NewConfig() *Config {
	return &Config{
		Flags:    f,
		FileName: DefaultFileName,
	}
}

// Config holds export preferences.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags].
type Config struct {
	Flags Flags

	// Format is the export format. Empty infers it from the file extension.
	Format string
	// FileName is the suggested export file name.
	FileName string
}

// NewConfig returns a new [Config] with the default "format" and
// "export-name" flag names.
func NewConfig() *Config {
	f := Flags{
		Format:   "format",
		FileName: "export-name",
	}

	return f.NewConfig()
}

// RegisterFlags adds export flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Format, c.Flags.Format, c.Format,
		fmt.Sprintf("export format, one of: %s (default: from file extension)", GetAllFormatStrings()))
	flags.StringVar(&c.FileName, c.Flags.FileName, c.FileName,
		"file name suggested when saving a table")
}

// RegisterCompletions registers shell completions for export flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.Format,
		cobra.FixedCompletions(GetAllFormatStrings(), cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.Format, err)
	}

	return nil
}

// ResolveFormat returns the configured format, or the one implied by path
// when none is configured.
func (c *Config) ResolveFormat(path string) (Format, error) {
	if c.Format == "" {
		return FormatFromPath(path), nil
	}

	return ParseFormat(c.Format)
}
