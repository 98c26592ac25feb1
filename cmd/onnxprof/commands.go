package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"go.jacobcolvin.com/onnxprof/config"
	"go.jacobcolvin.com/onnxprof/export"
	"go.jacobcolvin.com/onnxprof/table"
	"go.jacobcolvin.com/onnxprof/tui"
	"go.jacobcolvin.com/onnxprof/version"
)

func (c *cli) profileCmd() *cobra.Command {
	var (
		output string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "profile <model.onnx>",
		Short: "Profile a model and print or export its table",
		Long: `Profile runs the profiler once and prints the extracted table. On a terminal
the table is drawn with borders; otherwise it is written in --format (CSV by
default) so it can be piped. Use --output to write a file instead, or --raw to
print the captured report unchanged.`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeModels,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.newApp()
			app.SetPath(args[0])

			req, err := app.BeginProfile()
			if err != nil {
				return err
			}

			res := c.capture.NewRunner(c.logger).Run(cmd.Context(), req)

			out := app.Complete(res)
			if out.Err != nil {
				return out.Err
			}

			st := app.State()

			if raw {
				_, err = io.WriteString(cmd.OutOrStdout(), st.Raw)
				if err != nil {
					return fmt.Errorf("%w: %w", ErrWriteOutput, err)
				}

				return nil
			}

			if st.Table == nil {
				return fmt.Errorf("%s: %w", st.Status, out.Warning)
			}

			return c.emit(cmd, st.Table, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the table to this file")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the captured profiler output instead of the table")

	return cmd
}

func (c *cli) parseCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Extract the table from previously captured profiler output",
		Long: `Parse reads text captured from the profiler, from a file or standard input,
and extracts the per-node table the same way an interactive run does.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			layout := c.file.Layout()

			t, _, err := layout.Extract(text)
			if err != nil {
				return err
			}

			err = layout.Check(t)
			if err != nil {
				c.logger.Warn("unexpected profiler layout", slog.Any("err", err))
			}

			return c.emit(cmd, t, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the table to this file")

	return cmd
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that the profiler can be run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.capture.NewRunner(c.logger).CheckDependencies(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %s can import %s\n", c.capture.Python, c.capture.Module)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	}
}

func (c *cli) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file format",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Schema()
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(s, "", "  ")
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			_, err = cmd.OutOrStdout().Write(append(out, '\n'))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	})

	return cmd
}

func (c *cli) versionCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			w := cmd.OutOrStdout()

			var err error

			switch format {
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(info)
			case "yaml":
				err = yaml.NewEncoder(w).Encode(info)
			default:
				_, err = fmt.Fprintln(w, info.String())
			}

			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&format, "output", "text", "output format, one of: text, json, yaml")

	err := cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions([]string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	return cmd
}

// emit writes t to path when given. Otherwise it draws t on a terminal, or
// encodes it to standard output in the configured format (CSV by default).
func (c *cli) emit(cmd *cobra.Command, t *table.Table, path string) error {
	if path != "" {
		f, err := c.export.ResolveFormat(path)
		if err != nil {
			return err
		}

		err = export.WriteFile(path, t, f)
		if err != nil {
			return err
		}

		c.logger.Info("table saved", slog.String("path", path), slog.String("format", string(f)))

		return nil
	}

	w := cmd.OutOrStdout()

	if c.export.Format == "" {
		if width := terminalWidth(w); width > 0 {
			_, err := fmt.Fprintln(w, tui.RenderTable(t, width))
			if err != nil {
				return fmt.Errorf("%w: %w", ErrWriteOutput, err)
			}

			return nil
		}
	}

	f, err := c.export.ResolveFormat(export.DefaultFileName)
	if err != nil {
		return err
	}

	return export.Write(w, t, f)
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("%w: stdin: %w", ErrReadInput, err)
		}

		return string(b), nil
	}

	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrReadInput, err)
	}

	return string(b), nil
}
