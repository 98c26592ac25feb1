// Package main provides the CLI entry point for onnxprof, a terminal front end
// for the onnx_tool model profiler.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

var (
	// ErrNotTerminal indicates the interactive mode was started without a
	// terminal.
	ErrNotTerminal = errors.New("interactive mode needs a terminal")
	// ErrReadInput indicates captured profiler text could not be read.
	ErrReadInput = errors.New("read input")
	// ErrWriteOutput indicates results could not be written.
	ErrWriteOutput = errors.New("write output")
)

type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := execute(ctx, os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the command line in args and stops any runtime profiling
// afterwards, even when the command failed.
func execute(ctx context.Context, args []string, s streams) error {
	c := newCLI()

	cmd := c.rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(s.in)
	cmd.SetOut(s.out)
	cmd.SetErr(s.err)

	err := cmd.ExecuteContext(ctx)

	return errors.Join(err, c.close())
}
