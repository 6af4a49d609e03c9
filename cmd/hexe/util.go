package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/hexe-lang/hexe"
	"github.com/hexe-lang/hexe/bytecode"
	"github.com/hexe-lang/hexe/errors"
	"github.com/hexe-lang/hexe/vm"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var red = color.New(color.FgRed).SprintFunc()

func fatal(err error) {
	fmt.Fprintln(os.Stderr, formatError(err, !color.NoColor))
	os.Exit(1)
}

// formatError renders compile and runtime errors with source context. Other
// errors are printed in red.
func formatError(err error, useColor bool) string {
	_, formattable := err.(errors.FormattableError)
	if formattable || len(errors.CompileErrors(err)) > 0 {
		return strings.TrimRight(errors.FriendlyErrorMessage(err, useColor), "\n")
	}
	if useColor {
		return red(err.Error())
	}
	return err.Error()
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func newLogger(w io.Writer) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level: %w", err)
	}
	if viper.GetBool("trace") && level > zerolog.DebugLevel {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    color.NoColor,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger(), nil
}

// hexeOptions returns the compile and execution options selected by the
// global flags.
func hexeOptions(cmd *cobra.Command, filename string) ([]hexe.Option, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	opts := []hexe.Option{
		hexe.WithFilename(filename),
		hexe.WithOutput(cmd.OutOrStdout()),
		hexe.WithLogger(logger),
	}
	if viper.GetBool("trace") {
		opts = append(opts, hexe.WithObserver(vm.NewTraceObserver(logger)))
	}
	if limit := viper.GetInt64("limit"); limit > 0 {
		opts = append(opts, hexe.WithInstructionLimit(limit))
	}
	return opts, nil
}

func isExecutable(data []byte) bool {
	return bytes.HasPrefix(data, []byte(bytecode.Magic))
}

// loadProgram reads path as a Hexe executable if it starts with the
// executable magic, otherwise it compiles it as source code.
func loadProgram(ctx context.Context, cmd *cobra.Command, path string) (*hexe.Program, []hexe.Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	opts, err := hexeOptions(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	if isExecutable(data) {
		program, err := hexe.Load(data, opts...)
		if err != nil {
			return nil, nil, err
		}
		return program, opts, nil
	}
	program, err := hexe.Compile(ctx, string(data), opts...)
	if err != nil {
		return nil, nil, err
	}
	return program, opts, nil
}

func outputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".hexe"
}

func printJSON(w io.Writer, v any) error {
	formatter := prettyjson.NewFormatter()
	formatter.DisabledColor = color.NoColor
	data, err := formatter.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func validateFormat(format string) error {
	switch format {
	case "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
