package main

import (
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <source>",
		Short: "Compile a source file to a Hexe executable",
		Args:  cobra.ExactArgs(1),
		RunE:  buildHandler,
	}
	cmd.Flags().StringP("output", "o", "", "Output path (default is the source path with a .hexe extension)")
	return cmd
}

func buildHandler(cmd *cobra.Command, args []string) error {
	src := args[0]
	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = outputPath(src)
	}
	program, _, err := loadProgram(cmd.Context(), cmd, src)
	if err != nil {
		return err
	}
	if err := program.Container().WriteFile(out); err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger.Info().
		Str("source", src).
		Str("output", out).
		Int("bytes", len(program.Bytes())).
		Msg("wrote executable")
	return nil
}
