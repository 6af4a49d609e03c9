package main

import (
	"github.com/hexe-lang/hexe/dis"
	"github.com/spf13/cobra"
)

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis <source|file.hexe>",
		Short: "Disassemble a source file or Hexe executable",
		Args:  cobra.ExactArgs(1),
		RunE:  disHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (text, json)")
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}
	program, _, err := loadProgram(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}
	instructions, err := dis.Disassemble(program.Container())
	if err != nil {
		return err
	}
	if format == "json" {
		return dis.PrintJSON(instructions, cmd.OutOrStdout())
	}
	return dis.Print(instructions, cmd.OutOrStdout())
}
