package main

import (
	"fmt"
	"os"

	"github.com/hexe-lang/hexe"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <source>",
		Short: "Compile and execute a source file",
		Long: `Compile and execute a source file. Output of print statements goes to
stdout, followed by the program's return value if it has one.`,
		Args: cobra.ExactArgs(1),
		RunE: runHandler,
	}
}

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <file.hexe>",
		Short: "Execute a Hexe executable",
		Args:  cobra.ExactArgs(1),
		RunE:  execHandler,
	}
}

func runHandler(cmd *cobra.Command, args []string) error {
	program, opts, err := loadProgram(cmd.Context(), cmd, args[0])
	if err != nil {
		return err
	}
	return execute(cmd, program, opts)
}

func execHandler(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if !isExecutable(data) {
		return fmt.Errorf("%s is not a hexe executable; use run or build", path)
	}
	opts, err := hexeOptions(cmd, path)
	if err != nil {
		return err
	}
	program, err := hexe.Load(data, opts...)
	if err != nil {
		return err
	}
	return execute(cmd, program, opts)
}

func execute(cmd *cobra.Command, program *hexe.Program, opts []hexe.Option) error {
	result, err := hexe.Exec(cmd.Context(), program, opts...)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Fprintln(cmd.OutOrStdout(), result)
	}
	return nil
}
