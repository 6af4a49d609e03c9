package main

import (
	"fmt"
	"os"

	"github.com/hexe-lang/hexe/bytecode"
	"github.com/spf13/cobra"
)

type inspection struct {
	Path    string          `json:"path"`
	Size    int             `json:"size"`
	Version string          `json:"version"`
	Header  bytecode.Header `json:"header"`
	Stats   bytecode.Stats  `json:"stats"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.hexe>",
		Short: "Print the header and statistics of a Hexe executable as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  inspectHandler,
	}
}

func inspectHandler(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	header, err := bytecode.ReadHeader(data)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}
	container, err := bytecode.ReadFile(path)
	if err != nil {
		return err
	}
	stats, err := container.Stats()
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), inspection{
		Path:    path,
		Size:    len(data),
		Version: header.Version.String(),
		Header:  header,
		Stats:   stats,
	})
}
