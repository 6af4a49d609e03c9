package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE:  versionHandler,
	}
	cmd.Flags().StringP("output", "o", "text", "Output format (text, json)")
	return cmd
}

func versionHandler(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("output")
	if err := validateFormat(format); err != nil {
		return err
	}
	if format == "json" {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"version": version,
			"commit":  commit,
			"date":    date,
		})
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "hexe %s (commit %s, built %s)\n", version, commit, date)
	return err
}
