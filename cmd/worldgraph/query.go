package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query the knowledge triples of the configured world",
	}
	cmd.AddCommand(queryKBCmd())
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(querySearchCmd())
	return cmd
}
