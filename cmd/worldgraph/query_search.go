package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func querySearchCmd() *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Full-text search over text-valued triples",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(args[0], relation)
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "Relation to filter, e.g. Board.title")
	return cmd
}

func runQuerySearch(query, relation string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	index, err := openIndex(ctx, p.state, p.logger)
	if err != nil {
		return err
	}
	defer index.Close(ctx)

	results, err := index.Search(ctx, query, relation)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, result := range results {
		fmt.Fprintf(os.Stdout, "%s %s %q score=%.2f\n", result.Subject, result.Relation, result.Snippet, result.Score)
	}
	return nil
}
