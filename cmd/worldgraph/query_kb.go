package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"worldgraph/internal/kb"
)

func queryKBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb <atom>",
		Short: "Query the triples with a Datalog atom, e.g. triple(S, /list/items, O)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryKB(strings.Join(args, " "))
		},
	}
	return cmd
}

func runQueryKB(query string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	rules, err := p.rules()
	if err != nil {
		return err
	}
	g, err := kb.Extract(p.state)
	if err != nil {
		return err
	}
	engine, err := kb.NewEngine(g, rules)
	if err != nil {
		return err
	}

	bindings, err := engine.Query(ctx, query)
	if err != nil {
		return err
	}
	if len(bindings) == 0 {
		fmt.Fprintln(os.Stdout, "No matches found.")
		return nil
	}

	for _, b := range bindings {
		names := make([]string, 0, len(b))
		for name := range b {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s=%s", name, b[name]))
		}
		fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
	}
	return nil
}
