package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worldgraph/internal/call"
	"worldgraph/internal/state"
)

func callCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <op> [arg...]",
		Short: "Invoke an operation on the configured world",
		Long: `Invoke an operation on a copy of the configured world and print the result.

Arguments are given in parameter order, starting with the invoking entity for
operations not declared on the root type:
  @<ordinal>          one entity, by its position in the world
  @<ordinal>,@<n>...  a set of entities
  -                   an empty argument
  anything else       a primitive value`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCall(args[0], args[1:])
		},
	}
	return cmd
}

func runCall(opKey string, raw []string) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	args, err := parseCallArgs(p.state, raw)
	if err != nil {
		return err
	}
	if err := call.Check(p.state.Domain(), opKey, args...); err != nil {
		return err
	}
	c, _ := call.New(p.state.Domain(), opKey, args...)

	res, err := c.Invoke(ctx, p.state)
	if err != nil {
		return err
	}
	if !res.OK() {
		fmt.Fprintf(os.Stdout, "no resulting state: %s\n", res.Reason)
		return nil
	}

	dump, err := res.State.ShortDump()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "%s\n\n%s", c, dump)
	return nil
}

// parseCallArgs turns command line words into call arguments, resolving
// @<ordinal> references against st.
func parseCallArgs(st *state.State, raw []string) ([]call.Argument, error) {
	args := make([]call.Argument, 0, len(raw))
	for _, word := range raw {
		switch {
		case word == "-":
			args = append(args, call.Empty())
		case strings.HasPrefix(word, "@"):
			var ids []string
			for _, part := range strings.Split(word, ",") {
				ordinal, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(part), "@"))
				if err != nil {
					return nil, fmt.Errorf("invalid entity reference %q", part)
				}
				id, err := st.IDAt(ordinal)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			}
			args = append(args, call.Entities(ids...))
		default:
			args = append(args, call.Primitive(word))
		}
	}
	return args, nil
}
