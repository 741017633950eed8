package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func opsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ops",
		Short: "List the operations of the domain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOps()
		},
	}
}

func runOps() error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	d := p.state.Domain()
	for _, op := range d.Universe().Operations() {
		params := make([]string, 0, len(op.Params))
		for _, param := range op.Params {
			params = append(params, fmt.Sprintf("%s %s", param.Kind, param.GoType))
		}
		target := op.Type.Name
		if op.OnRoot() {
			target += " (root)"
		}
		line := fmt.Sprintf("%-20s %s on %s(%s)", d.ShortID(op), op.Key(), target, strings.Join(params, ", "))
		if len(op.Hints) > 0 {
			line += fmt.Sprintf(" [%s]", strings.Join(op.Hints, ", "))
		}
		fmt.Fprintln(os.Stdout, line)
	}
	return nil
}
