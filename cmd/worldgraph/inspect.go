package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var short bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the configured world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Label entities by ordinal instead of id")
	return cmd
}

func runInspect(short bool) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	dump, err := p.state.Dump()
	if short {
		dump, err = p.state.ShortDump()
	}
	if err != nil {
		return err
	}
	fp, err := p.state.Fingerprint()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "state %s (%d entities)\nfingerprint %s\n\n", p.state.Token(), p.state.Len(), fp)
	fmt.Fprint(os.Stdout, dump)
	return nil
}
