package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"worldgraph/internal/call"
)

func probeCmd() *cobra.Command {
	var all bool
	var limit int
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Try every well-formed call on the configured world",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(all, limit)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also print rejected and unchanged calls")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of candidate calls (default from config)")
	return cmd
}

func runProbe(all bool, limit int) error {
	ctx := context.Background()

	p, err := loadProject()
	if err != nil {
		return err
	}
	defer p.close()

	if limit <= 0 {
		limit = p.cfg.Probe.Limit
	}
	calls := call.Candidates(p.state, limit)
	results, err := call.Probe(ctx, p.state, calls, call.ProbeOptions{
		Concurrency: p.cfg.Probe.Concurrency,
		Dedupe:      p.cfg.Probe.Dedupe,
	})
	if err != nil {
		return err
	}

	var produced, rejected int
	for _, r := range results {
		switch {
		case !r.Result.OK():
			rejected++
			if all {
				fmt.Fprintf(os.Stdout, "  x %s: %s\n", r.Call, r.Result.Reason)
			}
		case r.Unchanged:
			if all {
				fmt.Fprintf(os.Stdout, "  = %s\n", r.Call)
			}
		case r.Duplicate:
			if all {
				fmt.Fprintf(os.Stdout, "  ~ %s\n", r.Call)
			}
		default:
			produced++
			fmt.Fprintf(os.Stdout, "  + %s\n", r.Call)
		}
	}

	p.logger.Info("probe finished",
		zap.Int("calls", len(calls)),
		zap.Int("new_states", produced),
		zap.Int("rejected", rejected),
	)
	fmt.Fprintf(os.Stdout, "%d calls, %d new states, %d rejected\n", len(calls), produced, rejected)
	return nil
}
