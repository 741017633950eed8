package call

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"worldgraph/internal/state"
)

type ProbeOptions struct {
	// Concurrency bounds the number of invocations in flight. Zero means
	// GOMAXPROCS.
	Concurrency int
	// Dedupe marks results whose world equals the probed state or an earlier
	// result.
	Dedupe bool
}

// ProbeResult is the outcome of one probed call.
type ProbeResult struct {
	Call   *MethodCall
	Result Result
	// Fingerprint of the resulting world, set for successful results when
	// deduplicating.
	Fingerprint string
	// Unchanged is set when the resulting world equals the probed one.
	Unchanged bool
	// Duplicate is set when an earlier result produced the same world.
	Duplicate bool
}

// Probe invokes every call against st concurrently and returns the outcomes
// in the order of calls. Each invocation works on its own deep copy, so st is
// only ever read. A fatal error from any call cancels the rest and is
// returned.
func Probe(ctx context.Context, st *state.State, calls []*MethodCall, opts ProbeOptions) ([]ProbeResult, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	var origin string
	if opts.Dedupe {
		fp, err := st.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("probing: %w", err)
		}
		origin = fp
	}

	results := make([]ProbeResult, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range calls {
		g.Go(func() error {
			res, err := c.Invoke(gctx, st)
			if err != nil {
				return err
			}
			pr := ProbeResult{Call: c, Result: res}
			if opts.Dedupe && res.OK() {
				if pr.Fingerprint, err = res.State.Fingerprint(); err != nil {
					return fmt.Errorf("probing %s: %w", c, err)
				}
			}
			results[i] = pr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Dedupe {
		seen := make(map[string]struct{})
		for i := range results {
			r := &results[i]
			if !r.Result.OK() {
				continue
			}
			if r.Fingerprint == origin {
				r.Unchanged = true
				continue
			}
			if _, dup := seen[r.Fingerprint]; dup {
				r.Duplicate = true
				continue
			}
			seen[r.Fingerprint] = struct{}{}
		}
	}
	return results, nil
}
