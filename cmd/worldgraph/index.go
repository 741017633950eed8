package main

import (
	"context"

	"go.uber.org/zap"

	"worldgraph/internal/kb"
	"worldgraph/internal/state"
	"worldgraph/internal/store/sqlite"
)

// openIndex returns an in-memory index loaded with the triples of st.
func openIndex(ctx context.Context, st *state.State, logger *zap.Logger) (*sqlite.Client, error) {
	g, err := kb.Extract(st)
	if err != nil {
		return nil, err
	}
	index, err := sqlite.New(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := index.Load(ctx, g)
	if err != nil {
		index.Close(ctx)
		return nil, err
	}
	logger.Debug("loaded triples into index",
		zap.Int("entities", stats.Entities),
		zap.Int("triples", stats.Triples),
	)
	return index, nil
}
