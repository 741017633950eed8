// Package store defines the SQL view over the triples of one state.
package store

import (
	"context"

	"worldgraph/internal/kb"
)

// Index holds the triples of one GraphKb in queryable tables. Loading replaces
// whatever was loaded before.
type Index interface {
	Close(ctx context.Context) error
	Load(ctx context.Context, g *kb.GraphKb) (LoadStats, error)
	Search(ctx context.Context, query, relation string) ([]SearchResult, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
