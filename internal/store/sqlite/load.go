package sqlite

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"worldgraph/internal/graph"
	"worldgraph/internal/kb"
	"worldgraph/internal/store"
)

// Load replaces the indexed triples with those of g. The database is left in
// query-only mode afterwards, so RunSQL cannot change it.
func (c *Client) Load(ctx context.Context, g *kb.GraphKb) (store.LoadStats, error) {
	var stats store.LoadStats

	if _, err := c.db.ExecContext(ctx, "PRAGMA query_only = OFF;"); err != nil {
		return stats, fmt.Errorf("leaving query-only mode: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"triples_fts", "triples", "entities"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return stats, fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	seen := make(map[int]struct{})
	upsertEntity := func(t kb.Term) error {
		if _, ok := seen[t.Ordinal]; ok {
			return nil
		}
		seen[t.Ordinal] = struct{}{}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO entities (ordinal, id, entity_type) VALUES (?, ?, ?)",
			t.Ordinal, t.ID, t.Type,
		)
		if err != nil {
			return fmt.Errorf("inserting entity %s: %w", t.ID, err)
		}
		stats.Entities++
		return nil
	}

	for _, t := range g.Triples() {
		if err := upsertEntity(t.Subject); err != nil {
			return stats, err
		}

		var (
			objectRef   any
			objectValue any
			objectType  string
		)
		if t.Object.IsEntity() {
			if err := upsertEntity(t.Object); err != nil {
				return stats, err
			}
			objectRef = t.Object.Ordinal
			objectType = t.Object.Type
		} else {
			objectValue = sqlValue(t.Object.Value)
			objectType = reflect.TypeOf(t.Object.Value).String()
		}

		result, err := tx.ExecContext(ctx, `
		INSERT INTO triples (subject, relation, object_ref, object_value, object_type)
		VALUES (?, ?, ?, ?, ?)
		`, t.Subject.Ordinal, t.Relation.String(), objectRef, objectValue, objectType)
		if err != nil {
			return stats, fmt.Errorf("inserting triple %s: %w", t, err)
		}
		stats.Triples++

		text, ok := objectValue.(string)
		if !ok || t.Object.IsEntity() {
			continue
		}
		seq, err := result.LastInsertId()
		if err != nil {
			return stats, fmt.Errorf("getting triple id: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO triples_fts (rowid, relation, text) VALUES (?, ?, ?)",
			seq, t.Relation.String(), text,
		); err != nil {
			return stats, fmt.Errorf("indexing triple text: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing triples: %w", err)
	}
	if _, err := c.db.ExecContext(ctx, "PRAGMA query_only = ON;"); err != nil {
		return stats, fmt.Errorf("entering query-only mode: %w", err)
	}
	return stats, nil
}

// sqlValue maps a primitive onto the sqlite storage classes. Booleans become
// 0 or 1 and times RFC 3339 text.
func sqlValue(v any) any {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339Nano)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return int64(1)
		}
		return int64(0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.String:
		return rv.String()
	default:
		return graph.FormatPrimitive(v)
	}
}
