package sqlite

import (
	"context"
	"strings"
	"testing"

	"worldgraph/internal/kb"
)

func testKb() *kb.GraphKb {
	board := kb.EntityTerm("t#0", 0, "Board")
	list := kb.EntityTerm("t#1", 1, "List")
	one := kb.EntityTerm("t#2", 2, "Number")
	two := kb.EntityTerm("t#3", 3, "Number")
	return kb.New(
		kb.Triple{Subject: board, Relation: kb.Relation{Type: "Board", Member: "title"}, Object: kb.PrimitiveTerm("river crossing")},
		kb.Triple{Subject: board, Relation: kb.Relation{Type: "Board", Member: "list"}, Object: list},
		kb.Triple{Subject: list, Relation: kb.Relation{Type: "List", Member: "items"}, Object: one},
		kb.Triple{Subject: list, Relation: kb.Relation{Type: "List", Member: "items"}, Object: two},
		kb.Triple{Subject: one, Relation: kb.Relation{Type: "Number", Member: "value"}, Object: kb.PrimitiveTerm(1)},
		kb.Triple{Subject: two, Relation: kb.Relation{Type: "Number", Member: "value"}, Object: kb.PrimitiveTerm(2)},
		kb.Triple{Subject: two, Relation: kb.Relation{Type: "Number", Member: "note"}, Object: kb.PrimitiveTerm("flooded mill")},
	)
}

func newLoaded(t *testing.T) *Client {
	t.Helper()
	ctx := context.Background()
	c, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close(ctx) })

	stats, err := c.Load(ctx, testKb())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Entities != 4 || stats.Triples != 7 {
		t.Fatalf("Load stats = %+v, want 4 entities and 7 triples", stats)
	}
	return c
}

func TestRunSQL(t *testing.T) {
	c := newLoaded(t)
	ctx := context.Background()

	rows, err := c.RunSQL(ctx, `
	SELECT t.object_value AS value
	FROM triples t
	WHERE t.relation = ?
	ORDER BY t.seq`, map[string]any{"1": "Number.value"})
	if err != nil {
		t.Fatalf("RunSQL: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0]["value"] != int64(1) || rows[1]["value"] != int64(2) {
		t.Errorf("values = %v, %v", rows[0]["value"], rows[1]["value"])
	}

	rows, err = c.RunSQL(ctx, `
	SELECT e.id, e.entity_type
	FROM triples t JOIN entities e ON e.ordinal = t.object_ref
	WHERE t.relation = 'List.items'
	ORDER BY t.seq`, nil)
	if err != nil {
		t.Fatalf("RunSQL: %v", err)
	}
	if len(rows) != 2 || rows[0]["id"] != "t#2" || rows[1]["entity_type"] != "Number" {
		t.Errorf("unexpected rows %v", rows)
	}
}

func TestRunSQLMissingParameter(t *testing.T) {
	c := newLoaded(t)
	_, err := c.RunSQL(context.Background(), "SELECT ?", map[string]any{"2": 1})
	if err == nil || !strings.Contains(err.Error(), "missing parameter 1") {
		t.Fatalf("expected missing parameter error, got %v", err)
	}
}

func TestRunSQLIsReadOnly(t *testing.T) {
	c := newLoaded(t)
	ctx := context.Background()

	if _, err := c.RunSQL(ctx, "DELETE FROM triples", nil); err == nil {
		t.Fatal("expected write to be rejected")
	}
	rows, err := c.RunSQL(ctx, "SELECT COUNT(*) AS n FROM triples", nil)
	if err != nil {
		t.Fatalf("RunSQL: %v", err)
	}
	if rows[0]["n"] != int64(7) {
		t.Errorf("count = %v, want 7", rows[0]["n"])
	}
}

func TestLoadReplaces(t *testing.T) {
	c := newLoaded(t)
	ctx := context.Background()

	board := kb.EntityTerm("u#0", 0, "Board")
	next := kb.New(kb.Triple{
		Subject:  board,
		Relation: kb.Relation{Type: "Board", Member: "title"},
		Object:   kb.PrimitiveTerm("empty"),
	})
	stats, err := c.Load(ctx, next)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if stats.Entities != 1 || stats.Triples != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	results, err := c.Search(ctx, "river", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("stale search results %v", results)
	}
}

func TestSearch(t *testing.T) {
	c := newLoaded(t)
	ctx := context.Background()

	results, err := c.Search(ctx, "river", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	r := results[0]
	if r.Subject != "t#0" || r.Relation != "Board.title" || r.Text != "river crossing" {
		t.Errorf("unexpected result %+v", r)
	}
	if !strings.Contains(r.Snippet, "**river**") {
		t.Errorf("snippet %q does not highlight the match", r.Snippet)
	}

	results, err = c.Search(ctx, "river OR mill", "Number.note")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Subject != "t#3" {
		t.Errorf("relation filter gave %+v", results)
	}

	results, err = c.Search(ctx, "river -crossing", "")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("negation gave %+v", results)
	}

	if _, err := c.Search(ctx, "  ", ""); err == nil {
		t.Error("expected error for empty query")
	}
}
