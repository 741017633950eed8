package graph

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"worldgraph/internal/entity"
)

type color int

const (
	red color = iota
	blue
)

func (c color) String() string {
	if c == red {
		return "red"
	}
	return "blue"
}

type world struct {
	entity.RootNode
	Name  string
	Tags  []string
	Head  *node
	Nodes []*node
	Any   entity.Entity
	cache int
}

type node struct {
	entity.Node
	Label string
	Color color
	At    time.Time
	Next  *node
}

type meter struct {
	entity.RootNode
	Score    float64
	Readings []float32
}

type stranger struct {
	entity.Node
}

func testUniverse(t *testing.T) *entity.Universe {
	t.Helper()
	u := entity.NewUniverse()
	u.MustRegister(&world{})
	u.MustRegister(&node{})
	return u
}

// cyclicWorld builds w -> Head a, Nodes [b, a], a.Next = b, b.Next = a.
func cyclicWorld() (*world, *node, *node) {
	a := &node{Label: "a", Color: red, At: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	b := &node{Label: "b", Color: blue}
	a.Next = b
	b.Next = a
	w := &world{Name: "w", Tags: []string{"x", "y"}, Head: a, Nodes: []*node{b, a}, cache: 7}
	return w, a, b
}

func labels(t *testing.T, u *entity.Universe, root entity.Entity) []string {
	t.Helper()
	entities, err := Reachable(u, root)
	if err != nil {
		t.Fatalf("reachable: %v", err)
	}
	out := make([]string, 0, len(entities))
	for _, e := range entities {
		switch v := e.(type) {
		case *world:
			out = append(out, "world:"+v.Name)
		case *node:
			out = append(out, "node:"+v.Label)
		}
	}
	return out
}

func TestWalk(t *testing.T) {
	u := testUniverse(t)

	t.Run("pre-order visits each entity once", func(t *testing.T) {
		w, _, _ := cyclicWorld()
		got := labels(t, u, w)
		want := []string{"world:w", "node:a", "node:b"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected order (-want +got):\n%s", diff)
		}
	})

	t.Run("interface members are followed", func(t *testing.T) {
		extra := &node{Label: "extra"}
		w := &world{Name: "w", Any: extra}
		got := labels(t, u, w)
		want := []string{"world:w", "node:extra"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("unexpected order (-want +got):\n%s", diff)
		}
	})

	t.Run("skip members", func(t *testing.T) {
		w, _, _ := cyclicWorld()
		var seen int
		err := Walk(u, w, func(e entity.Entity, typ *entity.Type) error {
			seen++
			return SkipMembers
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if seen != 1 {
			t.Fatalf("expected only the root to be visited, got %d", seen)
		}
	})

	t.Run("unregistered entity type", func(t *testing.T) {
		w := &world{Any: &stranger{}}
		if _, err := Reachable(u, w); !errors.Is(err, entity.ErrUnknownType) {
			t.Fatalf("expected ErrUnknownType, got %v", err)
		}
	})

	t.Run("nil root", func(t *testing.T) {
		if _, err := Reachable(u, nil); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestCopy(t *testing.T) {
	u := testUniverse(t)

	t.Run("preserves aliasing and cycles", func(t *testing.T) {
		w, a, b := cyclicWorld()
		c, clones, err := Copy(u, w)
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
		cw := c.(*world)
		if cw == w || cw.Head == a || cw.Nodes[0] == b {
			t.Fatalf("expected fresh entities in the copy")
		}
		if cw.Head != cw.Nodes[1] {
			t.Fatalf("expected shared entity to stay shared")
		}
		if cw.Head.Next.Next != cw.Head {
			t.Fatalf("expected cycle to be preserved")
		}
		if clones[a] != cw.Head || clones[b] != cw.Nodes[0] {
			t.Fatalf("unexpected clone map")
		}
		if cw.cache != 7 {
			t.Fatalf("expected unexported field to be copied, got %d", cw.cache)
		}
		equal, err := Equal(u, w, cw)
		if err != nil || !equal {
			t.Fatalf("expected copy to be graph-equal, got %v (%v)", equal, err)
		}
	})

	t.Run("same entity twice in one sequence", func(t *testing.T) {
		a := &node{Label: "a"}
		w := &world{Nodes: []*node{a, a}}
		c, _, err := Copy(u, w)
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
		cw := c.(*world)
		if cw.Nodes[0] != cw.Nodes[1] {
			t.Fatalf("expected duplicate occurrence to map to one clone")
		}
		if cw.Nodes[0] == a {
			t.Fatalf("expected a clone, got the original")
		}
	})

	t.Run("copy is independent of the original", func(t *testing.T) {
		w, _, _ := cyclicWorld()
		c, _, err := Copy(u, w)
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
		cw := c.(*world)
		cw.Tags[0] = "changed"
		cw.Nodes = append(cw.Nodes, &node{Label: "c"})
		cw.Head.Label = "changed"
		if w.Tags[0] != "x" || len(w.Nodes) != 2 || w.Head.Label != "a" {
			t.Fatalf("mutating the copy changed the original")
		}
	})

	t.Run("nil sequences stay nil", func(t *testing.T) {
		w := &world{Name: "empty"}
		c, _, err := Copy(u, w)
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
		if cw := c.(*world); cw.Nodes != nil || cw.Tags != nil {
			t.Fatalf("expected nil sequences, got %#v %#v", cw.Nodes, cw.Tags)
		}
	})
}

func TestEqual(t *testing.T) {
	u := testUniverse(t)

	t.Run("entity sequence order matters", func(t *testing.T) {
		a1, b1 := &node{Label: "a"}, &node{Label: "b"}
		a2, b2 := &node{Label: "a"}, &node{Label: "b"}
		left := &world{Nodes: []*node{a1, b1}}
		right := &world{Nodes: []*node{b2, a2}}
		if equal, _ := Equal(u, left, right); equal {
			t.Fatalf("expected reordered sequence to differ")
		}
	})

	t.Run("primitive sequence order matters", func(t *testing.T) {
		left := &world{Tags: []string{"x", "y"}}
		right := &world{Tags: []string{"y", "x"}}
		if equal, _ := Equal(u, left, right); equal {
			t.Fatalf("expected reordered tags to differ")
		}
	})

	t.Run("references compare by structure", func(t *testing.T) {
		left := &world{Head: &node{Label: "a"}}
		right := &world{Head: &node{Label: "a"}}
		if equal, err := Equal(u, left, right); err != nil || !equal {
			t.Fatalf("expected structurally equal graphs, got %v (%v)", equal, err)
		}
	})

	t.Run("sharing is part of the structure", func(t *testing.T) {
		shared := &node{Label: "a"}
		left := &world{Nodes: []*node{shared, shared}}
		right := &world{Nodes: []*node{{Label: "a"}, {Label: "a"}}}
		if equal, _ := Equal(u, left, right); equal {
			t.Fatalf("expected shared and unshared graphs to differ")
		}
	})

	t.Run("times compare by instant", func(t *testing.T) {
		at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		left := &world{Head: &node{At: at}}
		right := &world{Head: &node{At: at.In(time.FixedZone("x", 3600))}}
		if equal, _ := Equal(u, left, right); !equal {
			t.Fatalf("expected equal instants to compare equal")
		}
	})

	t.Run("NaN equals a copy of itself", func(t *testing.T) {
		mu := entity.NewUniverse()
		mu.MustRegister(&meter{})
		m := &meter{Score: math.NaN(), Readings: []float32{1, float32(math.NaN())}}
		cp, _, err := Copy(mu, m)
		if err != nil {
			t.Fatalf("copy: %v", err)
		}
		if equal, err := Equal(mu, m, cp); err != nil || !equal {
			t.Fatalf("expected copy with NaN to be equal, got %v (%v)", equal, err)
		}
		if equal, _ := Equal(mu, m, &meter{Score: 1, Readings: m.Readings}); equal {
			t.Fatalf("expected NaN to differ from a number")
		}
	})

	t.Run("nil against entity", func(t *testing.T) {
		left := &world{Head: &node{}}
		right := &world{}
		if equal, _ := Equal(u, left, right); equal {
			t.Fatalf("expected nil reference to differ")
		}
	})
}

func TestDump(t *testing.T) {
	u := testUniverse(t)
	w, _, _ := cyclicWorld()

	dump, err := Dump(u, w)
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	for _, want := range []string{
		"world #0\n",
		`  Name: "w"`,
		`  Tags: ["x", "y"]`,
		"  Head: node #1\n",
		"    Color: red\n",
		"    At: 2024-01-02T03:04:05Z\n",
		"    Next: node #2\n",
		"      Next: ^#1\n",
		"  Nodes: (2)\n",
		"    - ^#2\n",
		"    - ^#1\n",
		"  Any: nil\n",
	} {
		if !strings.Contains(dump, want) {
			t.Fatalf("expected dump to contain %q, got:\n%s", want, dump)
		}
	}

	labeled, err := DumpLabeled(u, w, func(ordinal int, e entity.Entity) string {
		return "e" + string(rune('A'+ordinal))
	})
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(labeled, "Head: node eB") {
		t.Fatalf("expected custom labels, got:\n%s", labeled)
	}
}

func TestFingerprint(t *testing.T) {
	u := testUniverse(t)
	w, _, _ := cyclicWorld()

	original, err := Fingerprint(u, w)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	c, _, err := Copy(u, w)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	copied, err := Fingerprint(u, c)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if original != copied {
		t.Fatalf("expected equal fingerprints for a copy")
	}

	c.(*world).Nodes[0], c.(*world).Nodes[1] = c.(*world).Nodes[1], c.(*world).Nodes[0]
	swapped, err := Fingerprint(u, c)
	if err != nil {
		t.Fatalf("fingerprint: %v", err)
	}
	if swapped == original {
		t.Fatalf("expected reordering to change the fingerprint")
	}
	if len(original) != 64 {
		t.Fatalf("expected hex blake3-256 digest, got %q", original)
	}
}
