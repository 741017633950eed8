package call

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"worldgraph/internal/domain/lists"
	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

// listState builds a lists world holding values. Ids in pre-order are: board,
// list, then one per value.
func listState(t *testing.T, values ...int) (*entity.Domain, *state.State) {
	t.Helper()
	d, err := lists.NewDomain(nil)
	require.NoError(t, err)
	st, err := state.FromRoot(lists.NewWorld(values...), d)
	require.NoError(t, err)
	return d, st
}

func values(t *testing.T, st *state.State) []int {
	t.Helper()
	return st.Root().(*lists.Board).List.Values()
}

func TestListScenario(t *testing.T) {
	ctx := context.Background()
	d, st := listState(t, 1, 2, 3, 4)
	ids := st.IDs()
	list, two, three, four := ids[1], ids[3], ids[4], ids[5]
	before, err := st.Fingerprint()
	require.NoError(t, err)

	remove, ok := New(d, "list.remove", Entities(list), Entities(two, four))
	require.True(t, ok)
	removed, err := remove.Invoke(ctx, st)
	require.NoError(t, err)
	require.True(t, removed.OK())
	require.Equal(t, []int{1, 3}, values(t, removed.State))

	move, ok := New(d, "List.moveToBeginning", Entities(list), Entities(three))
	require.True(t, ok)
	moved, err := move.Invoke(ctx, st)
	require.NoError(t, err)
	require.True(t, moved.OK())
	require.Equal(t, []int{3, 1, 2, 4}, values(t, moved.State))

	require.False(t, removed.State.GraphEquals(moved.State))
	require.False(t, removed.State.GraphEquals(st))
	require.False(t, moved.State.GraphEquals(st))

	require.Equal(t, []int{1, 2, 3, 4}, values(t, st))
	after, err := st.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.NotEqual(t, st.Token(), removed.State.Token())
}

func TestInvalidInvocationLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	d, err := lists.NewDomain(nil)
	require.NoError(t, err)
	board := lists.NewWorld(1, 2, 3)
	board.Pinned = &lists.Number{Value: 9}
	st, err := state.FromRoot(board, d)
	require.NoError(t, err)

	snapshot, err := st.DeepCopy()
	require.NoError(t, err)
	pinned, err := st.EntityID(board.Pinned)
	require.NoError(t, err)
	list, err := st.EntityID(board.List)
	require.NoError(t, err)

	c, ok := New(d, "list.moveToEnd", Entities(list), Entities(pinned))
	require.True(t, ok)
	res, err := c.Invoke(ctx, st)
	require.NoError(t, err)
	require.False(t, res.OK())
	require.True(t, res.Rejected)
	require.True(t, res.Invalid())
	require.Contains(t, res.Reason, "not in the list")
	require.True(t, st.GraphEquals(snapshot))

	empty, ok := New(d, "list.remove", Entities(list), Entities())
	require.True(t, ok)
	res, err = empty.Invoke(ctx, st)
	require.NoError(t, err)
	require.True(t, res.Invalid())
}

func TestRootOperations(t *testing.T) {
	ctx := context.Background()
	d, st := listState(t, 5, 6)
	ids := st.IDs()

	rename, ok := New(d, "board.rename", Primitive("scores"))
	require.True(t, ok)
	require.Empty(t, rename.Target())
	res, err := rename.Invoke(ctx, st)
	require.NoError(t, err)
	require.Equal(t, "scores", res.State.Root().(*lists.Board).Title)

	pin, ok := New(d, "board.pin", Entities(ids[3]))
	require.True(t, ok)
	res, err = pin.Invoke(ctx, st)
	require.NoError(t, err)
	next := res.State.Root().(*lists.Board)
	require.Same(t, next.List.Items[1], next.Pinned)
	require.Equal(t, 4, res.State.Len())

	appendCall, ok := New(d, "list.append", Entities(ids[1]), Primitive("7"))
	require.True(t, ok)
	res, err = appendCall.Invoke(ctx, st)
	require.NoError(t, err)
	require.Equal(t, []int{5, 6, 7}, values(t, res.State))
}

func TestConstructionRejection(t *testing.T) {
	d, st := listState(t, 1, 2)
	ids := st.IDs()
	list, one, two := ids[1], ids[2], ids[3]

	cases := map[string]struct {
		op   string
		args []Argument
	}{
		"unknown operation":        {"list.shuffle", []Argument{Entities(list)}},
		"missing invoking entity":  {"list.moveToEnd", []Argument{Entities(one)}},
		"too many arguments":       {"board.rename", []Argument{Primitive("a"), Primitive("b")}},
		"no arguments":             {"list.remove", nil},
		"primitive invoking":       {"list.moveToEnd", []Argument{Primitive(1), Entities(one)}},
		"two invoking ids":         {"list.moveToEnd", []Argument{Entities(list, one), Entities(two)}},
		"primitive for entity":     {"list.moveToEnd", []Argument{Entities(list), Primitive(1)}},
		"entity set for entity":    {"list.moveToEnd", []Argument{Entities(list), Entities(one, two)}},
		"no ids for entity":        {"list.moveToEnd", []Argument{Entities(list), Entities()}},
		"primitive for entity set": {"list.remove", []Argument{Entities(list), Primitive(1)}},
		"empty for entity set":     {"list.remove", []Argument{Entities(list), Empty()}},
		"empty for primitive":      {"board.rename", []Argument{Empty()}},
		"entity for primitive":     {"board.rename", []Argument{Entities(one)}},
		"two values for scalar":    {"list.append", []Argument{Entities(list), Primitive(1, 2)}},
		"not coercible":            {"list.append", []Argument{Entities(list), Primitive("many")}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.NotPanics(t, func() {
				c, ok := New(d, tc.op, tc.args...)
				require.False(t, ok)
				require.Nil(t, c)
			})
			require.Error(t, Check(d, tc.op, tc.args...))
		})
	}

	t.Run("nil domain", func(t *testing.T) {
		_, ok := New(nil, "list.remove")
		require.False(t, ok)
	})
}

func TestFatalErrors(t *testing.T) {
	ctx := context.Background()
	d, st := listState(t, 1, 2)
	_, other := listState(t, 1, 2)
	ids := st.IDs()

	t.Run("id from another state", func(t *testing.T) {
		c, ok := New(d, "list.moveToEnd", Entities(ids[1]), Entities(other.IDs()[2]))
		require.True(t, ok)
		_, err := c.Invoke(ctx, st)
		require.ErrorIs(t, err, state.ErrLookup)
	})

	t.Run("non-canonical id", func(t *testing.T) {
		token := st.Token()
		for _, id := range []string{token + "#+1", token + "#01"} {
			c, ok := New(d, "list.append", Entities(id), Primitive(3))
			require.True(t, ok)
			_, err := c.Invoke(ctx, st)
			require.ErrorIs(t, err, state.ErrLookup, id)
		}
	})

	t.Run("invoking entity of the wrong type", func(t *testing.T) {
		c, ok := New(d, "list.moveToEnd", Entities(ids[2]), Entities(ids[3]))
		require.True(t, ok)
		_, err := c.Invoke(ctx, st)
		require.ErrorIs(t, err, ErrArgumentShape)
	})

	t.Run("argument of the wrong type", func(t *testing.T) {
		c, ok := New(d, "list.moveToEnd", Entities(ids[1]), Entities(ids[0]))
		require.True(t, ok)
		_, err := c.Invoke(ctx, st)
		require.ErrorIs(t, err, ErrArgumentShape)
	})

	t.Run("cancelled context", func(t *testing.T) {
		c, ok := New(d, "board.rename", Primitive("x"))
		require.True(t, ok)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := c.Invoke(cctx, st)
		require.ErrorIs(t, err, context.Canceled)
	})
}

type gauge struct {
	entity.RootNode
	Level int
}

func (g *gauge) Raise(n int) { g.Level += n }

func (g *gauge) Explode() { panic("boom") }

func (g *gauge) Jam() error { return errors.New("jammed") }

func TestOtherFailuresAreRejections(t *testing.T) {
	ctx := context.Background()
	u := entity.NewUniverse()
	u.MustRegister(&gauge{})
	u.MustExpose("raise", (*gauge).Raise)
	u.MustExpose("explode", (*gauge).Explode)
	u.MustExpose("jam", (*gauge).Jam)
	d := entity.MustDomain("gauges", u, map[string]string{"gauge.raise": "up"})

	g := &gauge{Level: 1}
	st, err := state.FromRoot(g, d)
	require.NoError(t, err)

	for _, op := range []string{"gauge.explode", "gauge.jam"} {
		c, ok := New(d, op)
		require.True(t, ok)
		res, err := c.Invoke(ctx, st)
		require.NoError(t, err)
		require.True(t, res.Rejected)
		require.False(t, res.Invalid())
		require.NotEmpty(t, res.Reason)
	}
	require.Equal(t, 1, g.Level)

	up, ok := New(d, "up", Primitive(float64(2)))
	require.True(t, ok)
	require.Equal(t, "up(2)", up.String())
	res, err := up.Invoke(ctx, st)
	require.NoError(t, err)
	require.Equal(t, 3, res.State.Root().(*gauge).Level)
	require.Equal(t, 1, g.Level)
}

func TestDeterminism(t *testing.T) {
	ctx := context.Background()
	d, st := listState(t, 4, 3, 2, 1)
	ids := st.IDs()

	calls := []*MethodCall{}
	for _, spec := range [][]Argument{
		{Entities(ids[1]), Entities(ids[2], ids[4])},
		{Entities(ids[1]), Entities(ids[3])},
	} {
		op := "list.remove"
		if len(spec[1].IDs()) == 1 {
			op = "list.moveToBeginning"
		}
		c, ok := New(d, op, spec...)
		require.True(t, ok)
		calls = append(calls, c)
	}

	for _, c := range calls {
		a, err := st.DeepCopy()
		require.NoError(t, err)
		b, err := st.DeepCopy()
		require.NoError(t, err)

		// The call holds ids of st, so it runs against st; the copies only
		// check that equal worlds give equal results.
		first, err := c.Invoke(ctx, st)
		require.NoError(t, err)
		second, err := c.Invoke(ctx, st)
		require.NoError(t, err)
		require.Equal(t, first.OK(), second.OK())
		require.True(t, first.State.GraphEquals(second.State))

		require.True(t, a.GraphEquals(b))
		ca, ok := New(d, c.Operation().Key(), remap(t, st, a, c)...)
		require.True(t, ok)
		cb, ok := New(d, c.Operation().Key(), remap(t, st, b, c)...)
		require.True(t, ok)
		ra, err := ca.Invoke(ctx, a)
		require.NoError(t, err)
		rb, err := cb.Invoke(ctx, b)
		require.NoError(t, err)
		require.True(t, ra.State.GraphEquals(rb.State))
		require.True(t, ra.State.GraphEquals(first.State))
	}
}

// remap rewrites the ids of c, taken from src, into the ids at the same
// positions of dst.
func remap(t *testing.T, src, dst *state.State, c *MethodCall) []Argument {
	t.Helper()
	move := func(id string) string {
		ordinal, err := src.Ordinal(id)
		require.NoError(t, err)
		out, err := dst.IDAt(ordinal)
		require.NoError(t, err)
		return out
	}
	var args []Argument
	if c.Target() != "" {
		args = append(args, Entities(move(c.Target())))
	}
	for _, a := range c.Args() {
		if a.Kind() != ArgEntities {
			args = append(args, a)
			continue
		}
		var ids []string
		for _, id := range a.IDs() {
			ids = append(ids, move(id))
		}
		args = append(args, Entities(ids...))
	}
	return args
}

func TestString(t *testing.T) {
	d, err := lists.NewDomain(map[string]string{"List.remove": "rm"})
	require.NoError(t, err)
	st, err := state.FromRoot(lists.NewWorld(1, 2), d)
	require.NoError(t, err)
	ids := st.IDs()

	c, ok := New(d, "rm", Entities(ids[1]), Entities(ids[2], ids[3]))
	require.True(t, ok)
	want := "rm(" + ids[1] + ", {" + ids[2] + ", " + ids[3] + "})"
	require.Equal(t, want, c.String())

	r, ok := New(d, "board.rename", Primitive("a b"))
	require.True(t, ok)
	require.Equal(t, `board.rename("a b")`, r.String())
	require.True(t, strings.HasPrefix(Empty().String(), "-"))
}

func TestProbe(t *testing.T) {
	ctx := context.Background()
	d, st := listState(t, 1, 2, 3)
	ids := st.IDs()
	list, one, three := ids[1], ids[2], ids[4]

	mk := func(op string, args ...Argument) *MethodCall {
		c, ok := New(d, op, args...)
		require.True(t, ok)
		return c
	}
	calls := []*MethodCall{
		mk("list.moveToEnd", Entities(list), Entities(one)),
		mk("list.moveToBeginning", Entities(list), Entities(one)),
		mk("list.remove", Entities(list), Entities()),
		mk("list.moveToBeginning", Entities(list), Entities(three)),
		mk("list.moveToEnd", Entities(list), Entities(one)),
	}

	results, err := Probe(ctx, st, calls, ProbeOptions{Concurrency: 2, Dedupe: true})
	require.NoError(t, err)
	require.Len(t, results, len(calls))
	for i, r := range results {
		require.Same(t, calls[i], r.Call)
	}

	require.Equal(t, []int{2, 3, 1}, values(t, results[0].Result.State))
	require.True(t, results[1].Unchanged)
	require.True(t, results[2].Result.Rejected)
	require.False(t, results[3].Duplicate)
	require.True(t, results[4].Duplicate)
	require.Equal(t, results[0].Fingerprint, results[4].Fingerprint)

	t.Run("fatal errors abort", func(t *testing.T) {
		_, other := listState(t, 1)
		bad := mk("list.moveToEnd", Entities(list), Entities(other.IDs()[2]))
		_, err := Probe(ctx, st, []*MethodCall{calls[0], bad}, ProbeOptions{})
		require.ErrorIs(t, err, state.ErrLookup)
	})
}

func TestCandidates(t *testing.T) {
	ctx := context.Background()
	_, st := listState(t, 1, 2)

	all := Candidates(st, 0)
	require.NotEmpty(t, all)

	ops := map[string]int{}
	for _, c := range all {
		ops[c.Operation().Key()]++
		_, err := c.Invoke(ctx, st)
		require.NoError(t, err)
	}
	// Two numbers as targets of each single-entity list operation.
	require.Equal(t, 2, ops["List.moveToEnd"])
	require.Equal(t, 2, ops["List.moveToBeginning"])
	require.Equal(t, 2, ops["List.remove"])
	require.Equal(t, 2, ops["Board.pin"])
	// Primitive values drawn from the world: the title for rename and the
	// two ints for append.
	require.Equal(t, 1, ops["Board.rename"])
	require.Equal(t, 2, ops["List.append"])

	limited := Candidates(st, 3)
	require.Len(t, limited, 3)
	for i := range limited {
		require.Equal(t, all[i].String(), limited[i].String())
	}
}
