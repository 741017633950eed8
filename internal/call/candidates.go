package call

import (
	"reflect"

	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

// Candidates enumerates well-formed calls against st: every operation, on
// every entity of its type, with entity parameters drawn from the entities of
// st (entity sets as singletons) and primitive parameters drawn from the
// primitive member values found in st. Sequence-typed primitive parameters
// are skipped. Enumeration is deterministic and stops after limit calls when
// limit is positive.
func Candidates(st *state.State, limit int) []*MethodCall {
	d := st.Domain()
	u := d.Universe()
	entities := st.Entities()
	ids := st.IDs()
	primitives := primitivesOf(u, entities)

	var out []*MethodCall
	full := func() bool { return limit > 0 && len(out) >= limit }

	for _, op := range u.Operations() {
		if full() {
			break
		}
		choices := make([][]Argument, 0, len(op.Params)+1)
		if !op.OnRoot() {
			var targets []Argument
			for i, e := range entities {
				if reflect.TypeOf(e) == op.Type.GoType {
					targets = append(targets, Entities(ids[i]))
				}
			}
			choices = append(choices, targets)
		}
		for _, p := range op.Params {
			choices = append(choices, paramChoices(p, entities, ids, primitives))
		}

		product(choices, func(args []Argument) bool {
			if c, ok := New(d, op.Key(), args...); ok {
				out = append(out, c)
			}
			return !full()
		})
	}
	return out
}

func paramChoices(p entity.Param, entities []entity.Entity, ids []string, primitives []any) []Argument {
	var out []Argument
	switch p.Kind {
	case entity.ParamPrimitive:
		if !p.Scalar() {
			return nil
		}
		for _, v := range primitives {
			if reflect.TypeOf(v) == p.GoType {
				out = append(out, Primitive(v))
			}
		}
	case entity.ParamEntity, entity.ParamEntitySet:
		want := p.GoType
		if p.Kind == entity.ParamEntitySet {
			want = want.Elem()
		}
		for i, e := range entities {
			if reflect.TypeOf(e).AssignableTo(want) {
				out = append(out, Entities(ids[i]))
			}
		}
	}
	return out
}

// primitivesOf collects the distinct scalar primitive member values of
// entities in first-seen order.
func primitivesOf(u *entity.Universe, entities []entity.Entity) []any {
	var out []any
	seen := make(map[any]struct{})
	for _, e := range entities {
		t, err := u.TypeOf(e)
		if err != nil {
			continue
		}
		for i := range t.Members {
			m := &t.Members[i]
			if m.Kind != entity.KindPrimitive {
				continue
			}
			v := m.Primitive(e)
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// product calls fn with every combination of choices in lexicographic order
// until fn returns false.
func product(choices [][]Argument, fn func([]Argument) bool) {
	args := make([]Argument, len(choices))
	var rec func(i int) bool
	rec = func(i int) bool {
		if i == len(choices) {
			return fn(append([]Argument(nil), args...))
		}
		for _, a := range choices[i] {
			args[i] = a
			if !rec(i + 1) {
				return false
			}
		}
		return true
	}
	rec(0)
}
