package kb

import (
	"fmt"

	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

// GraphKb is a set of triples. Adding a triple whose Key is already present
// has no effect; iteration follows first insertion.
type GraphKb struct {
	index   map[string]int
	triples []Triple
}

func New(triples ...Triple) *GraphKb {
	kb := &GraphKb{index: make(map[string]int, len(triples))}
	for _, t := range triples {
		kb.Add(t)
	}
	return kb
}

// Add inserts t and reports whether it was new.
func (kb *GraphKb) Add(t Triple) bool {
	key := t.Key()
	if _, ok := kb.index[key]; ok {
		return false
	}
	kb.index[key] = len(kb.triples)
	kb.triples = append(kb.triples, t)
	return true
}

func (kb *GraphKb) Contains(t Triple) bool {
	_, ok := kb.index[t.Key()]
	return ok
}

func (kb *GraphKb) Len() int {
	if kb == nil {
		return 0
	}
	return len(kb.triples)
}

// Triples returns the triples in insertion order.
func (kb *GraphKb) Triples() []Triple {
	return append([]Triple(nil), kb.triples...)
}

// Equal reports whether both sets hold the same triples, in any order.
func (kb *GraphKb) Equal(other *GraphKb) bool {
	if kb == nil || other == nil {
		return kb.Len() == 0 && other.Len() == 0
	}
	if kb.Len() != other.Len() {
		return false
	}
	for key := range kb.index {
		if _, ok := other.index[key]; !ok {
			return false
		}
	}
	return true
}

func (kb *GraphKb) Union(other *GraphKb) *GraphKb {
	out := New(kb.triples...)
	for _, t := range other.triples {
		out.Add(t)
	}
	return out
}

// Difference returns the triples of kb that are not in other.
func (kb *GraphKb) Difference(other *GraphKb) *GraphKb {
	out := New()
	for _, t := range kb.triples {
		if !other.Contains(t) {
			out.Add(t)
		}
	}
	return out
}

// WithRelation returns the triples of one relation, for instance
// "List.items", in insertion order.
func (kb *GraphKb) WithRelation(relation string) []Triple {
	var out []Triple
	for _, t := range kb.triples {
		if t.Relation.String() == relation {
			out = append(out, t)
		}
	}
	return out
}

// Subjects returns the distinct subjects in first-seen order.
func (kb *GraphKb) Subjects() []Term {
	return distinct(kb.triples, func(t Triple) Term { return t.Subject })
}

// Objects returns the distinct objects in first-seen order.
func (kb *GraphKb) Objects() []Term {
	return distinct(kb.triples, func(t Triple) Term { return t.Object })
}

func distinct(triples []Triple, pick func(Triple) Term) []Term {
	seen := make(map[string]struct{})
	var out []Term
	for _, t := range triples {
		term := pick(t)
		if _, ok := seen[term.Key()]; ok {
			continue
		}
		seen[term.Key()] = struct{}{}
		out = append(out, term)
	}
	return out
}

// Extract enumerates the triples of st. Every reachable entity contributes,
// for each relation member, one triple per value: one for a single-valued
// member, one per element of a sequence in sequence order. Nil references
// contribute nothing.
func Extract(st *state.State) (*GraphKb, error) {
	u := st.Universe()
	kb := New()

	entityTerm := func(e entity.Entity) (Term, error) {
		id, err := st.EntityID(e)
		if err != nil {
			return Term{}, err
		}
		ordinal, err := st.Ordinal(id)
		if err != nil {
			return Term{}, err
		}
		t, err := u.TypeOf(e)
		if err != nil {
			return Term{}, err
		}
		return EntityTerm(id, ordinal, t.Name), nil
	}

	for _, e := range st.Entities() {
		subject, err := entityTerm(e)
		if err != nil {
			return nil, fmt.Errorf("extracting triples: %w", err)
		}
		t, _ := u.TypeOf(e)
		for i := range t.Members {
			m := &t.Members[i]
			rel := Relation{Type: t.Name, Member: m.Name}
			switch m.Kind {
			case entity.KindPrimitive:
				kb.Add(Triple{subject, rel, PrimitiveTerm(m.Primitive(e))})
			case entity.KindPrimitiveSeq:
				for _, v := range m.Primitives(e) {
					kb.Add(Triple{subject, rel, PrimitiveTerm(v)})
				}
			case entity.KindEntity, entity.KindEntitySeq:
				var refs []entity.Entity
				if m.Kind == entity.KindEntity {
					refs = []entity.Entity{m.Entity(e)}
				} else {
					refs = m.Entities(e)
				}
				for _, ref := range refs {
					if entity.IsNil(ref) {
						continue
					}
					object, err := entityTerm(ref)
					if err != nil {
						return nil, fmt.Errorf("extracting triples: %w", err)
					}
					kb.Add(Triple{subject, rel, object})
				}
			}
		}
	}
	return kb, nil
}
