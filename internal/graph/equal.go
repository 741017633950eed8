package graph

import (
	"math"
	"reflect"
	"time"

	"worldgraph/internal/entity"
)

// Equal reports whether the graphs rooted at a and b describe the same world.
//
// Entities are compared member by member: primitives by value, sequences
// element by element in order, and entity references by comparing the
// referenced entities in turn, never by identity. The entities of a are
// paired with the entities of b as the comparison proceeds and each pairing
// must stay one-to-one, so the way entities are shared or form cycles is part
// of the world. Two graphs are equal exactly when their canonical dumps are.
func Equal(u *entity.Universe, a, b entity.Entity) (bool, error) {
	c := &comparer{
		u:       u,
		forward: make(map[entity.Entity]entity.Entity),
		reverse: make(map[entity.Entity]entity.Entity),
	}
	return c.entities(a, b)
}

type comparer struct {
	u       *entity.Universe
	forward map[entity.Entity]entity.Entity
	reverse map[entity.Entity]entity.Entity
}

func (c *comparer) entities(a, b entity.Entity) (bool, error) {
	aNil, bNil := entity.IsNil(a), entity.IsNil(b)
	if aNil || bNil {
		return aNil == bNil, nil
	}
	if paired, ok := c.forward[a]; ok {
		return paired == b, nil
	}
	if _, ok := c.reverse[b]; ok {
		return false, nil
	}

	ta, err := c.u.TypeOf(a)
	if err != nil {
		return false, err
	}
	tb, err := c.u.TypeOf(b)
	if err != nil {
		return false, err
	}
	if ta != tb {
		return false, nil
	}
	c.forward[a] = b
	c.reverse[b] = a

	for i := range ta.Members {
		m := &ta.Members[i]
		var same bool
		switch m.Kind {
		case entity.KindPrimitive:
			same = primitivesEqual(m.Primitive(a), m.Primitive(b))
		case entity.KindPrimitiveSeq:
			same = primitiveSeqsEqual(m.Primitives(a), m.Primitives(b))
		case entity.KindEntity:
			if same, err = c.entities(m.Entity(a), m.Entity(b)); err != nil {
				return false, err
			}
		case entity.KindEntitySeq:
			if same, err = c.entitySeqs(m.Entities(a), m.Entities(b)); err != nil {
				return false, err
			}
		}
		if !same {
			return false, nil
		}
	}
	return true, nil
}

func (c *comparer) entitySeqs(a, b []entity.Entity) (bool, error) {
	if len(a) != len(b) {
		return false, nil
	}
	for i := range a {
		same, err := c.entities(a[i], b[i])
		if err != nil || !same {
			return false, err
		}
	}
	return true, nil
}

func primitivesEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	if a == b {
		return true
	}
	// NaN never compares equal to itself but dumps identically.
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(va.Float()) && math.IsNaN(vb.Float())
	}
	return false
}

func primitiveSeqsEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !primitivesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
