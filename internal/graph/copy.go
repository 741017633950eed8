package graph

import (
	"fmt"
	"reflect"

	"worldgraph/internal/entity"
)

// Copy deep-copies the graph reachable from root. Every reachable entity is
// cloned exactly once, so an entity referenced from several places, or more
// than once inside one sequence, is shared the same way in the copy, and
// cycles terminate. Primitive sequences are copied; unexported fields are
// copied shallowly.
//
// The returned map sends each original entity to its clone.
func Copy(u *entity.Universe, root entity.Entity) (entity.Entity, map[entity.Entity]entity.Entity, error) {
	if entity.IsNil(root) {
		return nil, nil, fmt.Errorf("copying graph: root is nil")
	}
	clones := make(map[entity.Entity]entity.Entity)

	var clone func(e entity.Entity) (entity.Entity, error)
	clone = func(e entity.Entity) (entity.Entity, error) {
		if entity.IsNil(e) {
			return nil, nil
		}
		if c, ok := clones[e]; ok {
			return c, nil
		}
		t, err := u.TypeOf(e)
		if err != nil {
			return nil, fmt.Errorf("copying graph: %w", err)
		}

		cv := reflect.New(t.GoType.Elem())
		cv.Elem().Set(reflect.ValueOf(e).Elem())
		c := cv.Interface().(entity.Entity)
		clones[e] = c

		for i := range t.Members {
			m := &t.Members[i]
			switch m.Kind {
			case entity.KindPrimitiveSeq:
				m.ClonePrimitives(c)
			case entity.KindEntity:
				ref, err := clone(m.Entity(e))
				if err != nil {
					return nil, err
				}
				m.SetEntity(c, ref)
			case entity.KindEntitySeq:
				if m.IsNilSeq(e) {
					continue
				}
				refs := m.Entities(e)
				copied := make([]entity.Entity, len(refs))
				for j, ref := range refs {
					if copied[j], err = clone(ref); err != nil {
						return nil, err
					}
				}
				m.SetEntities(c, copied)
			}
		}
		return c, nil
	}

	c, err := clone(root)
	if err != nil {
		return nil, nil, err
	}
	return c, clones, nil
}
