// Package graph implements the whole-graph algorithms over entity graphs:
// traversal, deep copy, structural equality and a canonical rendering.
//
// Every algorithm follows relation members in declaration order and sequence
// elements in sequence order, and guards against revisiting an entity, so
// shared sub-graphs and cycles are handled uniformly.
package graph

import (
	"errors"
	"fmt"

	"worldgraph/internal/entity"
)

// SkipMembers can be returned by a WalkFunc to visit an entity without
// descending into its members.
var SkipMembers = errors.New("skip members")

type WalkFunc func(e entity.Entity, t *entity.Type) error

// Walk calls fn for every entity reachable from root in pre-order. Each
// entity is visited once no matter how many references lead to it.
func Walk(u *entity.Universe, root entity.Entity, fn WalkFunc) error {
	if entity.IsNil(root) {
		return fmt.Errorf("walking graph: root is nil")
	}
	visited := make(map[entity.Entity]struct{})

	var visit func(e entity.Entity) error
	visit = func(e entity.Entity) error {
		if entity.IsNil(e) {
			return nil
		}
		if _, seen := visited[e]; seen {
			return nil
		}
		visited[e] = struct{}{}

		t, err := u.TypeOf(e)
		if err != nil {
			return err
		}
		if err := fn(e, t); err != nil {
			if errors.Is(err, SkipMembers) {
				return nil
			}
			return err
		}

		for i := range t.Members {
			m := &t.Members[i]
			switch m.Kind {
			case entity.KindEntity:
				if err := visit(m.Entity(e)); err != nil {
					return err
				}
			case entity.KindEntitySeq:
				for _, ref := range m.Entities(e) {
					if err := visit(ref); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	return visit(root)
}

// Reachable returns every entity reachable from root in pre-order.
func Reachable(u *entity.Universe, root entity.Entity) ([]entity.Entity, error) {
	var out []entity.Entity
	err := Walk(u, root, func(e entity.Entity, _ *entity.Type) error {
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
