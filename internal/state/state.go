// Package state pairs a world graph with a bijection between its entities and
// textual ids.
//
// Ids have the form "<token>#<ordinal>": the token is fresh for every State,
// so ids of two states never collide, and the ordinal is the entity's
// pre-order position, so states built from graph-equal worlds assign ids with
// the same structure.
package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"worldgraph/internal/entity"
	"worldgraph/internal/graph"
)

// ErrLookup is returned when an entity or id is not part of a state. It
// signals a programming error in the caller, not an invalid operation.
var ErrLookup = errors.New("entity lookup failed")

// State is a world graph together with its id assignment. The assignment is
// fixed when the State is built; mutate a DeepCopy and build a new State from
// it rather than mutating the graph of a State in place.
type State struct {
	domain *entity.Domain
	root   entity.Root
	token  string
	ids    map[entity.Entity]string
	byID   map[string]entity.Entity
	order  []entity.Entity
}

// FromRoot assigns a fresh id to every entity reachable from root.
func FromRoot(root entity.Root, d *entity.Domain) (*State, error) {
	if d == nil {
		return nil, fmt.Errorf("building state: domain is required")
	}
	if entity.IsNil(root) {
		return nil, fmt.Errorf("building state: root is nil")
	}
	u := d.Universe()
	t, err := u.TypeOf(root)
	if err != nil {
		return nil, fmt.Errorf("building state: %w", err)
	}
	if !t.Root {
		return nil, fmt.Errorf("building state: %s is not a root type", t.Name)
	}

	reachable, err := graph.Reachable(u, root)
	if err != nil {
		return nil, fmt.Errorf("building state: %w", err)
	}

	s := &State{
		domain: d,
		root:   root,
		token:  uuid.NewString(),
		ids:    make(map[entity.Entity]string, len(reachable)),
		byID:   make(map[string]entity.Entity, len(reachable)),
		order:  reachable,
	}
	for i, e := range reachable {
		id := s.token + "#" + strconv.Itoa(i)
		s.ids[e] = id
		s.byID[id] = e
	}
	return s, nil
}

// DeepCopy clones the graph and builds a new State over the clone. Entity i
// of the copy, in pre-order, is the clone of entity i of s.
func (s *State) DeepCopy() (*State, error) {
	clone, _, err := graph.Copy(s.domain.Universe(), s.root)
	if err != nil {
		return nil, fmt.Errorf("copying state: %w", err)
	}
	return FromRoot(clone.(entity.Root), s.domain)
}

func (s *State) Domain() *entity.Domain {
	return s.domain
}

func (s *State) Universe() *entity.Universe {
	return s.domain.Universe()
}

func (s *State) Root() entity.Root {
	return s.root
}

// Token is the prefix shared by every id of s.
func (s *State) Token() string {
	return s.token
}

// Len is the number of entities with an id.
func (s *State) Len() int {
	return len(s.order)
}

// EntityID returns the id of e.
func (s *State) EntityID(e entity.Entity) (string, error) {
	if id, ok := s.ids[e]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%w: %T is not part of state %s", ErrLookup, e, s.token)
}

// EntityByID returns the entity with the given id.
func (s *State) EntityByID(id string) (entity.Entity, error) {
	if e, ok := s.byID[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: no entity %q in state %s", ErrLookup, id, s.token)
}

// EntityAt returns the entity at a pre-order position.
func (s *State) EntityAt(ordinal int) (entity.Entity, error) {
	if ordinal < 0 || ordinal >= len(s.order) {
		return nil, fmt.Errorf("%w: ordinal %d out of range [0,%d)", ErrLookup, ordinal, len(s.order))
	}
	return s.order[ordinal], nil
}

// IDAt returns the id of the entity at a pre-order position.
func (s *State) IDAt(ordinal int) (string, error) {
	e, err := s.EntityAt(ordinal)
	if err != nil {
		return "", err
	}
	return s.ids[e], nil
}

// Ordinal returns the pre-order position encoded in id, which must belong to
// s.
func (s *State) Ordinal(id string) (int, error) {
	token, ordinal, err := ParseID(id)
	if err != nil {
		return 0, err
	}
	if _, ok := s.byID[id]; !ok || token != s.token || ordinal >= len(s.order) {
		return 0, fmt.Errorf("%w: no entity %q in state %s", ErrLookup, id, s.token)
	}
	return ordinal, nil
}

// ParseID splits an id into its state token and ordinal.
func ParseID(id string) (string, int, error) {
	i := strings.LastIndexByte(id, '#')
	if i <= 0 {
		return "", 0, fmt.Errorf("%w: malformed id %q", ErrLookup, id)
	}
	ordinal, err := strconv.Atoi(id[i+1:])
	if err != nil || ordinal < 0 {
		return "", 0, fmt.Errorf("%w: malformed id %q", ErrLookup, id)
	}
	return id[:i], ordinal, nil
}

// IDs returns every id in pre-order.
func (s *State) IDs() []string {
	out := make([]string, len(s.order))
	for i, e := range s.order {
		out[i] = s.ids[e]
	}
	return out
}

// Entities returns every entity in pre-order.
func (s *State) Entities() []entity.Entity {
	return append([]entity.Entity(nil), s.order...)
}

// GraphEquals reports whether s and other hold graph-equal worlds, whatever
// ids they assign. Graphs holding unregistered entities are never equal.
func (s *State) GraphEquals(other *State) bool {
	if other == nil {
		return false
	}
	equal, err := graph.Equal(s.domain.Universe(), s.root, other.root)
	return err == nil && equal
}

// Fingerprint is the graph fingerprint of the world. States that are
// GraphEquals share it.
func (s *State) Fingerprint() (string, error) {
	return graph.Fingerprint(s.domain.Universe(), s.root)
}

// Dump renders the world labelled with the ids of s.
func (s *State) Dump() (string, error) {
	return graph.DumpLabeled(s.domain.Universe(), s.root, func(_ int, e entity.Entity) string {
		return s.ids[e]
	})
}

// ShortDump renders the world labelled with "#<ordinal>", leaving out the
// state token.
func (s *State) ShortDump() (string, error) {
	return graph.Dump(s.domain.Universe(), s.root)
}
