// Package kb derives knowledge triples from a state and answers queries over
// them.
//
// A triple states that an entity relates to a value or another entity
// through one relation member. Triples are a recomputable view of a State and
// are never persisted. Their identity uses the pre-order position of entities
// rather than object identity or state ids, so triples drawn from graph-equal
// states, a state and its deep copy in particular, are the same triples.
package kb

import (
	"fmt"
	"reflect"
	"strconv"

	"worldgraph/internal/graph"
)

type TermKind int

const (
	TermEntity TermKind = iota + 1
	TermPrimitive
)

// Term is the subject or object of a triple: an entity of the owning state or
// a primitive value.
type Term struct {
	Kind TermKind
	// ID, Ordinal and Type describe entity terms.
	ID      string
	Ordinal int
	Type    string
	// Value holds primitive terms.
	Value any
}

// EntityTerm returns the term for the entity with the given id, pre-order
// position and type name.
func EntityTerm(id string, ordinal int, typeName string) Term {
	return Term{Kind: TermEntity, ID: id, Ordinal: ordinal, Type: typeName}
}

func PrimitiveTerm(v any) Term {
	return Term{Kind: TermPrimitive, Value: v}
}

func (t Term) IsEntity() bool {
	return t.Kind == TermEntity
}

// Key identifies the term independently of the state it came from.
func (t Term) Key() string {
	if t.IsEntity() {
		return "@" + strconv.Itoa(t.Ordinal)
	}
	return fmt.Sprintf("%s:%s", reflect.TypeOf(t.Value), graph.FormatPrimitive(t.Value))
}

func (t Term) String() string {
	if t.IsEntity() {
		return t.ID
	}
	return graph.FormatPrimitive(t.Value)
}

// Relation names a relation member of an entity type.
type Relation struct {
	Type   string
	Member string
}

func (r Relation) String() string {
	return r.Type + "." + r.Member
}

type Triple struct {
	Subject  Term
	Relation Relation
	Object   Term
}

// Key is the identity of the triple used for set membership.
func (t Triple) Key() string {
	return t.Subject.Key() + " " + t.Relation.String() + " " + t.Object.Key()
}

func (t Triple) String() string {
	return "(" + t.Subject.String() + ", " + t.Relation.String() + ", " + t.Object.String() + ")"
}
