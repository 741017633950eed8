// Package entity defines how domain records take part in a world graph and
// how their operations are exposed for invocation by name.
//
// A record becomes an entity by embedding Node, or RootNode for the single
// root of a world. Types and operations are registered once on a Universe,
// which discovers relation members with reflection at registration time and
// keeps the resulting metadata for every later traversal, copy and call.
package entity

import "reflect"

// Entity is a node of a world graph.
type Entity interface {
	worldEntity()
}

// Root is the entity every other entity of a world is reachable from.
type Root interface {
	Entity
	worldRoot()
}

// Node marks a struct as a non-root entity when embedded.
type Node struct{}

func (Node) worldEntity() {}

// RootNode marks a struct as the root entity when embedded.
type RootNode struct{ Node }

func (RootNode) worldRoot() {}

// Hinted is implemented by enumerated values that carry their own hints,
// ordered from most to least important.
type Hinted interface {
	Hints() []string
}

var (
	entityInterface = reflect.TypeOf((*Entity)(nil)).Elem()
	rootInterface   = reflect.TypeOf((*Root)(nil)).Elem()
	nodeType        = reflect.TypeOf(Node{})
	rootNodeType    = reflect.TypeOf(RootNode{})
)

// IsNil reports whether e is nil or a typed nil pointer.
func IsNil(e Entity) bool {
	if e == nil {
		return true
	}
	v := reflect.ValueOf(e)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// HintsOf returns the hints of an enumerated value, or nil.
func HintsOf(value any) []string {
	if h, ok := value.(Hinted); ok {
		return h.Hints()
	}
	return nil
}

func isEntityRef(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer:
		return t.Elem().Kind() == reflect.Struct && t.Implements(entityInterface)
	case reflect.Interface:
		return t.Implements(entityInterface)
	default:
		return false
	}
}
