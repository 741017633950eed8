package call

import (
	"fmt"
	"strings"

	"worldgraph/internal/graph"
)

// ArgKind tags an Argument.
type ArgKind int

const (
	ArgEmpty ArgKind = iota
	ArgPrimitive
	ArgEntities
)

func (k ArgKind) String() string {
	switch k {
	case ArgEmpty:
		return "empty"
	case ArgPrimitive:
		return "primitive"
	case ArgEntities:
		return "entities"
	default:
		return fmt.Sprintf("ArgKind(%d)", int(k))
	}
}

// Argument is one externally supplied argument of a call: primitive values,
// entity ids, or nothing. The zero Argument is empty.
type Argument struct {
	kind   ArgKind
	values []any
	ids    []string
}

// Primitive returns an argument holding zero or more primitive values.
func Primitive(values ...any) Argument {
	return Argument{kind: ArgPrimitive, values: append([]any(nil), values...)}
}

// Entities returns an argument holding zero or more entity ids.
func Entities(ids ...string) Argument {
	return Argument{kind: ArgEntities, ids: append([]string(nil), ids...)}
}

func Empty() Argument {
	return Argument{}
}

func (a Argument) Kind() ArgKind {
	return a.kind
}

// Values returns a copy of the primitive values.
func (a Argument) Values() []any {
	return append([]any(nil), a.values...)
}

// IDs returns a copy of the entity ids.
func (a Argument) IDs() []string {
	return append([]string(nil), a.ids...)
}

func (a Argument) String() string {
	switch a.kind {
	case ArgPrimitive:
		parts := make([]string, len(a.values))
		for i, v := range a.values {
			parts[i] = graph.FormatPrimitive(v)
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ArgEntities:
		if len(a.ids) == 1 {
			return a.ids[0]
		}
		return "{" + strings.Join(a.ids, ", ") + "}"
	default:
		return "-"
	}
}
