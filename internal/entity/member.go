package entity

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// MemberKind classifies the declared type of a relation member.
type MemberKind int

const (
	KindPrimitive MemberKind = iota + 1
	KindEntity
	KindPrimitiveSeq
	KindEntitySeq
)

func (k MemberKind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindEntity:
		return "entity"
	case KindPrimitiveSeq:
		return "primitive-seq"
	case KindEntitySeq:
		return "entity-seq"
	default:
		return fmt.Sprintf("MemberKind(%d)", int(k))
	}
}

func (k MemberKind) IsSequence() bool {
	return k == KindPrimitiveSeq || k == KindEntitySeq
}

func (k MemberKind) HoldsEntities() bool {
	return k == KindEntity || k == KindEntitySeq
}

// Member is a relation member of an entity type: a named field holding a
// primitive, an entity reference, or an ordered sequence of either.
type Member struct {
	Name   string
	Kind   MemberKind
	Hints  []string
	Field  string
	GoType reflect.Type

	index []int
}

// Field values of e are reached through the cached field index, so e must be
// a pointer to the member's declaring struct.
func (m *Member) value(e Entity) reflect.Value {
	return reflect.ValueOf(e).Elem().FieldByIndex(m.index)
}

// Primitive returns the value of a primitive member.
func (m *Member) Primitive(e Entity) any {
	return m.value(e).Interface()
}

// Primitives returns the elements of a primitive sequence member in order.
func (m *Member) Primitives(e Entity) []any {
	v := m.value(e)
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out
}

// Entity returns the entity referenced by an entity member, or nil.
func (m *Member) Entity(e Entity) Entity {
	return asEntity(m.value(e))
}

// Entities returns the entities of an entity sequence member in order.
// Nil elements are kept as nil.
func (m *Member) Entities(e Entity) []Entity {
	v := m.value(e)
	out := make([]Entity, v.Len())
	for i := range out {
		out[i] = asEntity(v.Index(i))
	}
	return out
}

// IsNilSeq reports whether a sequence member holds a nil slice.
func (m *Member) IsNilSeq(e Entity) bool {
	return m.value(e).IsNil()
}

// SetEntity stores ref in an entity member. A nil ref clears the member.
func (m *Member) SetEntity(e Entity, ref Entity) {
	field := m.value(e)
	if IsNil(ref) {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	field.Set(reflect.ValueOf(ref))
}

// SetEntities replaces the elements of an entity sequence member. A nil refs
// slice stores a nil slice.
func (m *Member) SetEntities(e Entity, refs []Entity) {
	field := m.value(e)
	if refs == nil {
		field.Set(reflect.Zero(field.Type()))
		return
	}
	seq := reflect.MakeSlice(field.Type(), len(refs), len(refs))
	for i, ref := range refs {
		if IsNil(ref) {
			continue
		}
		seq.Index(i).Set(reflect.ValueOf(ref))
	}
	field.Set(seq)
}

// ClonePrimitives gives e its own copy of a primitive sequence so that
// mutations through one graph never show through another.
func (m *Member) ClonePrimitives(e Entity) {
	field := m.value(e)
	if field.IsNil() {
		return
	}
	seq := reflect.MakeSlice(field.Type(), field.Len(), field.Len())
	reflect.Copy(seq, field)
	field.Set(seq)
}

func asEntity(v reflect.Value) Entity {
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
	}
	ent, _ := v.Interface().(Entity)
	return ent
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
)

// IsPrimitiveType reports whether values of t are primitive: booleans,
// numbers, strings, temporal values and enumerated values declared as named
// types of those kinds.
func IsPrimitiveType(t reflect.Type) bool {
	if t == timeType || t == durationType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func classify(t reflect.Type) (MemberKind, bool) {
	switch {
	case IsPrimitiveType(t):
		return KindPrimitive, true
	case isEntityRef(t):
		return KindEntity, true
	case t.Kind() == reflect.Slice && IsPrimitiveType(t.Elem()):
		return KindPrimitiveSeq, true
	case t.Kind() == reflect.Slice && isEntityRef(t.Elem()):
		return KindEntitySeq, true
	default:
		return 0, false
	}
}

func discoverMembers(t reflect.Type, prefix []int) ([]Member, error) {
	var members []Member
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if field.Anonymous {
			if field.Type == nodeType || field.Type == rootNodeType {
				continue
			}
			if field.Type.Kind() == reflect.Struct && field.IsExported() {
				embedded, err := discoverMembers(field.Type, index)
				if err != nil {
					return nil, err
				}
				members = append(members, embedded...)
				continue
			}
		}
		if !field.IsExported() {
			continue
		}

		tag := field.Tag.Get("world")
		if tag == "-" {
			continue
		}
		kind, ok := classify(field.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s has type %s", ErrUnsupportedMember, t.Name(), field.Name, field.Type)
		}

		name := field.Name
		if tag != "" {
			name = tag
		}
		members = append(members, Member{
			Name:   name,
			Kind:   kind,
			Hints:  splitHints(field.Tag.Get("hints")),
			Field:  field.Name,
			GoType: field.Type,
			index:  index,
		})
	}
	return members, nil
}

func splitHints(tag string) []string {
	if strings.TrimSpace(tag) == "" {
		return nil
	}
	var hints []string
	for _, part := range strings.Split(tag, ",") {
		if hint := strings.TrimSpace(part); hint != "" {
			hints = append(hints, hint)
		}
	}
	return hints
}
