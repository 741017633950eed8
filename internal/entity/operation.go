package entity

import (
	"fmt"
	"reflect"
)

// ParamKind classifies an operation parameter.
type ParamKind int

const (
	ParamPrimitive ParamKind = iota + 1
	ParamEntity
	ParamEntitySet
)

func (k ParamKind) String() string {
	switch k {
	case ParamPrimitive:
		return "primitive"
	case ParamEntity:
		return "entity"
	case ParamEntitySet:
		return "entity-set"
	default:
		return fmt.Sprintf("ParamKind(%d)", int(k))
	}
}

type Param struct {
	Kind   ParamKind
	GoType reflect.Type
}

// Scalar reports whether a primitive parameter takes exactly one value.
func (p Param) Scalar() bool {
	return p.Kind == ParamPrimitive && p.GoType.Kind() != reflect.Slice
}

// PrimitiveValue coerces externally supplied values into the parameter's Go
// type. Scalar parameters require exactly one value.
func (p Param) PrimitiveValue(values []any) (reflect.Value, error) {
	if p.Kind != ParamPrimitive {
		return reflect.Value{}, fmt.Errorf("%w: %s parameter given primitive values", ErrNotCoercible, p.Kind)
	}
	if p.Scalar() {
		if len(values) != 1 {
			return reflect.Value{}, fmt.Errorf("%w: %s parameter needs one value, got %d", ErrNotCoercible, p.GoType, len(values))
		}
		return Coerce(values[0], p.GoType)
	}
	seq := reflect.MakeSlice(p.GoType, len(values), len(values))
	for i, raw := range values {
		v, err := Coerce(raw, p.GoType.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		seq.Index(i).Set(v)
	}
	return seq, nil
}

// EntityValue checks that ref fits a single-entity parameter.
func (p Param) EntityValue(ref Entity) (reflect.Value, error) {
	if p.Kind != ParamEntity {
		return reflect.Value{}, fmt.Errorf("%w: %s parameter given an entity", ErrNotCoercible, p.Kind)
	}
	return assignable(ref, p.GoType)
}

// EntitySetValue builds the slice passed to an entity-set parameter,
// keeping the order of refs.
func (p Param) EntitySetValue(refs []Entity) (reflect.Value, error) {
	if p.Kind != ParamEntitySet {
		return reflect.Value{}, fmt.Errorf("%w: %s parameter given an entity set", ErrNotCoercible, p.Kind)
	}
	seq := reflect.MakeSlice(p.GoType, len(refs), len(refs))
	for i, ref := range refs {
		v, err := assignable(ref, p.GoType.Elem())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		seq.Index(i).Set(v)
	}
	return seq, nil
}

func assignable(ref Entity, t reflect.Type) (reflect.Value, error) {
	if IsNil(ref) {
		return reflect.Value{}, fmt.Errorf("%w: nil entity for %s", ErrNotCoercible, t)
	}
	v := reflect.ValueOf(ref)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrNotCoercible, v.Type(), t)
	}
	return v, nil
}

// Operation is an exposed, invocable operation of an entity type.
type Operation struct {
	Type   *Type
	Name   string
	Params []Param
	Hints  []string

	fn         reflect.Value
	returnsErr bool
}

// Key identifies the operation within its universe as "<Type>.<name>".
func (o *Operation) Key() string {
	return o.Type.Name + "." + o.Name
}

func (o *Operation) String() string {
	return o.Key()
}

// OnRoot reports whether the operation is declared on the root type, in
// which case the invoking entity is implicitly the root.
func (o *Operation) OnRoot() bool {
	return o.Type.Root
}

// Call runs the operation body on target. args must already match Params.
func (o *Operation) Call(target Entity, args []reflect.Value) error {
	in := make([]reflect.Value, 0, len(args)+1)
	in = append(in, reflect.ValueOf(target))
	in = append(in, args...)
	out := o.fn.Call(in)
	if o.returnsErr && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

type OperationOption func(*Operation)

// OpHints attaches ordered hints to an operation, most important first.
func OpHints(hints ...string) OperationOption {
	return func(o *Operation) {
		o.Hints = append(o.Hints, hints...)
	}
}

var errorInterface = reflect.TypeOf((*error)(nil)).Elem()

func paramKind(t reflect.Type) (ParamKind, bool) {
	switch {
	case IsPrimitiveType(t):
		return ParamPrimitive, true
	case isEntityRef(t):
		return ParamEntity, true
	case t.Kind() == reflect.Slice && IsPrimitiveType(t.Elem()):
		return ParamPrimitive, true
	case t.Kind() == reflect.Slice && isEntityRef(t.Elem()):
		return ParamEntitySet, true
	default:
		return 0, false
	}
}
