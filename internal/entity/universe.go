package entity

import (
	"fmt"
	"reflect"
	"strings"
)

// Type is the registered metadata of one entity type.
type Type struct {
	Name       string
	GoType     reflect.Type
	Root       bool
	Hints      []string
	Members    []Member
	Operations []*Operation

	memberIndex map[string]*Member
	opIndex     map[string]*Operation
}

// Member looks up a relation member by name, case-insensitively.
func (t *Type) Member(name string) (*Member, bool) {
	m, ok := t.memberIndex[strings.ToLower(name)]
	return m, ok
}

// Operation looks up an exposed operation by name, case-insensitively.
func (t *Type) Operation(name string) (*Operation, bool) {
	op, ok := t.opIndex[strings.ToLower(name)]
	return op, ok
}

type TypeOption func(*Type)

// TypeName overrides the name derived from the Go type.
func TypeName(name string) TypeOption {
	return func(t *Type) {
		t.Name = name
	}
}

// TypeHints attaches ordered hints to a type, most important first.
func TypeHints(hints ...string) TypeOption {
	return func(t *Type) {
		t.Hints = append(t.Hints, hints...)
	}
}

// Universe is the registry of entity types and their operations. It is
// populated once at startup and only read afterwards, so a populated
// Universe may be shared between goroutines.
type Universe struct {
	types   map[reflect.Type]*Type
	byName  map[string]*Type
	order   []*Type
	ops     map[string]*Operation
	opOrder []*Operation
	root    *Type
}

func NewUniverse() *Universe {
	return &Universe{
		types:  make(map[reflect.Type]*Type),
		byName: make(map[string]*Type),
		ops:    make(map[string]*Operation),
	}
}

// Register adds the type of proto, a pointer to a struct embedding Node or
// RootNode, and discovers its relation members.
func (u *Universe) Register(proto Entity, opts ...TypeOption) (*Type, error) {
	if IsNil(proto) {
		return nil, fmt.Errorf("registering type: prototype is nil")
	}
	goType := reflect.TypeOf(proto)
	if goType.Kind() != reflect.Pointer || goType.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("registering type: %s is not a pointer to a struct", goType)
	}
	if _, exists := u.types[goType]; exists {
		return nil, fmt.Errorf("registering type: %s already registered", goType)
	}

	members, err := discoverMembers(goType.Elem(), nil)
	if err != nil {
		return nil, fmt.Errorf("registering type %s: %w", goType, err)
	}

	t := &Type{
		Name:        goType.Elem().Name(),
		GoType:      goType,
		Root:        goType.Implements(rootInterface),
		Members:     members,
		memberIndex: make(map[string]*Member, len(members)),
		opIndex:     make(map[string]*Operation),
	}
	for _, opt := range opts {
		opt(t)
	}
	if strings.TrimSpace(t.Name) == "" {
		return nil, fmt.Errorf("registering type %s: name is required", goType)
	}
	key := strings.ToLower(t.Name)
	if _, exists := u.byName[key]; exists {
		return nil, fmt.Errorf("registering type %s: duplicate type name: %s", goType, t.Name)
	}
	if t.Root && u.root != nil {
		return nil, fmt.Errorf("registering type %s: root type %s already registered", goType, u.root.Name)
	}

	for i := range t.Members {
		m := &t.Members[i]
		name := strings.ToLower(m.Name)
		if _, exists := t.memberIndex[name]; exists {
			return nil, fmt.Errorf("registering type %s: duplicate member name: %s", goType, m.Name)
		}
		t.memberIndex[name] = m
	}

	u.types[goType] = t
	u.byName[key] = t
	u.order = append(u.order, t)
	if t.Root {
		u.root = t
	}
	return t, nil
}

// MustRegister is like Register but panics on error. It is meant for
// package-level domain setup.
func (u *Universe) MustRegister(proto Entity, opts ...TypeOption) *Type {
	t, err := u.Register(proto, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Expose registers method, a method expression such as (*List).Remove, as
// an invocable operation named name. The receiver type must already be
// registered. Parameters may be primitives, slices of primitives, entity
// references or slices of entity references; the only allowed result is an
// error.
func (u *Universe) Expose(name string, method any, opts ...OperationOption) (*Operation, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("exposing operation: name is required")
	}
	fn := reflect.ValueOf(method)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("exposing operation %s: expected a function, got %T", name, method)
	}
	fnType := fn.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("exposing operation %s: variadic functions are not supported", name)
	}
	if fnType.NumIn() == 0 {
		return nil, fmt.Errorf("exposing operation %s: function has no receiver parameter", name)
	}
	owner, ok := u.types[fnType.In(0)]
	if !ok {
		return nil, fmt.Errorf("exposing operation %s: %w: %s", name, ErrUnknownType, fnType.In(0))
	}
	if _, exists := owner.opIndex[strings.ToLower(name)]; exists {
		return nil, fmt.Errorf("exposing operation %s: already exposed on %s", name, owner.Name)
	}

	returnsErr := false
	switch fnType.NumOut() {
	case 0:
	case 1:
		if fnType.Out(0) != errorInterface {
			return nil, fmt.Errorf("exposing operation %s: result must be error, got %s", name, fnType.Out(0))
		}
		returnsErr = true
	default:
		return nil, fmt.Errorf("exposing operation %s: too many results", name)
	}

	params := make([]Param, 0, fnType.NumIn()-1)
	for i := 1; i < fnType.NumIn(); i++ {
		pt := fnType.In(i)
		kind, ok := paramKind(pt)
		if !ok {
			return nil, fmt.Errorf("exposing operation %s: parameter %d has unsupported type %s", name, i, pt)
		}
		params = append(params, Param{Kind: kind, GoType: pt})
	}

	op := &Operation{
		Type:       owner,
		Name:       name,
		Params:     params,
		fn:         fn,
		returnsErr: returnsErr,
	}
	for _, opt := range opts {
		opt(op)
	}

	owner.Operations = append(owner.Operations, op)
	owner.opIndex[strings.ToLower(name)] = op
	u.ops[strings.ToLower(op.Key())] = op
	u.opOrder = append(u.opOrder, op)
	return op, nil
}

// MustExpose is like Expose but panics on error.
func (u *Universe) MustExpose(name string, method any, opts ...OperationOption) *Operation {
	op, err := u.Expose(name, method, opts...)
	if err != nil {
		panic(err)
	}
	return op
}

// TypeOf returns the registered type of e.
func (u *Universe) TypeOf(e Entity) (*Type, error) {
	if IsNil(e) {
		return nil, fmt.Errorf("%w: nil entity", ErrUnknownType)
	}
	t, ok := u.types[reflect.TypeOf(e)]
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrUnknownType, e)
	}
	return t, nil
}

// TypeByName looks up a type by name, case-insensitively.
func (u *Universe) TypeByName(name string) (*Type, bool) {
	t, ok := u.byName[strings.ToLower(name)]
	return t, ok
}

// Types returns the registered types in registration order.
func (u *Universe) Types() []*Type {
	return append([]*Type(nil), u.order...)
}

// RootType returns the registered root type, or nil.
func (u *Universe) RootType() *Type {
	return u.root
}

// Operation looks up an operation by key ("<Type>.<name>"), case-insensitively.
func (u *Universe) Operation(key string) (*Operation, bool) {
	op, ok := u.ops[strings.ToLower(key)]
	return op, ok
}

// Operations returns every exposed operation in exposure order.
func (u *Universe) Operations() []*Operation {
	return append([]*Operation(nil), u.opOrder...)
}
