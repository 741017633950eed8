// Package call builds and runs validated invocations of exposed operations.
//
// A MethodCall names an operation and carries externally supplied arguments.
// It is only ever built by New, which checks arity and argument kinds against
// the operation's parameters and reports a mismatch as "no call" instead of an
// error. Invoking a call never touches the state it is given: the state is
// deep-copied and the copy is mutated.
package call

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"worldgraph/internal/entity"
)

// ErrArgumentShape is returned by Invoke when a resolved argument does not fit
// its parameter. New rules out every shape it can check without a state, so
// this indicates ids from an unrelated world.
var ErrArgumentShape = errors.New("argument shape mismatch")

// MethodCall is an immutable, validated call of one operation.
type MethodCall struct {
	domain *entity.Domain
	op     *entity.Operation
	target string
	args   []Argument
}

// New resolves opKey, a short id of d or an operation key, and validates args
// against the operation. For operations of the root type args holds one
// argument per parameter. For every other operation the first argument holds
// the id of the entity to invoke on.
//
// A false result means no call could be built. The reason is logged at debug
// level on the global zap logger.
func New(d *entity.Domain, opKey string, args ...Argument) (*MethodCall, bool) {
	c, err := build(d, opKey, args)
	if err != nil {
		zap.L().Debug("call rejected at construction",
			zap.String("operation", opKey),
			zap.Int("args", len(args)),
			zap.Error(err))
		return nil, false
	}
	return c, true
}

// Check is New reporting why no call could be built.
func Check(d *entity.Domain, opKey string, args ...Argument) error {
	_, err := build(d, opKey, args)
	return err
}

func build(d *entity.Domain, opKey string, args []Argument) (*MethodCall, error) {
	if d == nil {
		return nil, fmt.Errorf("no domain")
	}
	op, ok := d.Resolve(opKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownOperation, opKey)
	}

	want := len(op.Params)
	if !op.OnRoot() {
		want++
	}
	if len(args) != want {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", op.Key(), want, len(args))
	}

	c := &MethodCall{domain: d, op: op}
	params := args
	if !op.OnRoot() {
		first := args[0]
		if first.kind != ArgEntities || len(first.ids) != 1 {
			return nil, fmt.Errorf("%s: invoking entity must be exactly one id, got %s argument", op.Key(), first.kind)
		}
		c.target = first.ids[0]
		params = args[1:]
	}

	for i, p := range op.Params {
		a := params[i]
		if err := fits(p, a); err != nil {
			return nil, fmt.Errorf("%s: parameter %d: %w", op.Key(), i+1, err)
		}
	}
	c.args = make([]Argument, len(params))
	copy(c.args, params)
	return c, nil
}

func fits(p entity.Param, a Argument) error {
	switch p.Kind {
	case entity.ParamPrimitive:
		if a.kind != ArgPrimitive {
			return fmt.Errorf("want primitive, got %s", a.kind)
		}
		if _, err := p.PrimitiveValue(a.values); err != nil {
			return err
		}
	case entity.ParamEntity:
		if a.kind != ArgEntities || len(a.ids) != 1 {
			return fmt.Errorf("want exactly one entity id, got %s argument with %d ids", a.kind, len(a.ids))
		}
	case entity.ParamEntitySet:
		if a.kind != ArgEntities {
			return fmt.Errorf("want entity ids, got %s", a.kind)
		}
	default:
		return fmt.Errorf("unsupported parameter kind %s", p.Kind)
	}
	return nil
}

func (c *MethodCall) Operation() *entity.Operation {
	return c.op
}

func (c *MethodCall) Domain() *entity.Domain {
	return c.domain
}

// Target is the id of the invoking entity, empty for root operations.
func (c *MethodCall) Target() string {
	return c.target
}

// Args returns the parameter arguments, excluding the invoking entity.
func (c *MethodCall) Args() []Argument {
	return append([]Argument(nil), c.args...)
}

// String renders the call as shortid(target, args...).
func (c *MethodCall) String() string {
	parts := make([]string, 0, len(c.args)+1)
	if c.target != "" {
		parts = append(parts, c.target)
	}
	for _, a := range c.args {
		parts = append(parts, a.String())
	}
	return c.domain.ShortID(c.op) + "(" + strings.Join(parts, ", ") + ")"
}
