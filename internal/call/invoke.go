package call

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"worldgraph/internal/entity"
	"worldgraph/internal/state"
)

// Result is the outcome of an invocation that did not fail fatally. Exactly
// one of State and Rejected is set.
type Result struct {
	State    *state.State
	Rejected bool
	Reason   string
	// Cause is the error or recovered panic that rejected the call.
	Cause error
}

// OK reports whether the invocation produced a state.
func (r Result) OK() bool {
	return r.State != nil
}

// Invalid reports whether the operation rejected its arguments as
// semantically invalid, as opposed to failing in some other way.
func (r Result) Invalid() bool {
	return r.Rejected && errors.Is(r.Cause, entity.ErrInvalidInvocation)
}

// Invoke runs the call on a deep copy of st and returns the mutated copy as a
// new State. st itself is never changed.
//
// An operation that returns an error or panics yields a rejected Result, not
// an error. The returned error is reserved for mistakes of the caller: ids
// that are not part of st (state.ErrLookup) and arguments that do not fit
// once resolved (ErrArgumentShape).
func (c *MethodCall) Invoke(ctx context.Context, st *state.State) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if st.Domain().Universe() != c.domain.Universe() {
		return Result{}, fmt.Errorf("invoking %s: %w: state belongs to another universe", c, ErrArgumentShape)
	}

	cp, err := st.DeepCopy()
	if err != nil {
		return Result{}, fmt.Errorf("invoking %s: %w", c, err)
	}
	target, args, err := c.resolve(st, cp)
	if err != nil {
		return Result{}, fmt.Errorf("invoking %s: %w", c, err)
	}

	if cause := run(c.op, target, args); cause != nil {
		zap.L().Info("call rejected",
			zap.Stringer("call", c),
			zap.Bool("invalid", errors.Is(cause, entity.ErrInvalidInvocation)),
			zap.Error(cause))
		return Result{Rejected: true, Reason: cause.Error(), Cause: cause}, nil
	}

	next, err := state.FromRoot(cp.Root(), c.domain)
	if err != nil {
		return Result{}, fmt.Errorf("invoking %s: %w", c, err)
	}
	return Result{State: next}, nil
}

// resolve maps the ids of the call, which belong to src, onto the entities at
// the same pre-order positions of cp.
func (c *MethodCall) resolve(src, cp *state.State) (entity.Entity, []reflect.Value, error) {
	lookup := func(id string) (entity.Entity, error) {
		ordinal, err := src.Ordinal(id)
		if err != nil {
			return nil, err
		}
		return cp.EntityAt(ordinal)
	}

	var target entity.Entity = cp.Root()
	if !c.op.OnRoot() {
		e, err := lookup(c.target)
		if err != nil {
			return nil, nil, err
		}
		t, err := cp.Universe().TypeOf(e)
		if err != nil {
			return nil, nil, err
		}
		if t != c.op.Type {
			return nil, nil, fmt.Errorf("%w: invoking entity %s is a %s, want %s", ErrArgumentShape, c.target, t.Name, c.op.Type.Name)
		}
		target = e
	}

	args := make([]reflect.Value, len(c.op.Params))
	for i, p := range c.op.Params {
		a := c.args[i]
		var (
			v   reflect.Value
			err error
		)
		switch p.Kind {
		case entity.ParamPrimitive:
			v, err = p.PrimitiveValue(a.values)
		case entity.ParamEntity:
			var e entity.Entity
			if e, err = lookup(a.ids[0]); err != nil {
				return nil, nil, err
			}
			v, err = p.EntityValue(e)
		case entity.ParamEntitySet:
			refs := make([]entity.Entity, len(a.ids))
			for j, id := range a.ids {
				if refs[j], err = lookup(id); err != nil {
					return nil, nil, err
				}
			}
			v, err = p.EntitySetValue(refs)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: parameter %d: %v", ErrArgumentShape, i+1, err)
		}
		args[i] = v
	}
	return target, args, nil
}

// run calls the operation body and turns a panic into an error.
func run(op *entity.Operation, target entity.Entity, args []reflect.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if perr, ok := r.(error); ok {
				err = fmt.Errorf("panic in %s: %w", op.Key(), perr)
				return
			}
			err = fmt.Errorf("panic in %s: %v", op.Key(), r)
		}
	}()
	return op.Call(target, args)
}
