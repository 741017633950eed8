package entity

import (
	"fmt"
	"reflect"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Coerce converts an externally supplied primitive value, such as a decoded
// JSON number or a command-line string, into a value of the primitive Go type
// target. Values already of the target type pass through unchanged.
func Coerce(raw any, target reflect.Type) (reflect.Value, error) {
	if raw == nil {
		return reflect.Value{}, fmt.Errorf("%w: nil value for %s", ErrNotCoercible, target)
	}
	if !IsPrimitiveType(target) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not a primitive type", ErrNotCoercible, target)
	}
	rv := reflect.ValueOf(raw)
	if rv.Type() == target {
		return rv, nil
	}

	switch target {
	case timeType:
		return coerceTime(raw)
	case durationType:
		if s, ok := raw.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotCoercible, err)
			}
			return reflect.ValueOf(d), nil
		}
	}

	// Named enumerations share their underlying kind with plain literals.
	if rv.Kind() == target.Kind() && rv.Type().ConvertibleTo(target) {
		return rv.Convert(target), nil
	}

	return coerceCty(raw, target)
}

func coerceCty(raw any, target reflect.Type) (reflect.Value, error) {
	val, ok := raw.(cty.Value)
	if !ok {
		srcType, err := gocty.ImpliedType(raw)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %T: %v", ErrNotCoercible, raw, err)
		}
		val, err = gocty.ToCtyValue(raw, srcType)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %T: %v", ErrNotCoercible, raw, err)
		}
	}
	srcType := val.Type()

	wantType, err := gocty.ImpliedType(reflect.Zero(target).Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: %v", ErrNotCoercible, target, err)
	}
	converted, err := convert.Convert(val, wantType)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: cannot convert %s to %s: %v", ErrNotCoercible, srcType.FriendlyName(), wantType.FriendlyName(), err)
	}
	if converted.IsNull() || !converted.IsKnown() {
		return reflect.Value{}, fmt.Errorf("%w: %v converts to no value", ErrNotCoercible, raw)
	}

	out := reflect.New(target)
	if err := gocty.FromCtyValue(converted, out.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotCoercible, err)
	}
	return out.Elem(), nil
}

func coerceTime(raw any) (reflect.Value, error) {
	switch v := raw.(type) {
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("%w: %v", ErrNotCoercible, err)
		}
		return reflect.ValueOf(t), nil
	case cty.Value:
		if v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
			return coerceTime(v.AsString())
		}
	}
	return reflect.Value{}, fmt.Errorf("%w: %T is not a time", ErrNotCoercible, raw)
}
