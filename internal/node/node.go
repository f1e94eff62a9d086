// Package node holds the low level helpers shared by the store engine and the
// copy-on-write producer: identity comparison and single-step child access on
// plain keyed records (map[string]any) and lists ([]any).
package node

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

var (
	// ErrNotContainer indicates a path step tried to read or write through a
	// value that is neither a record nor a list.
	ErrNotContainer = errors.New("node: value is not a record or list")
	// ErrBadIndex indicates a list step used a key that is not a valid index.
	ErrBadIndex = errors.New("node: invalid list index")
)

// Same reports whether a and b are the same value by identity. Maps, slices,
// pointers, channels and funcs compare by address (slices also by length);
// comparable values compare with ==, except that NaN is the same as NaN.
// Anything else is never the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Float32, reflect.Float64:
		fa, fb := va.Float(), vb.Float()
		if math.IsNaN(fa) && math.IsNaN(fb) {
			return true
		}
		return fa == fb
	}
	if !va.Comparable() || !vb.Comparable() {
		return false
	}
	return a == b
}

// IsRecord reports whether v is a plain keyed record.
func IsRecord(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

// Child reads key from container. A missing record key yields (nil, false,
// nil); an out of range list index yields (nil, false, nil). Reading through
// nil or a scalar fails with ErrNotContainer.
func Child(container any, key string) (any, bool, error) {
	switch typed := container.(type) {
	case map[string]any:
		value, ok := typed[key]
		return value, ok, nil
	case []any:
		idx, err := Index(key)
		if err != nil {
			return nil, false, err
		}
		if idx >= len(typed) {
			return nil, false, nil
		}
		return typed[idx], true, nil
	case nil:
		return nil, false, fmt.Errorf("%w: cannot read %q of nil", ErrNotContainer, key)
	}

	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		value := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, false, nil
		}
		return value.Interface(), true, nil
	case reflect.Slice, reflect.Array:
		idx, err := Index(key)
		if err != nil {
			return nil, false, err
		}
		if idx >= rv.Len() {
			return nil, false, nil
		}
		return rv.Index(idx).Interface(), true, nil
	}
	return nil, false, fmt.Errorf("%w: cannot read %q of %T", ErrNotContainer, key, container)
}

// Index parses a list key.
func Index(key string) (int, error) {
	idx, err := strconv.Atoi(key)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("%w: %q", ErrBadIndex, key)
	}
	return idx, nil
}

// Addr returns the identity of a writable container, or 0 when v is not one.
// Empty lists have no stable identity and always report 0.
func Addr(v any) uintptr {
	switch typed := v.(type) {
	case map[string]any:
		return reflect.ValueOf(typed).Pointer()
	case []any:
		if len(typed) == 0 {
			return 0
		}
		return reflect.ValueOf(typed).Pointer()
	}
	return 0
}
