package produce

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-conveyor/internal/node"
)

// ErrEmptyPath indicates a write was attempted without a target key.
var ErrEmptyPath = errors.New("produce: path must not be empty")

// Recipe mutates a draft. Recipes either write through the draft or call
// Replace to return a wholesale replacement.
type Recipe func(d *Draft)

// Draft is a copy-on-write view over a base value. Containers along a written
// path are shallow copied once per Apply; everything else keeps its identity.
type Draft struct {
	base  any
	root  any
	owned map[uintptr]struct{}
	err   error
}

// Apply runs recipe against a draft of base and returns the produced value.
// When the recipe leaves the draft untouched (or only writes values identical
// to the existing ones) base itself is returned.
func Apply(base any, recipe Recipe) (any, error) {
	if recipe == nil {
		return base, nil
	}
	d := &Draft{
		base:  base,
		root:  base,
		owned: map[uintptr]struct{}{},
	}
	recipe(d)
	if d.err != nil {
		return base, d.err
	}
	if node.Same(d.root, base) {
		return base, nil
	}
	return d.root, nil
}

// Value returns the current draft value.
func (d *Draft) Value() any {
	return d.root
}

// Base returns the value the draft was created from.
func (d *Draft) Base() any {
	return d.base
}

// Err returns the first error recorded by a write, if any. Writes after an
// error are ignored.
func (d *Draft) Err() error {
	return d.err
}

// Get resolves path against the current draft. Unresolvable paths yield nil.
func (d *Draft) Get(path ...string) any {
	current := d.root
	for _, key := range path {
		next, _, err := node.Child(current, key)
		if err != nil {
			return nil
		}
		current = next
	}
	return current
}

// Replace swaps the whole draft value.
func (d *Draft) Replace(value any) {
	if d.err != nil {
		return
	}
	d.root = value
}

// Set writes value under key on the draft record.
func (d *Draft) Set(key string, value any) {
	d.SetIn([]string{key}, value)
}

// SetIn writes value at path, copying every container on the way.
func (d *Draft) SetIn(path []string, value any) {
	d.write(path, func(container any, key string) (any, error) {
		if old, ok, err := node.Child(container, key); err == nil && ok && node.Same(old, value) {
			return container, nil
		}
		return d.assign(container, key, value)
	})
}

// Delete removes key from the draft record.
func (d *Draft) Delete(key string) {
	d.DeleteIn([]string{key})
}

// DeleteIn removes the entry at path. Missing entries are ignored.
func (d *Draft) DeleteIn(path []string) {
	d.write(path, func(container any, key string) (any, error) {
		if _, ok, err := node.Child(container, key); err != nil || !ok {
			return container, err
		}
		return d.remove(container, key)
	})
}

// Update replaces the value at path with fn(old).
func (d *Draft) Update(path []string, fn func(old any) any) {
	if len(path) == 0 {
		if d.err == nil {
			d.root = fn(d.root)
		}
		return
	}
	d.write(path, func(container any, key string) (any, error) {
		old, ok, err := node.Child(container, key)
		if err != nil {
			return nil, err
		}
		value := fn(old)
		if ok && node.Same(old, value) {
			return container, nil
		}
		return d.assign(container, key, value)
	})
}

// Append adds values to the list at path. A missing entry becomes a new list.
func (d *Draft) Append(path []string, values ...any) {
	if len(values) == 0 {
		return
	}
	d.Update(path, func(old any) any {
		list, ok := old.([]any)
		if old != nil && !ok {
			d.fail(fmt.Errorf("%w: cannot append to %T", node.ErrNotContainer, old))
			return old
		}
		out := make([]any, 0, len(list)+len(values))
		out = append(out, list...)
		return append(out, values...)
	})
}

func (d *Draft) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Draft) write(path []string, leaf func(container any, key string) (any, error)) {
	if d.err != nil {
		return
	}
	if len(path) == 0 {
		d.fail(ErrEmptyPath)
		return
	}
	next, err := d.descend(d.root, path, leaf)
	if err != nil {
		d.fail(fmt.Errorf("produce: write %v: %w", path, err))
		return
	}
	if d.err == nil {
		d.root = next
	}
}

func (d *Draft) descend(current any, path []string, leaf func(any, string) (any, error)) (any, error) {
	key := path[0]
	if len(path) == 1 {
		return leaf(current, key)
	}
	child, _, err := node.Child(current, key)
	if err != nil {
		return nil, err
	}
	next, err := d.descend(child, path[1:], leaf)
	if err != nil {
		return nil, err
	}
	if node.Same(child, next) {
		return current, nil
	}
	return d.assign(current, key, next)
}

// own returns a writable copy of container, copying it at most once.
func (d *Draft) own(container any) (any, error) {
	if addr := node.Addr(container); addr != 0 {
		if _, ok := d.owned[addr]; ok {
			return container, nil
		}
	}
	var copied any
	switch typed := container.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed)+1)
		for k, v := range typed {
			out[k] = v
		}
		copied = out
	case []any:
		out := make([]any, len(typed), len(typed)+1)
		copy(out, typed)
		copied = out
	default:
		return nil, fmt.Errorf("%w: cannot write into %T", node.ErrNotContainer, container)
	}
	if addr := node.Addr(copied); addr != 0 {
		d.owned[addr] = struct{}{}
	}
	return copied, nil
}

func (d *Draft) assign(container any, key string, value any) (any, error) {
	writable, err := d.own(container)
	if err != nil {
		return nil, err
	}
	switch typed := writable.(type) {
	case map[string]any:
		typed[key] = value
		return typed, nil
	case []any:
		idx, err := node.Index(key)
		if err != nil {
			return nil, err
		}
		switch {
		case idx < len(typed):
			typed[idx] = value
			return typed, nil
		case idx == len(typed):
			grown := append(typed, value)
			d.owned[node.Addr(grown)] = struct{}{}
			return grown, nil
		default:
			return nil, fmt.Errorf("%w: %d beyond length %d", node.ErrBadIndex, idx, len(typed))
		}
	}
	return nil, fmt.Errorf("%w: cannot write into %T", node.ErrNotContainer, writable)
}

func (d *Draft) remove(container any, key string) (any, error) {
	writable, err := d.own(container)
	if err != nil {
		return nil, err
	}
	switch typed := writable.(type) {
	case map[string]any:
		delete(typed, key)
		return typed, nil
	case []any:
		idx, err := node.Index(key)
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(typed)-1)
		out = append(out, typed[:idx]...)
		out = append(out, typed[idx+1:]...)
		if addr := node.Addr(out); addr != 0 {
			d.owned[addr] = struct{}{}
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: cannot delete from %T", node.ErrNotContainer, writable)
}
