package conveyor

import (
	"fmt"
	"sort"

	"github.com/goliatone/go-conveyor/internal/node"
	"github.com/goliatone/go-conveyor/produce"
)

// Ref is the result of Track or Edit: a captured path and the value it
// resolved to during the pass that created it.
type Ref struct {
	path  Path
	value any
	pass  *Operators
}

// Path returns a copy of the tracked path.
func (r Ref) Path() Path { return r.path.clone() }

// Value returns the resolved value.
func (r Ref) Value() any { return r.value }

// Remap is a record marked by Select as the selector's keyed result.
type Remap struct {
	fields map[string]any
	pass   *Operators
}

// Memoized is the result of Memo.
type Memoized struct {
	key   string
	value any
	pass  *Operators
}

// Value returns the memoized value.
func (m Memoized) Value() any { return m.value }

// TaskProducer mutates the draft of the selection that created the task,
// using the arguments given to Run.
type TaskProducer func(d *produce.Draft, args ...any)

// Task is a stable callback created by the Task operator. Run submits a
// mutation against the latest selection of its binding.
type Task struct {
	key      string
	producer TaskProducer
	submit   func(Work) (*Completion, error)
}

// Key returns the key the task was registered under.
func (t *Task) Key() string { return t.key }

// Run builds a mutation from the producer and commits it.
func (t *Task) Run(args ...any) (*Completion, error) {
	if t == nil || t.submit == nil {
		return nil, fmt.Errorf("%w: task is not bound to a store", ErrUsage)
	}
	producer := t.producer
	return t.submit(Mutate(func(d *produce.Draft) {
		if producer != nil {
			producer(d, args...)
		}
	}))
}

// passEnv carries what a selector pass needs beyond the root.
type passEnv struct {
	store  *Store
	cache  *memoCache
	submit func(Work) (*Completion, error)
}

// Operators is handed to a Selector once per pass. It records which
// operators were used and the first error raised by any of them.
type Operators struct {
	root    any
	env     passEnv
	seen    map[string]struct{}
	tracked bool
	remap   bool
	memo    bool
	task    bool
	err     error
}

func newOperators(root any, env passEnv) *Operators {
	return &Operators{root: root, env: env, seen: map[string]struct{}{}}
}

func (op *Operators) fail(err error) {
	if op.err == nil {
		op.err = err
	}
}

// State returns the root. Callers must treat it as read only.
func (op *Operators) State() any {
	return op.root
}

// Track records path as a dependency and returns its current value.
func (op *Operators) Track(path ...string) Ref {
	op.tracked = true
	if len(path) == 0 {
		op.fail(fmt.Errorf("%w: track requires at least one segment", ErrInvalidPath))
		return Ref{pass: op}
	}
	captured := Path(path).clone()
	value, err := Resolve(op.root, captured)
	if err != nil {
		op.fail(err)
	}
	return Ref{path: captured, value: value, pass: op}
}

// Edit is Track, named for selectors that exist mostly to write.
func (op *Operators) Edit(path ...string) Ref {
	return op.Track(path...)
}

// Select marks record as the selector's keyed result.
func (op *Operators) Select(record map[string]any) Remap {
	op.remap = true
	if len(record) == 0 {
		op.fail(ErrInvalidSelector)
	}
	return Remap{fields: record, pass: op}
}

// Memo returns the value cached under key, recomputing it when deps differ
// from the previous pass. Without deps the value is computed once.
func (op *Operators) Memo(key string, compute func() any, deps ...any) Memoized {
	op.memo = true
	if !op.claim(key) {
		return Memoized{key: key, pass: op}
	}
	cache := op.env.cache
	if cache == nil {
		cache = newMemoCache()
	}
	return Memoized{key: key, value: cache.value(key, deps, compute), pass: op}
}

// Task returns a callback that stays the same across passes while deps are
// unchanged.
func (op *Operators) Task(key string, producer TaskProducer, deps ...any) *Task {
	op.task = true
	if !op.claim(key) {
		return nil
	}
	build := func() *Task {
		return &Task{key: key, producer: producer, submit: op.env.submit}
	}
	if op.env.cache == nil {
		return build()
	}
	return op.env.cache.task(key, deps, build)
}

// Eval evaluates expr against the root with the store's evaluator.
func (op *Operators) Eval(expr string) any {
	if op.env.store == nil {
		op.fail(fmt.Errorf("%w: eval needs a store", ErrUsage))
		return nil
	}
	value, err := op.env.store.evaluate(EvalContext{Root: op.root}, expr)
	if err != nil {
		op.fail(err)
	}
	return value
}

func (op *Operators) claim(key string) bool {
	if key == "" {
		op.fail(fmt.Errorf("%w: memo and task need a key", ErrUsage))
		return false
	}
	if _, dup := op.seen[key]; dup {
		op.fail(fmt.Errorf("%w: key %q used twice in one selector", ErrUsage, key))
		return false
	}
	op.seen[key] = struct{}{}
	return true
}

func (op *Operators) used() bool {
	return op.tracked || op.remap || op.memo || op.task
}

func evaluateSelector(root any, selector Selector, env passEnv) (Selection, error) {
	if selector == nil {
		return Selection{Kind: RootAsDraft, Selected: root, Draft: root}, nil
	}

	op := newOperators(root, env)
	ret := selector(op)
	if op.err != nil {
		return Selection{}, op.err
	}
	if env.cache != nil {
		env.cache.sweep(op.seen)
	}

	switch typed := ret.(type) {
	case Ref:
		if typed.pass != op {
			return Selection{}, fmt.Errorf("%w: returned a tracked value from another pass", ErrUsage)
		}
		return Selection{
			Kind:     SinglePath,
			Selected: typed.value,
			Draft:    typed.value,
			Path:     typed.path,
		}, nil
	case Remap:
		if typed.pass != op {
			return Selection{}, fmt.Errorf("%w: returned a record selected in another pass", ErrUsage)
		}
		return op.buildRemap(typed.fields)
	}

	if op.used() {
		return Selection{}, fmt.Errorf("%w: track, memo and task results must be composed through select", ErrUsage)
	}
	return Selection{Kind: RootAsDraft, Selected: ret, Draft: root}, nil
}

func (op *Operators) buildRemap(fields map[string]any) (Selection, error) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	selected := make(map[string]any, len(fields))
	draft := map[string]any{}
	out := make([]Field, 0, len(fields))
	for _, key := range keys {
		field := Field{Key: key, Source: FromLiteral, Value: fields[key]}
		switch value := fields[key].(type) {
		case Ref:
			if value.pass != op {
				return Selection{}, fmt.Errorf("%w: field %q tracked in another pass", ErrUsage, key)
			}
			field.Source = FromTrack
			field.Path = value.path
			field.Value = value.value
			draft[key] = value.value
		case Memoized:
			field.Source = FromMemo
			field.Value = value.value
		case *Task:
			field.Source = FromTask
		}
		selected[key] = field.Value
		out = append(out, field)
	}

	sel := Selection{Kind: KeyedRemap, Selected: selected, Draft: draft, Fields: out}
	if len(draft) == 0 {
		sel.Draft = op.root
	}
	return sel, nil
}

// selectForPut runs a track-only selector for dispatch handlers. A selector
// needs a record root, and every field it returns must be tracked.
func selectForPut(root any, selector PutSelector) (Selection, error) {
	if selector == nil {
		return Selection{Kind: RootAsDraft, Selected: root, Draft: root}, nil
	}
	if !node.IsRecord(root) {
		return Selection{}, fmt.Errorf("%w: a put selector needs a record root, got %T", ErrNotRecord, root)
	}

	op := newOperators(root, passEnv{})
	ret := selector(op.Track)
	if op.err != nil {
		return Selection{}, op.err
	}

	var fields map[string]any
	switch typed := ret.(type) {
	case Ref:
		if typed.pass != op {
			return Selection{}, fmt.Errorf("%w: returned a tracked value from another pass", ErrUsage)
		}
		return Selection{Kind: SinglePath, Selected: typed.value, Draft: typed.value, Path: typed.path}, nil
	case Remap:
		fields = typed.fields
	case map[string]any:
		fields = typed
	}
	if len(fields) == 0 {
		return Selection{}, fmt.Errorf("%w: track at least one path", ErrInvalidSelector)
	}
	for key, value := range fields {
		if ref, ok := value.(Ref); !ok || ref.pass != op {
			return Selection{}, fmt.Errorf("%w: put selector field %q is not tracked", ErrUsage, key)
		}
	}

	sel, err := op.buildRemap(fields)
	if err != nil {
		return Selection{}, err
	}
	return sel, nil
}

// Select runs selector against the current root outside of any binding and
// returns the selected value.
func (s *Store) Select(selector Selector) (any, error) {
	sel, err := evaluateSelector(s.Root(), selector, passEnv{
		store: s,
		submit: func(work Work) (*Completion, error) {
			return s.Update(selector, work)
		},
	})
	if err != nil {
		return nil, err
	}
	return sel.Selected, nil
}
