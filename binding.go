package conveyor

import "sync"

// Binding connects one consumer to a store through a selector. It caches the
// last selected value, and re-selects on every commit to decide whether the
// consumer needs to refresh.
type Binding struct {
	store    *Store
	selector Selector
	cache    *memoCache

	mu        sync.Mutex
	selection Selection
	selected  any
	err       error
	refresh   *Completion
	closers   []func()
}

// Bind runs selector once and returns a binding over its result.
func (s *Store) Bind(selector Selector) (*Binding, error) {
	b := &Binding{
		store:    s,
		selector: selector,
		cache:    newMemoCache(),
	}
	sel, err := b.run()
	if err != nil {
		return nil, err
	}
	b.selection = sel
	b.selected = sel.Selected
	return b, nil
}

func (b *Binding) env() passEnv {
	return passEnv{store: b.store, cache: b.cache, submit: b.Update}
}

func (b *Binding) run() (Selection, error) {
	return evaluateSelector(b.store.Root(), b.selector, b.env())
}

// Selected returns the value observed at the last render. It keeps its
// identity until the selection changes.
func (b *Binding) Selected() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selected
}

// Selection returns the full result of the last render.
func (b *Binding) Selection() Selection {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selection
}

// Err returns the selector error from the last render, if any.
func (b *Binding) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Update reconciles work against a fresh selection of the latest root.
func (b *Binding) Update(work Work) (*Completion, error) {
	return b.store.transact(func(root any) (any, error) {
		sel, err := evaluateSelector(root, b.selector, b.env())
		if err != nil {
			return nil, err
		}
		return Reconcile(root, sel, work)
	})
}

// Subscribe registers notify to be called when the selection changes. The
// consumer acknowledges each notification by calling Render. The returned
// func unsubscribes.
func (b *Binding) Subscribe(notify func()) func() {
	unsubscribe := b.store.subscribe(func() *Completion {
		return b.check(notify)
	})
	var once sync.Once
	stop := func() { once.Do(unsubscribe) }

	b.mu.Lock()
	b.closers = append(b.closers, stop)
	b.mu.Unlock()
	return stop
}

// check runs during a flush. While a refresh is outstanding it returns the
// same completion without re-selecting, since the next render reads the
// latest root anyway.
func (b *Binding) check(notify func()) *Completion {
	b.mu.Lock()
	if b.refresh != nil {
		refresh := b.refresh
		b.mu.Unlock()
		return refresh
	}
	prev := b.selected
	b.mu.Unlock()

	sel, err := b.run()
	if err == nil && !Changed(prev, sel) {
		return Resolved()
	}

	b.mu.Lock()
	if b.refresh != nil {
		refresh := b.refresh
		b.mu.Unlock()
		return refresh
	}
	refresh := newCompletion()
	b.refresh = refresh
	b.mu.Unlock()

	if notify != nil {
		notify()
	}
	return refresh
}

// Render re-selects against the latest root, settles any outstanding
// refresh and returns the selected value.
func (b *Binding) Render() (any, error) {
	sel, err := b.run()

	b.mu.Lock()
	if err == nil {
		if Changed(b.selected, sel) {
			b.selected = sel.Selected
		}
		b.selection = sel
	}
	b.err = err
	selected := b.selected
	refresh := b.refresh
	b.refresh = nil
	b.mu.Unlock()

	if refresh != nil {
		refresh.resolve(nil, nil)
	}
	return selected, err
}

// Close unsubscribes every subscription, settles an outstanding refresh and
// drops memoized values.
func (b *Binding) Close() {
	b.mu.Lock()
	closers := b.closers
	b.closers = nil
	refresh := b.refresh
	b.refresh = nil
	b.mu.Unlock()

	for _, stop := range closers {
		stop()
	}
	if refresh != nil {
		refresh.resolve(nil, nil)
	}
	b.cache.reset()
}
