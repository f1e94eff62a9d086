package conveyor

import "sync"

// Change is one watched path whose value changed identity in a commit. A
// path that no longer resolves reads as nil.
type Change struct {
	Path Path
	Old  any
	New  any
}

type autorunEntry struct {
	id    uint64
	paths []Path
	fn    func([]Change)
}

type autorunRegistry struct {
	mu      sync.Mutex
	next    uint64
	entries []*autorunEntry
}

func (r *autorunRegistry) add(paths []Path, fn func([]Change)) func() {
	cloned := make([]Path, 0, len(paths))
	for _, p := range paths {
		if len(p) > 0 {
			cloned = append(cloned, p.clone())
		}
	}

	r.mu.Lock()
	r.next++
	entry := &autorunEntry{id: r.next, paths: cloned, fn: fn}
	r.entries = append(r.entries, entry)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i, e := range r.entries {
				if e.id == entry.id {
					r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *autorunRegistry) snapshot() []*autorunEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*autorunEntry(nil), r.entries...)
}

var globalAutoruns autorunRegistry

// Autorun registers fn to run after any store commits a root in which at
// least one of paths changed identity. fn receives every changed path of the
// registration. The returned func removes the registration.
func Autorun(paths []Path, fn func([]Change)) (stop func()) {
	if fn == nil {
		return func() {}
	}
	return globalAutoruns.add(paths, fn)
}

// Autorun registers fn for commits on this store only.
func (s *Store) Autorun(paths []Path, fn func([]Change)) (stop func()) {
	if fn == nil {
		return func() {}
	}
	return s.autoruns.add(paths, fn)
}

func (s *Store) runAutorun(prev, next any) {
	entries := append(globalAutoruns.snapshot(), s.autoruns.snapshot()...)
	for _, entry := range entries {
		if changes := diffPaths(prev, next, entry.paths); len(changes) > 0 {
			entry.fn(changes)
		}
	}
}

func diffPaths(prev, next any, paths []Path) []Change {
	var changes []Change
	for _, path := range paths {
		old, _ := Resolve(prev, path)
		cur, _ := Resolve(next, path)
		if !Same(old, cur) {
			changes = append(changes, Change{Path: path.clone(), Old: old, New: cur})
		}
	}
	return changes
}
