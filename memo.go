package conveyor

import "sync"

type memoSlot struct {
	deps  []any
	value any
}

type taskSlot struct {
	deps []any
	task *Task
}

// memoCache holds Memo values and Task callbacks for one binding. Slots are
// keyed by the caller supplied key so selectors may call operators in any
// order.
type memoCache struct {
	mu     sync.Mutex
	values map[string]*memoSlot
	tasks  map[string]*taskSlot
}

func newMemoCache() *memoCache {
	return &memoCache{
		values: map[string]*memoSlot{},
		tasks:  map[string]*taskSlot{},
	}
}

// value returns the cached value for key, recomputing it when deps changed.
// compute runs without the cache lock held.
func (c *memoCache) value(key string, deps []any, compute func() any) any {
	c.mu.Lock()
	if slot, ok := c.values[key]; ok && sameDeps(slot.deps, deps) {
		value := slot.value
		c.mu.Unlock()
		return value
	}
	c.mu.Unlock()

	var value any
	if compute != nil {
		value = compute()
	}

	c.mu.Lock()
	c.values[key] = &memoSlot{deps: copyDeps(deps), value: value}
	c.mu.Unlock()
	return value
}

func (c *memoCache) task(key string, deps []any, build func() *Task) *Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	if slot, ok := c.tasks[key]; ok && sameDeps(slot.deps, deps) {
		return slot.task
	}
	task := build()
	c.tasks[key] = &taskSlot{deps: copyDeps(deps), task: task}
	return task
}

// sweep drops slots whose keys were not used by the latest pass.
func (c *memoCache) sweep(seen map[string]struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.values {
		if _, ok := seen[key]; !ok {
			delete(c.values, key)
		}
	}
	for key := range c.tasks {
		if _, ok := seen[key]; !ok {
			delete(c.tasks, key)
		}
	}
}

func (c *memoCache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.values)
	clear(c.tasks)
}

// sameDeps compares dependency lists pairwise by identity. Lists of different
// length are never the same.
func sameDeps(prev, next []any) bool {
	if len(prev) != len(next) {
		return false
	}
	for i := range prev {
		if !Same(prev[i], next[i]) {
			return false
		}
	}
	return true
}

func copyDeps(deps []any) []any {
	if len(deps) == 0 {
		return nil
	}
	return append([]any(nil), deps...)
}
