package conveyor

import (
	"context"
	"fmt"

	"github.com/goliatone/go-conveyor/internal/node"
	"github.com/goliatone/go-conveyor/pkg/activity"
	"github.com/goliatone/go-conveyor/produce"
)

// Assemble mounts child's root under alias in s's root and keeps the two in
// sync: child commits replace the alias field, and parent commits that
// change the alias field replace the child root. A child can be assembled
// into one parent only, and compositions must form a tree.
func (s *Store) Assemble(alias string, child *Store) error {
	if child == nil || child == s {
		return fmt.Errorf("%w: a store cannot be assembled into itself", ErrUsage)
	}
	if alias == "" {
		return fmt.Errorf("%w: alias must not be empty", ErrUsage)
	}

	child.mu.Lock()
	if child.assembled {
		child.mu.Unlock()
		return fmt.Errorf("%w: alias %q", ErrAlreadyAssembled, alias)
	}
	child.assembled = true
	child.mu.Unlock()

	_, err := s.transact(func(root any) (any, error) {
		record, ok := root.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot assemble into %T", ErrNotRecord, root)
		}
		if _, exists := record[alias]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, alias)
		}
		return produce.Apply(root, func(d *produce.Draft) {
			d.Set(alias, child.Root())
		})
	})
	if err != nil {
		child.mu.Lock()
		child.assembled = false
		child.mu.Unlock()
		return err
	}

	child.onUpdate(func(next any) *Completion {
		if s.consumeChildUpdate() {
			return Resolved()
		}
		done, err := s.transact(func(root any) (any, error) {
			if !node.IsRecord(root) {
				return root, nil
			}
			return produce.Apply(root, func(d *produce.Draft) {
				d.Set(alias, next)
			})
		})
		if err != nil {
			return Rejected(err)
		}
		return done
	})

	s.onUpdate(func(next any) *Completion {
		value, ok, err := node.Child(next, alias)
		if err != nil || !ok || Same(value, child.Root()) {
			return Resolved()
		}
		s.mu.Lock()
		s.childUpdates++
		s.mu.Unlock()
		changed := false
		done, err := child.transact(func(current any) (any, error) {
			changed = !Same(current, value)
			return value, nil
		})
		if err != nil || !changed {
			s.consumeChildUpdate()
		}
		if err != nil {
			return Rejected(err)
		}
		return done
	})

	s.cfg.logger.LogEvent(LogEvent{Kind: EventAssemble, Store: s.cfg.name, Alias: alias})
	s.emit(context.Background(), activity.BuildStoreAssembledEvent(activity.AssembleEventInput{
		Store:   s.cfg.name,
		Child:   child.cfg.name,
		Alias:   alias,
		Channel: s.cfg.activity.Channel,
	}))
	return nil
}

// consumeChildUpdate reports whether a child commit was caused by the
// parent, decrementing the pending counter when it was.
func (s *Store) consumeChildUpdate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.childUpdates > 0 {
		s.childUpdates--
		return true
	}
	return false
}

// ChildUpdatesPending returns how many parent to child forwards have not yet
// echoed back. It returns to zero once composition traffic settles.
func (s *Store) ChildUpdatesPending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.childUpdates
}
