package conveyor

import (
	"time"
)

// Deferrer runs a flush after the current synchronous span of work. Hosts
// with their own event loop can route flushes onto it with WithDeferrer.
type Deferrer interface {
	Defer(fn func())
}

// DeferFunc adapts a function to Deferrer.
type DeferFunc func(fn func())

// Defer implements Deferrer.
func (f DeferFunc) Defer(fn func()) {
	f(fn)
}

var goroutineDeferrer Deferrer = DeferFunc(func(fn func()) { go fn() })

// ImmediateDeferrer flushes on the committing goroutine as soon as the
// outermost batch closes. Useful in tests and single threaded hosts.
var ImmediateDeferrer Deferrer = DeferFunc(func(fn func()) { fn() })

type subscriber struct {
	id    uint64
	check func() *Completion
}

// listener observes every committed root synchronously.
type listener func(next any) *Completion

// transact computes the next root from the current one and commits it.
// Writers are serialized; fn runs without the state lock held.
func (s *Store) transact(fn func(root any) (any, error)) (*Completion, error) {
	s.writeMu.Lock()
	prev := s.Root()
	next, err := fn(prev)
	if err != nil {
		s.writeMu.Unlock()
		return nil, err
	}
	if Same(prev, next) {
		s.writeMu.Unlock()
		return Resolved(), nil
	}
	s.mu.Lock()
	s.root = next
	s.mu.Unlock()
	s.writeMu.Unlock()

	return s.publish(prev, next), nil
}

// publish runs the synchronous side effects of a commit and joins the
// pending flush. It never holds a store lock while calling out.
func (s *Store) publish(prev, next any) *Completion {
	start := time.Now()
	s.runAutorun(prev, next)

	s.mu.Lock()
	listeners := append([]listener(nil), s.listeners...)
	s.mu.Unlock()

	parts := make([]*Completion, 0, len(listeners)+1)
	for _, l := range listeners {
		parts = append(parts, l(next))
	}
	parts = append(parts, s.schedule())

	s.cfg.logger.LogEvent(LogEvent{
		Kind:     EventCommit,
		Store:    s.cfg.name,
		Duration: time.Since(start),
	})
	return Join(parts...)
}

// schedule returns the pending flush completion, creating it and asking the
// deferrer for a flush when none is pending. Inside a batch the flush waits
// for the outermost batch to close.
func (s *Store) schedule() *Completion {
	s.mu.Lock()
	if s.pending == nil {
		s.pending = newCompletion()
	}
	pending := s.pending
	run := s.batchDepth == 0 && !s.scheduled
	if run {
		s.scheduled = true
	}
	s.mu.Unlock()

	if run {
		s.cfg.deferrer.Defer(s.flush)
	}
	return pending
}

// flush notifies every current subscriber once and resolves the pending
// completion after all of their refresh completions settle.
func (s *Store) flush() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.scheduled = false
	subs := append([]subscriber(nil), s.subs...)
	s.mu.Unlock()

	if pending == nil {
		return
	}

	start := time.Now()
	checks := make([]*Completion, 0, len(subs))
	for _, sub := range subs {
		checks = append(checks, sub.check())
	}
	joined := Join(checks...)

	settle := func() {
		err := joined.Err()
		s.cfg.logger.LogEvent(LogEvent{
			Kind:        EventFlush,
			Store:       s.cfg.name,
			Subscribers: len(subs),
			Duration:    time.Since(start),
			Err:         err,
		})
		pending.resolve(nil, err)
	}
	if joined.Settled() {
		settle()
		return
	}
	go func() {
		<-joined.Done()
		settle()
	}()
}

// flushNow starts the pending notification pass even when a batch is open.
func (s *Store) flushNow() {
	s.mu.Lock()
	run := s.pending != nil && !s.scheduled
	if run {
		s.scheduled = true
	}
	s.mu.Unlock()

	if run {
		s.cfg.deferrer.Defer(s.flush)
	}
}

// Batch runs fn so that every commit it makes shares a single notification
// pass, started when the outermost batch returns.
func (s *Store) Batch(fn func()) {
	s.mu.Lock()
	s.batchDepth++
	s.mu.Unlock()
	defer s.endBatch()
	fn()
}

func (s *Store) endBatch() {
	s.mu.Lock()
	s.batchDepth--
	run := s.batchDepth == 0 && s.pending != nil && !s.scheduled
	if run {
		s.scheduled = true
	}
	s.mu.Unlock()

	if run {
		s.cfg.deferrer.Defer(s.flush)
	}
}

func (s *Store) subscribe(check func() *Completion) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, check: check})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) onUpdate(l listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Subscribers reports how many bindings are currently subscribed.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
