package conveyor

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Completion signals that a piece of store work has fully settled. It is
// resolved exactly once, with either a result or an error, and may be waited
// on from any goroutine.
type Completion struct {
	done   chan struct{}
	once   sync.Once
	result any
	err    error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolved returns a completion that has already settled successfully.
func Resolved() *Completion {
	c := newCompletion()
	c.resolve(nil, nil)
	return c
}

// Rejected returns a completion that has already failed with err.
func Rejected(err error) *Completion {
	c := newCompletion()
	c.resolve(nil, err)
	return c
}

// Done is closed once the completion settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the failure, or nil while pending or on success.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Result returns the value the completion was resolved with.
func (c *Completion) Result() any {
	select {
	case <-c.done:
		return c.result
	default:
		return nil
	}
}

// Settled reports whether the completion has resolved or failed.
func (c *Completion) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the completion settles or ctx ends.
func (c *Completion) Wait(ctx context.Context) (any, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Completion) resolve(result any, err error) bool {
	settled := false
	c.once.Do(func() {
		c.result = result
		c.err = err
		settled = true
		close(c.done)
	})
	return settled
}

// Join returns a completion that settles once every non-nil completion in
// parts has settled. It fails with the first error observed.
func Join(parts ...*Completion) *Completion {
	pending := make([]*Completion, 0, len(parts))
	for _, part := range parts {
		if part != nil {
			pending = append(pending, part)
		}
	}
	if len(pending) == 0 {
		return Resolved()
	}
	if len(pending) == 1 {
		return pending[0]
	}
	if ok, err := settledErr(pending); ok {
		if err != nil {
			return Rejected(err)
		}
		return Resolved()
	}

	joined := newCompletion()
	go func() {
		var group errgroup.Group
		for _, part := range pending {
			group.Go(func() error {
				<-part.done
				return part.err
			})
		}
		joined.resolve(nil, group.Wait())
	}()
	return joined
}

// settledErr returns the first error of parts when all of them have already
// settled.
func settledErr(parts []*Completion) (bool, error) {
	var first error
	for _, part := range parts {
		if !part.Settled() {
			return false, nil
		}
		if first == nil {
			first = part.err
		}
	}
	return true, first
}
