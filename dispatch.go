package conveyor

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-conveyor/pkg/activity"
	"github.com/google/uuid"
)

// Action is a typed request routed to a registered handler. Meta may carry
// actor_id, user_id and tenant_id strings for activity events.
type Action struct {
	Type    string
	Payload any
	Meta    map[string]any
}

// Handler performs an action. It must eventually call Done or Fail on dc;
// until then the dispatch completion stays pending.
type Handler func(action Action, dc *Context)

// Register binds handler to actionType.
func (s *Store) Register(actionType string, handler Handler) error {
	if strings.TrimSpace(actionType) == "" {
		return fmt.Errorf("%w: action type must not be empty", ErrUsage)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %q", ErrUsage, actionType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.handlers[actionType]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateType, actionType)
	}
	s.handlers[actionType] = handler
	return nil
}

// Dispatch runs the handler registered for action.Type inside a batch and
// returns a completion that settles when the handler calls Done (after all
// of its puts have settled) or Fail, or when ctx is cancelled. The dispatch
// is logged and its activity emitted before the completion settles.
func (s *Store) Dispatch(ctx context.Context, action Action) (*Completion, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	handler, ok := s.handlers[action.Type]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredType, action.Type)
	}

	dc := &Context{
		ctx:        ctx,
		store:      s,
		action:     action,
		id:         uuid.NewString(),
		completion: newCompletion(),
	}
	public := newCompletion()
	start := time.Now()
	s.emit(ctx, activity.BuildDispatchStartedEvent(s.dispatchInput(dc, 0, nil)))

	go func() {
		select {
		case <-ctx.Done():
			dc.abort(context.Cause(ctx))
		case <-dc.completion.Done():
		}
		<-dc.completion.Done()
		s.finishDispatch(dc, time.Since(start))
		public.resolve(dc.completion.Result(), dc.completion.Err())
	}()

	s.Batch(func() {
		handler(action, dc)
	})
	return public, nil
}

func (s *Store) finishDispatch(dc *Context, duration time.Duration) {
	err := dc.completion.Err()
	s.cfg.logger.LogEvent(LogEvent{
		Kind:       EventDispatch,
		Store:      s.cfg.name,
		Action:     dc.action.Type,
		DispatchID: dc.id,
		Duration:   duration,
		Err:        err,
	})
	input := s.dispatchInput(dc, duration, err)
	if err != nil {
		s.emit(context.WithoutCancel(dc.ctx), activity.BuildDispatchFailedEvent(input))
		return
	}
	s.emit(context.WithoutCancel(dc.ctx), activity.BuildDispatchCompletedEvent(input))
}

func (s *Store) dispatchInput(dc *Context, duration time.Duration, err error) activity.DispatchEventInput {
	meta := dc.action.Meta
	return activity.DispatchEventInput{
		ActorID:    metaString(meta, "actor_id"),
		UserID:     metaString(meta, "user_id"),
		TenantID:   metaString(meta, "tenant_id"),
		Store:      s.cfg.name,
		ActionType: dc.action.Type,
		DispatchID: dc.id,
		Duration:   duration,
		Err:        err,
	}
}

// emit hands event to the activity hooks. Hook failures never reach the
// dispatcher; they are logged against the store instead.
func (s *Store) emit(ctx context.Context, event activity.Event) {
	if !s.emitter.Accepts(event.Verb) {
		return
	}
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.cfg.logger.LogEvent(LogEvent{
			Kind:  EventActivity,
			Store: s.cfg.name,
			Verb:  event.Verb,
			Err:   err,
		})
	}
}

func metaString(meta map[string]any, key string) string {
	if value, ok := meta[key].(string); ok {
		return value
	}
	return ""
}

// Context is the handler's scoped view of a dispatch.
type Context struct {
	ctx        context.Context
	store      *Store
	action     Action
	id         string
	completion *Completion

	mu      sync.Mutex
	puts    []*Completion
	aborted error
	onAbort []func(error)
}

// Context returns the context the dispatch was started with.
func (c *Context) Context() context.Context {
	return c.ctx
}

// ID returns the dispatch identifier carried by log and activity events.
func (c *Context) ID() string {
	return c.id
}

// Action returns the action being handled.
func (c *Context) Action() Action {
	return c.action
}

// State returns the current root of the store.
func (c *Context) State() any {
	return c.store.Root()
}

// SelectToPut returns a putter over the paths tracked by selector. A nil
// selector targets the whole root.
func (c *Context) SelectToPut(selector PutSelector) *Putter {
	return &Putter{dc: c, selector: selector}
}

// Done resolves the dispatch with result once every put made so far has
// settled. A failed put fails the dispatch instead.
func (c *Context) Done(result any) {
	c.mu.Lock()
	puts := append([]*Completion(nil), c.puts...)
	c.mu.Unlock()

	joined := Join(puts...)
	settle := func() {
		if err := joined.Err(); err != nil {
			c.completion.resolve(nil, &DispatchError{Type: c.action.Type, ID: c.id, Err: err})
			return
		}
		c.completion.resolve(result, nil)
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

// Fail rejects the dispatch with err.
func (c *Context) Fail(err error) {
	if err == nil {
		err = fmt.Errorf("handler failed")
	}
	c.completion.resolve(nil, &DispatchError{Type: c.action.Type, ID: c.id, Err: err})
}

// Step waits for wait to settle, returning early with ErrAborted when the
// dispatch is cancelled first. Stepping on one of the dispatch's own puts
// ends the handler's synchronous span: the notification pass for the puts
// made so far starts right away instead of when the handler returns.
func (c *Context) Step(wait *Completion) (any, error) {
	if wait == nil {
		return nil, nil
	}
	if !wait.Settled() && c.ownsPut(wait) {
		c.store.flushNow()
	}
	select {
	case <-wait.Done():
		return wait.Result(), wait.Err()
	case <-c.ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrAborted, context.Cause(c.ctx))
	}
}

// OnAbort registers fn to run when the dispatch is cancelled. It runs
// immediately when cancellation already happened.
func (c *Context) OnAbort(fn func(error)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	if c.aborted != nil {
		err := c.aborted
		c.mu.Unlock()
		fn(err)
		return
	}
	c.onAbort = append(c.onAbort, fn)
	c.mu.Unlock()
}

// Aborted reports whether the dispatch context has been cancelled.
func (c *Context) Aborted() bool {
	return c.ctx.Err() != nil
}

func (c *Context) abort(cause error) {
	err := fmt.Errorf("%w: %w", ErrAborted, cause)

	c.mu.Lock()
	if c.aborted != nil {
		c.mu.Unlock()
		return
	}
	c.aborted = err
	callbacks := c.onAbort
	c.onAbort = nil
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(err)
	}
	c.completion.resolve(nil, err)
}

func (c *Context) addPut(put *Completion) {
	c.mu.Lock()
	c.puts = append(c.puts, put)
	c.mu.Unlock()
}

func (c *Context) ownsPut(put *Completion) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Contains(c.puts, put)
}

// Putter reads and writes the selection of one put selector.
type Putter struct {
	dc       *Context
	selector PutSelector
}

// Select returns the selected value against the latest root.
func (p *Putter) Select() (any, error) {
	sel, err := selectForPut(p.dc.store.Root(), p.selector)
	if err != nil {
		return nil, err
	}
	return sel.Selected, nil
}

// Put reconciles work into the store. After cancellation it fails with
// ErrAborted and leaves the store untouched.
func (p *Putter) Put(work Work) (*Completion, error) {
	if p.dc.Aborted() {
		return nil, fmt.Errorf("%w: put after cancellation of %q", ErrAborted, p.dc.action.Type)
	}
	put, err := p.dc.store.transact(func(root any) (any, error) {
		sel, err := selectForPut(root, p.selector)
		if err != nil {
			return nil, err
		}
		return Reconcile(root, sel, work)
	})
	if err != nil {
		return nil, err
	}
	p.dc.addPut(put)
	return put, nil
}
