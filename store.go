package conveyor

import (
	"sync"

	"github.com/goliatone/go-conveyor/pkg/activity"
	"github.com/goliatone/go-conveyor/produce"
)

// Store owns one root value. Bindings select from it, updates replace it
// through the reconciler, and commits made within one batch share a single
// notification pass.
type Store struct {
	cfg     storeConfig
	emitter *activity.Emitter

	// writeMu serializes read-compute-commit cycles.
	writeMu sync.Mutex

	mu         sync.Mutex
	root       any
	pending    *Completion
	scheduled  bool
	batchDepth int
	subs       []subscriber
	nextSub    uint64
	listeners  []listener
	autoruns   autorunRegistry
	handlers   map[string]Handler

	assembled    bool
	childUpdates int

	evalOnce sync.Once
}

// New creates a store holding a deep copy of initial.
func New(initial any, opts ...Option) *Store {
	cfg := applyOptions(opts)
	return &Store{
		cfg:      cfg,
		emitter:  activity.NewEmitter(cfg.activityHooks, cfg.activity),
		root:     produce.Clone(initial),
		handlers: map[string]Handler{},
	}
}

// Name returns the store's configured name.
func (s *Store) Name() string {
	return s.cfg.name
}

// Root returns the current root. Callers must not mutate it.
func (s *Store) Root() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// Update selects with selector against the current root and reconciles
// work into a new root. The returned completion settles after every
// subscriber affected by the commit has refreshed.
func (s *Store) Update(selector Selector, work Work) (*Completion, error) {
	env := passEnv{
		store: s,
		submit: func(next Work) (*Completion, error) {
			return s.Update(selector, next)
		},
	}
	return s.transact(func(root any) (any, error) {
		sel, err := evaluateSelector(root, selector, env)
		if err != nil {
			return nil, err
		}
		return Reconcile(root, sel, work)
	})
}

// Set replaces the whole root with value.
func (s *Store) Set(value any) (*Completion, error) {
	return s.Update(nil, Replace(value))
}
