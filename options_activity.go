package conveyor

import (
	"slices"

	"github.com/goliatone/go-conveyor/pkg/activity"
)

const defaultActivityChannel = activity.DefaultChannel

// WithActivityHooks sets the hooks told about dispatch lifecycles and
// assembled children. Nil entries are ignored.
func WithActivityHooks(hooks activity.Hooks) Option {
	live := liveHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = live
	}
}

// ActivityHooks returns a copy of the store's hooks, or nil when none are set.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return liveHooks(s.cfg.activityHooks)
}

func liveHooks(hooks activity.Hooks) activity.Hooks {
	live := slices.DeleteFunc(slices.Clone(hooks), func(hook activity.ActivityHook) bool {
		return hook == nil
	})
	if len(live) == 0 {
		return nil
	}
	return live
}
