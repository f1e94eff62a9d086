package conveyor

import "github.com/goliatone/go-conveyor/pkg/activity"

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	name          string
	logger        Logger
	deferrer      Deferrer
	evaluator     Evaluator
	programCache  ProgramCache
	functions     *FunctionRegistry
	activityHooks activity.Hooks
	activity      activity.Config
}

func applyOptions(opts []Option) storeConfig {
	cfg := storeConfig{
		logger:   noopLogger{},
		deferrer: goroutineDeferrer,
		activity: activity.Config{Enabled: true, Channel: defaultActivityChannel},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.programCache == nil {
		cfg.programCache = newMemoryProgramCache()
	}
	return cfg
}

// WithName labels the store in logs, activity events and evaluation errors.
func WithName(name string) Option {
	return func(cfg *storeConfig) {
		cfg.name = name
	}
}

// WithDeferrer routes notification flushes through d instead of a goroutine.
func WithDeferrer(d Deferrer) Option {
	return func(cfg *storeConfig) {
		if d != nil {
			cfg.deferrer = d
		}
	}
}

// WithEvaluator configures the expression evaluator used by Evaluate and the
// Eval operator. The expr-lang evaluator is used when none is configured.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *storeConfig) {
		cfg.evaluator = e
	}
}

// WithConfig applies file based configuration. Options given after it win.
func WithConfig(c Config) Option {
	return func(cfg *storeConfig) {
		if c.Name != "" {
			cfg.name = c.Name
		}
		cfg.activity = activity.Config{
			Enabled: c.Activity.Enabled,
			Channel: c.Activity.Channel,
			Verbs:   append([]string(nil), c.Activity.Verbs...),
		}
	}
}
