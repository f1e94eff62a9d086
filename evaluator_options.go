package conveyor

// EvaluatorOption configures any of the bundled evaluators.
type EvaluatorOption func(*evaluatorSettings)

type evaluatorSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// EvaluatorCache stores compiled programs in cache. Keys are prefixed with
// the engine name, so one cache can back several evaluators.
func EvaluatorCache(cache ProgramCache) EvaluatorOption {
	return func(s *evaluatorSettings) {
		s.cache = cache
	}
}

// EvaluatorFunctions exposes a snapshot of registry to expressions. Later
// registrations on registry are not seen by the evaluator.
func EvaluatorFunctions(registry *FunctionRegistry) EvaluatorOption {
	return func(s *evaluatorSettings) {
		if registry != nil {
			s.registry = registry.Clone()
		}
	}
}

func newEvaluatorSettings(opts []EvaluatorOption) evaluatorSettings {
	var s evaluatorSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// cached returns the program stored under key, compiling and storing it on
// a miss.
func cached[P any](s evaluatorSettings, key string, compile func() (P, error)) (P, error) {
	if s.cache != nil {
		if hit, ok := s.cache.Get(key); ok {
			if program, ok := hit.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		return program, err
	}
	if s.cache != nil {
		s.cache.Set(key, program)
	}
	return program, nil
}
