//go:build !js_eval

package conveyor

// NewJSEvaluator returns an evaluator that fails every call with
// ErrEngineUnavailable. Build with the js_eval tag for the goja engine.
func NewJSEvaluator(opts ...EvaluatorOption) Evaluator {
	_ = newEvaluatorSettings(opts)
	return unavailableEvaluator{name: "js"}
}

type unavailableEvaluator struct {
	name string
}

func (u unavailableEvaluator) engine() string { return u.name }

func (u unavailableEvaluator) Evaluate(EvalContext, string) (any, error) {
	return nil, wrapEvaluatorError(u.name, ErrEngineUnavailable)
}

func (u unavailableEvaluator) Compile(string) (CompiledExpr, error) {
	return nil, wrapEvaluatorError(u.name, ErrEngineUnavailable)
}
