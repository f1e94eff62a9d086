package conveyor

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("conveyor: evaluator not configured")

// EvalContext carries the inputs of one expression evaluation. Expressions
// see the root as `state`; when the root is a record its keys are also bound
// as top level variables.
type EvalContext struct {
	Root  any
	Now   *time.Time
	Args  map[string]any
	Store string
}

func (ctx EvalContext) withDefaults() EvalContext {
	if ctx.Now == nil {
		now := time.Now()
		ctx.Now = &now
	}
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	return ctx
}

func (ctx EvalContext) timestamp() time.Time {
	return *ctx.withDefaults().Now
}

func (ctx EvalContext) storeLabel() string {
	if ctx.Store != "" {
		return ctx.Store
	}
	return "unnamed"
}

func (ctx EvalContext) record() map[string]any {
	if record, ok := ctx.Root.(map[string]any); ok {
		return record
	}
	return map[string]any{}
}

// Evaluator executes expressions against a store root.
type Evaluator interface {
	Evaluate(ctx EvalContext, expr string) (any, error)
	Compile(expr string) (CompiledExpr, error)
}

// CompiledExpr is a reusable expression program.
type CompiledExpr interface {
	Evaluate(ctx EvalContext) (any, error)
}

// Evaluate runs expr against the current root.
func (s *Store) Evaluate(expr string, args map[string]any) (any, error) {
	return s.evaluate(EvalContext{Root: s.Root(), Args: args}, expr)
}

// Derive returns a selector whose selected value is the result of expr over
// the root. Updates through it apply to the whole root.
func Derive(expr string) Selector {
	return func(op *Operators) any {
		return op.Eval(expr)
	}
}

func (s *Store) evaluate(ctx EvalContext, expr string) (any, error) {
	if expr == "" {
		return nil, fmt.Errorf("expression must not be empty")
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	ctx.Store = s.cfg.name
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	duration := time.Since(start)
	evalErr = wrapEvaluationError(engine, expr, ctx.storeLabel(), evalErr)
	s.cfg.logger.LogEvent(LogEvent{
		Kind:     EventEvaluate,
		Store:    s.cfg.name,
		Engine:   engine,
		Expr:     expr,
		Duration: duration,
		Err:      evalErr,
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return value, nil
}

func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			return
		}
		s.cfg.evaluator = NewExprEvaluator(
			EvaluatorCache(s.cfg.programCache),
			EvaluatorFunctions(s.cfg.functions),
		)
	})
	if s.cfg.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.cfg.evaluator, nil
}

// engineNamer is implemented by the bundled evaluators.
type engineNamer interface {
	engine() string
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	if named, ok := e.(engineNamer); ok {
		return named.engine()
	}
	return "custom"
}
