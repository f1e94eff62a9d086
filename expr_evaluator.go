package conveyor

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	"github.com/expr-lang/expr/builtin"
	"github.com/expr-lang/expr/file"
	"github.com/expr-lang/expr/parser/lexer"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs expressions using github.com/expr-lang/expr.
type exprEvaluator struct {
	evaluatorSettings
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. It is
// the default engine for Store.Evaluate and Derive.
func NewExprEvaluator(opts ...EvaluatorOption) Evaluator {
	return &exprEvaluator{evaluatorSettings: newEvaluatorSettings(opts)}
}

func (e *exprEvaluator) engine() string { return "expr" }

func (e *exprEvaluator) Evaluate(ctx EvalContext, expression string) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return e.run(ctx, expression, program)
}

func (e *exprEvaluator) Compile(expression string) (CompiledExpr, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	program, err := e.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}
	return &exprCompiled{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) run(ctx EvalContext, expression string, program *exprvm.Program) (any, error) {
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(program, e.environment(ctx))
	if err != nil {
		return nil, runError("expr", expression, ctx.storeLabel(), err)
	}
	return result, nil
}

func (e *exprEvaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	return cached(e.evaluatorSettings, "expr:"+expression, func() (*exprvm.Program, error) {
		return e.compile(expression)
	})
}

func (e *exprEvaluator) compile(expression string) (*exprvm.Program, error) {
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range shadowedBuiltins(expression) {
		options = append(options, exprlang.DisableBuiltin(name))
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
				return e.registry.Call(fn, arguments...)
			}))
		}
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, compileError("expr", expression, err)
	}
	return program, nil
}

// shadowedBuiltins returns the builtin names expression reads as plain
// variables. Root keys such as count or len are injected at the top level,
// so a bare reference must resolve to the key rather than the builtin.
// Names that are called, or accessed as members, keep their meaning.
func shadowedBuiltins(expression string) []string {
	tokens, err := lexer.Lex(file.NewSource(expression))
	if err != nil {
		return nil
	}
	var names []string
	seen := map[string]bool{}
	for i, token := range tokens {
		if token.Kind != lexer.Identifier || seen[token.Value] {
			continue
		}
		if _, ok := builtin.Index[token.Value]; !ok {
			continue
		}
		if i+1 < len(tokens) && tokens[i+1].Is(lexer.Bracket, "(") {
			continue
		}
		if i > 0 && tokens[i-1].Is(lexer.Operator, ".", "?.") {
			continue
		}
		seen[token.Value] = true
		names = append(names, token.Value)
	}
	return names
}

func (e *exprEvaluator) environment(ctx EvalContext) map[string]any {
	record := ctx.record()
	env := make(map[string]any, len(record)+3)
	for key, value := range record {
		env[key] = value
	}
	env["state"] = ctx.Root
	env["now"] = ctx.timestamp()
	env["args"] = ctx.Args
	return env
}

type exprCompiled struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (c *exprCompiled) Evaluate(ctx EvalContext) (any, error) {
	if c.evaluator == nil || c.program == nil {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("compiled expression missing program"))
	}
	return c.evaluator.run(ctx, c.expression, c.program)
}
