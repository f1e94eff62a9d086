package conveyor

import (
	"errors"
	"fmt"
	"strings"
)

// EvalPhase says whether an expression failed to compile or to run.
type EvalPhase string

const (
	PhaseCompile EvalPhase = "compile"
	PhaseRun     EvalPhase = "run"
)

// EvaluationError is returned by every bundled evaluator. Fields that are
// unknown at the point of failure stay empty and are filled in by the store.
type EvaluationError struct {
	Engine string
	Phase  EvalPhase
	Expr   string
	Store  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("conveyor: ")
	b.WriteString(e.Engine)
	if e.Phase != "" {
		b.WriteString(" " + string(e.Phase))
	}
	if e.Expr != "" {
		fmt.Fprintf(&b, " %q", e.Expr)
	}
	if e.Store != "" {
		b.WriteString(" in store " + e.Store)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// wrapEvaluatorError reports a failure that is not tied to an expression,
// such as an empty input or a missing engine.
func wrapEvaluatorError(engine string, err error) error {
	return annotate(err, EvaluationError{Engine: engine})
}

func compileError(engine, expr string, err error) error {
	return annotate(err, EvaluationError{Engine: engine, Phase: PhaseCompile, Expr: expr})
}

func runError(engine, expr, store string, err error) error {
	return annotate(err, EvaluationError{Engine: engine, Phase: PhaseRun, Expr: expr, Store: store})
}

// wrapEvaluationError attaches engine, expression and store to err.
func wrapEvaluationError(engine, expr, store string, err error) error {
	return annotate(err, EvaluationError{Engine: engine, Expr: expr, Store: store})
}

// annotate wraps err in an EvaluationError built from meta. When err
// already carries one, only its empty fields are filled.
func annotate(err error, meta EvaluationError) error {
	if err == nil {
		return nil
	}
	var existing *EvaluationError
	if !errors.As(err, &existing) {
		meta.Err = err
		return &meta
	}
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&existing.Engine, meta.Engine)
	fill(&existing.Expr, meta.Expr)
	fill(&existing.Store, meta.Store)
	if existing.Phase == "" {
		existing.Phase = meta.Phase
	}
	return err
}
