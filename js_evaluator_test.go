//go:build js_eval

package conveyor

import "testing"

func TestJSEvaluator(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("double", func(args ...any) (any, error) {
		return args[0].(int64) * 2, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	store := New(map[string]any{"items": []any{1, 2, 3}}, WithEvaluator(NewJSEvaluator(EvaluatorFunctions(registry))))

	value, err := store.Evaluate("state.items.length", nil)
	if err != nil || value != int64(3) {
		t.Fatalf("expected 3, got %v (%T) err=%v", value, value, err)
	}
	value, err = store.Evaluate("double(items.length)", nil)
	if err != nil || value != int64(6) {
		t.Fatalf("expected 6, got %v (%T) err=%v", value, value, err)
	}
}
