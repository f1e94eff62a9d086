package conveyor

import (
	"strings"
	"testing"
)

func TestFunctionRegistryKeepsRegisteredNames(t *testing.T) {
	registry := NewFunctionRegistry()
	join := func(args ...any) (any, error) { return len(args), nil }

	if err := registry.Register(" toUpper ", join); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("abs", join); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := registry.Register("TOUPPER", join)
	if err == nil || !strings.Contains(err.Error(), `"toUpper"`) {
		t.Fatalf("expected duplicate naming the original, got %v", err)
	}
	if err := registry.Register("", join); err == nil {
		t.Fatalf("expected empty name to fail")
	}
	if err := registry.Register("nil", nil); err == nil {
		t.Fatalf("expected nil function to fail")
	}

	names := registry.Names()
	if len(names) != 2 || names[0] != "abs" || names[1] != "toUpper" {
		t.Fatalf("unexpected names %v", names)
	}
	if _, ok := registry.Lookup("TOUPPER"); !ok {
		t.Fatalf("lookup should ignore case")
	}
	if value, err := registry.Call("toupper", 1, 2); err != nil || value != 2 {
		t.Fatalf("expected 2, got %v err=%v", value, err)
	}
	if _, err := registry.Call("missing"); err == nil {
		t.Fatalf("expected unknown function to fail")
	}

	clone := registry.Clone()
	_ = clone.Register("extra", join)
	if registry.Len() != 2 || clone.Len() != 3 {
		t.Fatalf("clone must be independent: %d %d", registry.Len(), clone.Len())
	}

	var empty *FunctionRegistry
	if empty.Len() != 0 || empty.Names() != nil {
		t.Fatalf("nil registry should be empty")
	}
	if _, err := empty.Call("x"); err == nil {
		t.Fatalf("expected nil registry call to fail")
	}
}

func TestExprCallsCamelCaseFunction(t *testing.T) {
	store := New(map[string]any{"name": "ada"}, WithCustomFunction("toUpper", func(args ...any) (any, error) {
		return strings.ToUpper(args[0].(string)), nil
	}))
	value, err := store.Evaluate("toUpper(name)", nil)
	if err != nil || value != "ADA" {
		t.Fatalf("expected ADA, got %v err=%v", value, err)
	}
}
