package conveyor

import (
	"strings"
	"testing"
)

type todoView struct {
	Title string   `json:"title"`
	Done  bool     `json:"done"`
	Tags  []string `json:"tags"`
}

func TestAsDecodesSelection(t *testing.T) {
	todo, err := As[todoView](map[string]any{
		"title": "write",
		"done":  true,
		"tags":  []any{"a", "b"},
	})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if todo.Title != "write" || !todo.Done || len(todo.Tags) != 2 {
		t.Fatalf("unexpected todo %+v", todo)
	}
}

func TestSelectedAsLabelsErrors(t *testing.T) {
	store := New(map[string]any{"todo": map[string]any{"title": 5}}, WithName("todos"))
	binding, err := store.Bind(func(op *Operators) any { return op.Track("todo") })
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	_, err = SelectedAs[todoView](binding)
	if err == nil {
		t.Fatalf("expected a type mismatch")
	}
	if !strings.Contains(err.Error(), "todos") || !strings.Contains(err.Error(), "todo") {
		t.Fatalf("error should name the store and path, got %v", err)
	}
}
