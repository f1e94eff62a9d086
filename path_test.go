package conveyor

import (
	"errors"
	"testing"
)

func TestParsePath(t *testing.T) {
	cases := []struct {
		raw  string
		want Path
	}{
		{raw: "", want: nil},
		{raw: "  ", want: nil},
		{raw: "todos", want: Path{"todos"}},
		{raw: "todos.0.title", want: Path{"todos", "0", "title"}},
	}
	for _, tc := range cases {
		got := ParsePath(tc.raw)
		if got.String() != tc.want.String() || len(got) != len(tc.want) {
			t.Fatalf("ParsePath(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestPathParentAndLast(t *testing.T) {
	p := ParsePath("a.b.c")
	if p.Last() != "c" {
		t.Fatalf("expected last segment c, got %q", p.Last())
	}
	parent := p.Parent()
	if parent.String() != "a.b" {
		t.Fatalf("expected parent a.b, got %q", parent)
	}
	_ = append(parent, "x")
	if p.String() != "a.b.c" {
		t.Fatalf("appending to parent must not alter the path, got %q", p)
	}
	if (Path{}).Last() != "" || (Path{}).Parent() != nil {
		t.Fatalf("empty path helpers should return zero values")
	}
}

func TestResolve(t *testing.T) {
	root := map[string]any{
		"todos": []any{
			map[string]any{"title": "write"},
		},
		"count": 3,
	}

	value, err := Resolve(root, ParsePath("todos.0.title"))
	if err != nil || value != "write" {
		t.Fatalf("expected write, got %v err=%v", value, err)
	}

	value, err = Resolve(root, ParsePath("missing"))
	if err != nil || value != nil {
		t.Fatalf("missing key should resolve to nil, got %v err=%v", value, err)
	}

	value, err = Resolve(root, ParsePath("todos.5"))
	if err != nil || value != nil {
		t.Fatalf("out of range index should resolve to nil, got %v err=%v", value, err)
	}

	if _, err := Resolve(root, nil); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for empty path, got %v", err)
	}
	if _, err := Resolve(root, ParsePath("count.value")); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath reading through a scalar, got %v", err)
	}
	if _, err := Resolve(root, ParsePath("todos.first")); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath for a non numeric list index, got %v", err)
	}
}

func TestSame(t *testing.T) {
	record := map[string]any{"a": 1}
	list := []any{1, 2}
	if !Same(record, record) || Same(record, map[string]any{"a": 1}) {
		t.Fatalf("records must compare by identity")
	}
	if !Same(list, list) || Same(list, list[:1]) {
		t.Fatalf("lists must compare by identity and length")
	}
	if !Same(1, 1) || Same(1, int64(1)) || !Same(nil, nil) || Same(nil, 0) {
		t.Fatalf("scalars compare by type and value")
	}
}
