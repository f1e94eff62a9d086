package conveyor

import (
	"math"
	"testing"
)

func TestChangedWholeSelection(t *testing.T) {
	record := map[string]any{"a": 1}
	if Changed(record, Selection{Kind: SinglePath, Selected: record}) {
		t.Fatalf("same record must not count as a change")
	}
	if !Changed(record, Selection{Kind: RootAsDraft, Selected: map[string]any{"a": 1}}) {
		t.Fatalf("an equal but distinct record counts as a change")
	}
}

func TestChangedKeyedRemap(t *testing.T) {
	items := []any{1}
	prev := map[string]any{"items": items, "label": "x"}
	next := func(fields ...Field) Selection {
		return Selection{Kind: KeyedRemap, Fields: fields}
	}

	if Changed(prev, next(
		Field{Key: "items", Source: FromTrack, Value: items},
		Field{Key: "label", Source: FromLiteral, Value: "x"},
	)) {
		t.Fatalf("a fresh record with identical fields must not count as a change")
	}
	if !Changed(prev, next(
		Field{Key: "items", Source: FromTrack, Value: []any{1}},
		Field{Key: "label", Source: FromLiteral, Value: "x"},
	)) {
		t.Fatalf("a replaced field must count as a change")
	}
	if !Changed(prev, next(Field{Key: "items", Source: FromTrack, Value: items})) {
		t.Fatalf("a dropped key must count as a change")
	}
	if !Changed(prev, next(
		Field{Key: "items", Source: FromTrack, Value: items},
		Field{Key: "other", Source: FromLiteral, Value: "x"},
	)) {
		t.Fatalf("a renamed key must count as a change")
	}
	if !Changed(nil, next(Field{Key: "items", Source: FromTrack, Value: items})) {
		t.Fatalf("a previous non record value must count as a change")
	}
}

func TestChangedSkipsTasksOnly(t *testing.T) {
	oldTask, newTask := &Task{key: "run"}, &Task{key: "run"}
	prev := map[string]any{"run": oldTask}
	if Changed(prev, Selection{Kind: KeyedRemap, Fields: []Field{{Key: "run", Source: FromTask, Value: newTask}}}) {
		t.Fatalf("task fields must be ignored")
	}

	oldFn, newFn := func() {}, func() {}
	prev = map[string]any{"fn": oldFn}
	if !Changed(prev, Selection{Kind: KeyedRemap, Fields: []Field{{Key: "fn", Source: FromLiteral, Value: newFn}}}) {
		t.Fatalf("literal function values must still be compared")
	}
}

func TestChangedTreatsNaNAsSame(t *testing.T) {
	if Changed(math.NaN(), Selection{Kind: SinglePath, Selected: math.NaN()}) {
		t.Fatalf("a NaN leaf must not count as a change against NaN")
	}
	prev := map[string]any{"ratio": math.NaN()}
	next := Selection{Kind: KeyedRemap, Fields: []Field{{Key: "ratio", Source: FromTrack, Value: math.NaN()}}}
	if Changed(prev, next) {
		t.Fatalf("a NaN field must not count as a change against NaN")
	}
}
