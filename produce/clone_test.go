package produce

import (
	"reflect"
	"testing"
)

type cloneSample struct {
	Name   string
	Count  *int
	Labels map[string]string
}

func TestCloneRecordsAreDetached(t *testing.T) {
	original := map[string]any{
		"nested": map[string]any{"k": "v"},
		"list":   []any{map[string]any{"id": 1}},
	}
	cloned := Clone(original).(map[string]any)
	if !reflect.DeepEqual(original, cloned) {
		t.Fatalf("clone mismatch:\nwant: %#v\n got: %#v", original, cloned)
	}

	cloned["nested"].(map[string]any)["k"] = "changed"
	cloned["list"].([]any)[0].(map[string]any)["id"] = 2
	if original["nested"].(map[string]any)["k"] != "v" {
		t.Fatalf("nested record shared with clone")
	}
	if original["list"].([]any)[0].(map[string]any)["id"] != 1 {
		t.Fatalf("list element shared with clone")
	}
}

func TestCloneTypedValues(t *testing.T) {
	n := 5
	sample := cloneSample{Name: "a", Count: &n, Labels: map[string]string{"env": "prod"}}
	cloned := Clone(sample).(cloneSample)

	sample.Labels["env"] = "qa"
	*sample.Count = 6
	if cloned.Labels["env"] != "prod" {
		t.Fatalf("expected labels detached, got %q", cloned.Labels["env"])
	}
	if *cloned.Count != 5 {
		t.Fatalf("expected pointer detached, got %d", *cloned.Count)
	}
}

func TestCloneScalars(t *testing.T) {
	if Clone(nil) != nil {
		t.Fatalf("expected nil")
	}
	if Clone(3) != 3 || Clone("s") != "s" {
		t.Fatalf("expected scalars returned as is")
	}
}
