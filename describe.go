package conveyor

import (
	"fmt"
	"sort"
	"strconv"
)

// FieldDescriptor describes one leaf path of a root and its Go type.
type FieldDescriptor struct {
	Path Path
	Type string
}

// Describe lists the leaf paths of value in key order. Lists are descended
// element by element; empty records and lists are reported as leaves.
func Describe(value any) []FieldDescriptor {
	out := describeValue(value, nil)
	if out == nil {
		return []FieldDescriptor{}
	}
	return out
}

func describeValue(value any, prefix Path) []FieldDescriptor {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return leaf(prefix, "map[string]any")
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			fields = append(fields, describeValue(typed[key], extend(prefix, key))...)
		}
		return fields
	case []any:
		if len(typed) == 0 {
			return leaf(prefix, "[]any")
		}
		var fields []FieldDescriptor
		for i, item := range typed {
			fields = append(fields, describeValue(item, extend(prefix, strconv.Itoa(i)))...)
		}
		return fields
	case nil:
		return leaf(prefix, "nil")
	default:
		return leaf(prefix, fmt.Sprintf("%T", typed))
	}
}

func leaf(path Path, typeName string) []FieldDescriptor {
	if len(path) == 0 {
		return nil
	}
	return []FieldDescriptor{{Path: path, Type: typeName}}
}

func extend(prefix Path, key string) Path {
	out := make(Path, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = key
	return out
}
