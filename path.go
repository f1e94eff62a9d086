package conveyor

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-conveyor/internal/node"
)

// Path addresses a location inside a root value. Record steps use the key,
// list steps use the decimal index.
type Path []string

// ParsePath splits a dotted path such as "todos.0.title".
func ParsePath(raw string) Path {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return Path(strings.Split(raw, "."))
}

func (p Path) String() string {
	return strings.Join(p, ".")
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the final segment, or "" for an empty path.
func (p Path) Last() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

func (p Path) clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Resolve walks path from root. A missing record key resolves to nil; reading
// through a scalar or nil fails with ErrInvalidPath.
func Resolve(root any, path Path) (any, error) {
	if len(path) == 0 {
		return nil, ErrInvalidPath
	}
	current := root
	for i, key := range path {
		next, _, err := node.Child(current, key)
		if err != nil {
			return nil, fmt.Errorf("%w: %s at %q: %v", ErrInvalidPath, path, path[:i+1].String(), err)
		}
		current = next
	}
	return current, nil
}

// Same reports whether a and b are the same value by identity. Records,
// lists and pointers compare by address; comparable scalars by ==.
func Same(a, b any) bool {
	return node.Same(a, b)
}
