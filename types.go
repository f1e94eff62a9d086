package conveyor

import "github.com/goliatone/go-conveyor/produce"

// Kind identifies the shape of a Selection.
type Kind int

const (
	// RootAsDraft means no path was tracked; the draft is the whole root.
	RootAsDraft Kind = iota
	// SinglePath means the selector returned one tracked path.
	SinglePath
	// KeyedRemap means the selector returned a record built with Select.
	KeyedRemap
)

func (k Kind) String() string {
	switch k {
	case RootAsDraft:
		return "root-as-draft"
	case SinglePath:
		return "single-path"
	case KeyedRemap:
		return "keyed-remap"
	default:
		return "unknown"
	}
}

// Source records where a keyed-remap field came from.
type Source int

const (
	FromLiteral Source = iota
	FromTrack
	FromMemo
	FromTask
)

// Field is one entry of a keyed-remap selection.
type Field struct {
	Key    string
	Source Source
	Path   Path
	Value  any
}

// Selection is the result of one selector pass. Selected is what consumers
// read; Draft is what mutations write through. Path is set for SinglePath and
// Fields (sorted by key) for KeyedRemap.
type Selection struct {
	Kind     Kind
	Selected any
	Draft    any
	Path     Path
	Fields   []Field
}

// tracked returns the fields written back on reconcile.
func (s Selection) tracked() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Source == FromTrack {
			out = append(out, f)
		}
	}
	return out
}

// rootDraft reports whether mutations apply to the whole root.
func (s Selection) rootDraft() bool {
	switch s.Kind {
	case RootAsDraft:
		return true
	case KeyedRemap:
		return len(s.tracked()) == 0
	}
	return false
}

// Selector describes which parts of the root a consumer depends on. It must
// be pure given the operators and safe to run any number of times.
type Selector func(op *Operators) any

// PutSelector is the track-only selector accepted by dispatch handlers.
type PutSelector func(track TrackFunc) any

// TrackFunc records a path and returns its tracked value.
type TrackFunc func(path ...string) Ref

// Work is an update submitted for a selection: either a recipe run against
// the draft or a literal replacement.
type Work struct {
	recipe  produce.Recipe
	value   any
	replace bool
}

// Mutate builds work that runs recipe against the selection's draft.
func Mutate(recipe produce.Recipe) Work {
	return Work{recipe: recipe}
}

// Replace builds work that replaces the selection's draft with value.
func Replace(value any) Work {
	return Work{value: value, replace: true}
}
