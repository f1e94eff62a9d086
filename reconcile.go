package conveyor

import (
	"fmt"

	"github.com/goliatone/go-conveyor/produce"
)

// Reconcile folds work into root according to the shape of sel and returns
// the next root. Untouched subtrees keep their identity, and work that
// changes nothing returns root itself.
func Reconcile(root any, sel Selection, work Work) (any, error) {
	if sel.rootDraft() {
		if work.replace {
			return work.value, nil
		}
		return produce.Apply(root, work.recipe)
	}

	switch sel.Kind {
	case SinglePath:
		next := work.value
		if !work.replace {
			var err error
			next, err = produce.Apply(sel.Draft, work.recipe)
			if err != nil {
				return root, err
			}
		}
		return writeBack(root, func(d *produce.Draft) {
			d.SetIn(sel.Path, next)
		})

	case KeyedRemap:
		tracked := sel.tracked()
		if work.replace {
			if len(tracked) != 1 {
				return root, fmt.Errorf("%w: replace needs a single tracked path, got %d; use a mutation for remapped selections", ErrUsage, len(tracked))
			}
			return writeBack(root, func(d *produce.Draft) {
				d.SetIn(tracked[0].Path, work.value)
			})
		}
		next, err := produce.Apply(sel.Draft, work.recipe)
		if err != nil {
			return root, err
		}
		record, ok := next.(map[string]any)
		if !ok {
			return root, fmt.Errorf("%w: a remapped draft must stay a record, got %T", ErrUsage, next)
		}
		return writeBack(root, func(d *produce.Draft) {
			for _, field := range tracked {
				value, ok := record[field.Key]
				if !ok {
					d.DeleteIn(field.Path)
					continue
				}
				d.SetIn(field.Path, value)
			}
		})
	}

	return root, fmt.Errorf("%w: unknown selection kind %v", ErrUsage, sel.Kind)
}

func writeBack(root any, recipe produce.Recipe) (any, error) {
	next, err := produce.Apply(root, recipe)
	if err != nil {
		return root, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	return next, nil
}
