// Package produce is the immutable-update primitive used by the store:
// given a base value and a recipe operating on a mutable draft of it, Apply
// returns a new structurally shared value, or base itself when the recipe
// changed nothing.
//
// Drafts work on plain records (map[string]any) and lists ([]any). Writing at
// a path copies only the containers on that path; sibling subtrees keep their
// identity so consumers can detect changes by comparing references.
//
//	next, err := produce.Apply(root, func(d *produce.Draft) {
//		d.SetIn([]string{"todos", "0", "done"}, true)
//	})
package produce
