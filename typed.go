package conveyor

import (
	"github.com/goliatone/go-conveyor/internal/hydrate"
)

// As decodes a selected value into T using `json` field tags. Selected
// values are untyped records and lists; As gives consumers a typed copy.
func As[T any](selected any) (T, error) {
	return hydrate.NewDecoder[T]().Decode(hydrate.Context{}, selected)
}

// SelectedAs decodes the binding's current selection into T.
func SelectedAs[T any](b *Binding) (T, error) {
	ctx := hydrate.Context{Store: b.store.Name()}
	if sel := b.Selection(); sel.Kind == SinglePath {
		ctx.Path = sel.Path.String()
	}
	return hydrate.NewDecoder[T]().Decode(ctx, b.Selected())
}
