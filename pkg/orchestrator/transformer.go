package orchestrator

import (
	"context"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// Transformer adjusts widgets before they are partitioned. Implementations
// can rewrite sources, restore prior values from another store, or drop a
// widget by clearing its SourceID.
type Transformer interface {
	Transform(ctx context.Context, widgets []*model.Widget) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, widgets []*model.Widget) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, widgets []*model.Widget) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, widgets)
}

// PriorValues returns a Transformer that sets the prior value of every
// widget whose name appears in values, such as a previously submitted form.
func PriorValues(values map[string]string) Transformer {
	return TransformerFunc(func(_ context.Context, widgets []*model.Widget) error {
		for _, w := range widgets {
			if w == nil || w.Name == "" {
				continue
			}
			if value, ok := values[w.Name]; ok {
				w.PriorValue = value
			}
		}
		return nil
	})
}
