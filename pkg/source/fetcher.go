package source

import (
	"context"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// Fetcher retrieves the option records of one source.
type Fetcher interface {
	Fetch(ctx context.Context, sourceID string) ([]model.OptionRecord, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, sourceID string) ([]model.OptionRecord, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
	return f(ctx, sourceID)
}
