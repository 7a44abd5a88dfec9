package source

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// SharedFetcher collapses concurrent fetches of the same source into one
// request. Callers receive independent copies of the records.
//
// The shared request runs detached from any single caller's context, so one
// caller giving up does not fail the others. Each caller still returns as
// soon as its own context ends. The wrapped fetcher's own timeout bounds the
// shared request.
type SharedFetcher struct {
	next  Fetcher
	group singleflight.Group

	// joined runs after a caller is attached to the in-flight request.
	joined func(sourceID string)
}

// Shared wraps next with request collapsing.
func Shared(next Fetcher) *SharedFetcher {
	return &SharedFetcher{next: next}
}

// Fetch implements Fetcher.
func (s *SharedFetcher) Fetch(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
	if s == nil || s.next == nil {
		return nil, failed(sourceID, errNoFetcher)
	}
	if err := ctx.Err(); err != nil {
		return nil, failed(sourceID, err)
	}
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(sourceID, func() (any, error) {
		return s.next.Fetch(detached, sourceID)
	})
	if s.joined != nil {
		s.joined(sourceID)
	}

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		records, _ := res.Val.([]model.OptionRecord)
		return append([]model.OptionRecord(nil), records...), nil
	case <-ctx.Done():
		return nil, failed(sourceID, ctx.Err())
	}
}
