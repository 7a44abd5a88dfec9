// Package lazyselect loads deferred options into <select> elements, restores
// their prior selection, and holds form submission until every load settled.
package lazyselect

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goliatone/go-lazyselect/pkg/dom"
	"github.com/goliatone/go-lazyselect/pkg/orchestrator"
)

// SourceOverride rewrites a declared source locator; alias exported via the
// root package for convenience.
type SourceOverride = orchestrator.SourceOverride

// Report summarises a hydration session.
type Report = orchestrator.Report

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Hydrate parses the HTML document read from r, loads the options of every
// lazy select, waits for all sources to settle, and writes the hydrated
// document to w. Failed sources are listed in the report rather than
// returned as errors.
func Hydrate(ctx context.Context, r io.Reader, w io.Writer, options ...orchestrator.Option) (Report, error) {
	if w == nil {
		return Report{}, errors.New("lazyselect: writer is required")
	}
	page, err := dom.Parse(r)
	if err != nil {
		return Report{}, err
	}
	session, err := orchestrator.New(options...).StartPage(ctx, page)
	if err != nil {
		return Report{}, err
	}
	defer session.Close()

	if err := session.Wait(ctx); err != nil {
		return session.Report(), fmt.Errorf("lazyselect: wait for sources: %w", err)
	}
	if err := page.Render(w); err != nil {
		return session.Report(), err
	}
	return session.Report(), nil
}

// WithSourceOverrides registers locator overrides that can be passed to
// Hydrate alongside other orchestrator options.
func WithSourceOverrides(overrides []SourceOverride) orchestrator.Option {
	return orchestrator.WithSourceOverrides(overrides)
}
