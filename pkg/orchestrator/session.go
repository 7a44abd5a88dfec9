package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goliatone/go-lazyselect/internal/eventloop"
	"github.com/goliatone/go-lazyselect/pkg/dispatch"
	"github.com/goliatone/go-lazyselect/pkg/gate"
	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/populate"
)

// ErrUnknownForm is returned when submitting a form that has no gate.
var ErrUnknownForm = errors.New("orchestrator: form has no gate")

// SourceReport describes how one source settled.
type SourceReport struct {
	Source  string
	Records int
	Settled bool
	Err     error
	// Widgets holds one population result per widget of the source.
	Widgets []populate.Result
}

// Report summarises a session.
type Report struct {
	Session   string
	Ready     bool
	Elapsed   time.Duration
	Sources   []SourceReport
	Unsourced []string
	Forms     map[string]gate.State
}

// Failed lists the sources that settled with an error.
func (r Report) Failed() []SourceReport {
	var out []SourceReport
	for _, src := range r.Sources {
		if src.Err != nil {
			out = append(out, src)
		}
	}
	return out
}

// Session is one hydration run.
type Session struct {
	ID string

	completion *gate.Completion
	gates      *gate.Registry
	loop       *eventloop.Loop
	batch      *dispatch.Batch
	keys       []string
	widgets    []*model.Widget
	unsourced  []string
	started    time.Time

	mu       sync.Mutex
	reports  map[string]SourceReport
	finished time.Time
}

func (s *Session) record(report SourceReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.Source] = report
	if len(s.reports) == len(s.keys) {
		s.finished = time.Now()
	}
}

// Wait blocks until every source has settled and its widgets were
// populated, or ctx ends.
func (s *Session) Wait(ctx context.Context) error {
	if err := s.completion.Wait(ctx); err != nil {
		return err
	}
	select {
	case <-s.loop.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once every source has settled.
func (s *Session) Done() <-chan struct{} {
	return s.completion.Done()
}

// Fetched is closed once every source request has returned, which may be
// before the widgets of the last one were populated.
func (s *Session) Fetched() <-chan struct{} {
	return s.batch.Done()
}

// Ready reports whether every source has settled.
func (s *Session) Ready() bool {
	return s.completion.Ready()
}

// Widgets returns the widgets the session was started with. Their options
// are written on the session loop; read them after Wait.
func (s *Session) Widgets() []*model.Widget {
	return append([]*model.Widget(nil), s.widgets...)
}

// Gate returns the gate of formKey.
func (s *Session) Gate(formKey string) (*gate.FormGate, bool) {
	return s.gates.Gate(formKey)
}

// Forms lists the gated form keys in sorted order.
func (s *Session) Forms() []string {
	return s.gates.Keys()
}

// Submit submits formKey through its gate. While sources are loading it
// returns gate.ErrNotReady.
func (s *Session) Submit(ctx context.Context, formKey string) error {
	g, ok := s.gates.Gate(formKey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownForm, formKey)
	}
	return g.Submit(ctx)
}

// SubmitWhenReady waits for every source, then submits formKey.
func (s *Session) SubmitWhenReady(ctx context.Context, formKey string) error {
	g, ok := s.gates.Gate(formKey)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownForm, formKey)
	}
	return g.SubmitWhenReady(ctx)
}

// Report snapshots the session. Sources are listed in discovery order;
// those still loading have Settled false.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := Report{
		Session:   s.ID,
		Ready:     s.completion.Ready(),
		Unsourced: append([]string(nil), s.unsourced...),
		Forms:     make(map[string]gate.State),
	}
	if !s.finished.IsZero() {
		report.Elapsed = s.finished.Sub(s.started)
	}
	for _, key := range s.keys {
		src, ok := s.reports[key]
		if !ok {
			src = SourceReport{Source: key}
		}
		report.Sources = append(report.Sources, src)
	}
	for _, key := range s.gates.Keys() {
		if g, ok := s.gates.Gate(key); ok {
			report.Forms[key] = g.State()
		}
	}
	return report
}

// Close stops the session loop. Continuations of fetches still in flight
// run on their fetching goroutine.
func (s *Session) Close() {
	s.loop.Close()
}
