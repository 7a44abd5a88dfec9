// Package dispatch issues one fetch per source group and hands every
// response to all widgets registered under that source.
package dispatch

import (
	"context"
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-lazyselect/internal/eventloop"
	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/source"
)

const defaultConcurrency = 8

// Handler is the continuation of one source fetch. It receives the widgets
// of the group together with either the records or the fetch error.
type Handler func(key string, widgets []*model.Widget, records []model.OptionRecord, err error)

// Poster schedules continuations. *eventloop.Loop satisfies it.
type Poster interface {
	Post(task eventloop.Task) error
}

// Option customises a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency bounds the number of in-flight requests. Values below 1
// fall back to the default.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Dispatcher fans source fetches out and their results back in.
type Dispatcher struct {
	fetcher     source.Fetcher
	concurrency int
	logger      *zap.Logger
	requests    atomic.Int64
}

// New builds a Dispatcher around fetcher.
func New(fetcher source.Fetcher, options ...Option) *Dispatcher {
	d := &Dispatcher{
		fetcher:     fetcher,
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(d)
	}
	d.logger = d.logger.Named("dispatch")
	return d
}

// Requests reports how many fetches this dispatcher has issued.
func (d *Dispatcher) Requests() int64 {
	return d.requests.Load()
}

// Batch tracks the fetches of one Dispatch call.
type Batch struct {
	done chan struct{}
}

// Done is closed when every fetch of the batch has returned and its
// continuation was scheduled.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Dispatch starts exactly one fetch per key of groups and returns without
// waiting, even when more keys exist than the concurrency limit admits. Each result is posted to poster and handled there; a failed
// source never affects the others. When poster refuses the task the
// handler runs on the fetching goroutine.
func (d *Dispatcher) Dispatch(ctx context.Context, groups *model.SourceGroups, poster Poster, handle Handler) *Batch {
	batch := &Batch{done: make(chan struct{})}
	keys := groups.Keys()
	if len(keys) == 0 {
		close(batch.done)
		return batch
	}

	type job struct {
		key     string
		widgets []*model.Widget
	}
	jobs := make([]job, 0, len(keys))
	for _, key := range keys {
		widgets := groups.Widgets(key)
		d.requests.Add(1)
		d.logger.Debug("fetch issued", zap.String("source", key), zap.Int("widgets", len(widgets)))
		jobs = append(jobs, job{key: key, widgets: widgets})
	}

	// errgroup blocks Go once the limit is reached, so admission happens
	// off the caller's goroutine.
	go func() {
		defer close(batch.done)
		var eg errgroup.Group
		eg.SetLimit(d.concurrency)
		for _, j := range jobs {
			j := j
			eg.Go(func() error {
				records, err := d.fetch(ctx, j.key)
				if err != nil {
					d.logFailure(j.key, err)
				} else {
					d.logger.Debug("fetch settled", zap.String("source", j.key), zap.Int("records", len(records)))
				}
				d.deliver(poster, handle, j.key, j.widgets, records, err)
				// Failures stay local to their group.
				return nil
			})
		}
		_ = eg.Wait()
	}()
	return batch
}

func (d *Dispatcher) fetch(ctx context.Context, key string) ([]model.OptionRecord, error) {
	if d.fetcher == nil {
		return nil, &source.Error{Source: key, Kind: source.ErrFetchFailed, Err: errors.New("no fetcher configured")}
	}
	if err := ctx.Err(); err != nil {
		return nil, &source.Error{Source: key, Kind: source.ErrFetchFailed, Err: err}
	}
	records, err := d.fetcher.Fetch(ctx, key)
	if err != nil {
		var srcErr *source.Error
		if !errors.As(err, &srcErr) {
			err = &source.Error{Source: key, Kind: source.ErrFetchFailed, Err: err}
		}
		return nil, err
	}
	return records, nil
}

func (d *Dispatcher) deliver(poster Poster, handle Handler, key string, widgets []*model.Widget, records []model.OptionRecord, err error) {
	if handle == nil {
		return
	}
	task := func() { handle(key, widgets, records, err) }
	if poster == nil {
		task()
		return
	}
	if postErr := poster.Post(task); postErr != nil {
		d.logger.Warn("continuation not scheduled, running inline",
			zap.String("source", key),
			zap.Error(postErr),
		)
		task()
	}
}

func (d *Dispatcher) logFailure(key string, err error) {
	kind := "fetch_failed"
	if source.IsMalformed(err) {
		kind = "malformed_response"
	}
	d.logger.Error("source failed",
		zap.String("source", key),
		zap.String("kind", kind),
		zap.Error(err),
	)
}
