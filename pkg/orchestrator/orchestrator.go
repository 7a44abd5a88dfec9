package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-lazyselect/internal/eventloop"
	"github.com/goliatone/go-lazyselect/pkg/dispatch"
	"github.com/goliatone/go-lazyselect/pkg/dom"
	"github.com/goliatone/go-lazyselect/pkg/gate"
	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/populate"
	"github.com/goliatone/go-lazyselect/pkg/registry"
	"github.com/goliatone/go-lazyselect/pkg/source"
)

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithFetcher injects a custom option source. It replaces the default HTTP
// fetcher together with any WithHTTPOptions settings.
func WithFetcher(fetcher source.Fetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithHTTPOptions configures the default HTTP fetcher.
func WithHTTPOptions(fns ...source.OptionFn) Option {
	return func(o *Orchestrator) {
		o.httpOptions = append(o.httpOptions, fns...)
	}
}

// WithBaseURL resolves relative source locators and form actions.
func WithBaseURL(base string) Option {
	return func(o *Orchestrator) {
		o.baseURL = base
		o.httpOptions = append(o.httpOptions, source.WithBaseURL(base))
	}
}

// WithLogger sets the logger handed to every component.
func WithLogger(logger *zap.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.baseLogger = logger
		}
	}
}

// WithConcurrency bounds the number of in-flight source requests.
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		o.concurrency = n
	}
}

// WithPopulator injects a custom populator. WithFailurePolicy and
// WithPlaceholderLabel are ignored when set.
func WithPopulator(p *populate.Populator) Option {
	return func(o *Orchestrator) {
		o.populator = p
	}
}

// WithFailurePolicy selects what happens to widgets whose source failed.
func WithFailurePolicy(policy populate.FailurePolicy) Option {
	return func(o *Orchestrator) {
		o.populateOptions = append(o.populateOptions, populate.WithFailurePolicy(policy))
	}
}

// WithPlaceholderLabel overrides the label of the synthetic empty option.
func WithPlaceholderLabel(label string) Option {
	return func(o *Orchestrator) {
		o.populateOptions = append(o.populateOptions, populate.WithPlaceholderLabel(label))
	}
}

// WithNotifier receives the notice shown when a form is submitted early.
func WithNotifier(n gate.Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithSubmitter performs submissions for every gated form.
func WithSubmitter(s gate.Submitter) Option {
	return func(o *Orchestrator) {
		o.submitter = s
	}
}

// WithAttributes overrides the attribute names read from page markup.
func WithAttributes(attrs dom.Attributes) Option {
	return func(o *Orchestrator) {
		o.attrs = attrs
	}
}

// WithTransformer registers a Transformer that adjusts widgets before they
// are partitioned.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// Orchestrator starts hydration sessions. It applies sensible defaults (HTTP
// fetcher with request sharing, placeholder on failure) while remaining open
// to dependency injection for advanced callers. An Orchestrator is safe for
// concurrent use; sessions started from it share the same fetcher.
type Orchestrator struct {
	fetcher         source.Fetcher
	httpOptions     []source.OptionFn
	baseURL         string
	baseLogger      *zap.Logger
	logger          *zap.Logger
	concurrency     int
	populator       *populate.Populator
	populateOptions []populate.Option
	notifier        gate.Notifier
	submitter       gate.Submitter
	attrs           dom.Attributes
	transformer     Transformer
	overrides       map[string]SourceOverride
	dispatcher      *dispatch.Dispatcher
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations so callers
// can start with a single constructor call.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		baseLogger: zap.NewNop(),
		attrs:      dom.DefaultAttributes(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

func (o *Orchestrator) applyDefaults() {
	o.logger = o.baseLogger.Named("orchestrator")

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = source.NewHTTPFetcher(o.httpOptions...)
	}
	if len(o.overrides) > 0 {
		fetcher = &overrideFetcher{next: fetcher, overrides: o.overrides}
	}
	o.fetcher = source.Shared(fetcher)

	if o.populator == nil {
		opts := append([]populate.Option{populate.WithLogger(o.baseLogger)}, o.populateOptions...)
		o.populator = populate.New(opts...)
	}
	o.dispatcher = dispatch.New(o.fetcher,
		dispatch.WithConcurrency(o.concurrency),
		dispatch.WithLogger(o.baseLogger),
	)
}

// Requests reports how many source fetches sessions of this orchestrator
// have issued.
func (o *Orchestrator) Requests() int64 {
	return o.dispatcher.Requests()
}

// Start hydrates widgets. It returns once every source request is issued;
// use Session.Wait to block until they have all settled. Every non-empty
// FormKey among the widgets gets a gate that stays pending until then.
func (o *Orchestrator) Start(ctx context.Context, widgets []*model.Widget) (*Session, error) {
	return o.start(ctx, widgets, o.submitter)
}

func (o *Orchestrator) start(ctx context.Context, widgets []*model.Widget, submitter gate.Submitter) (*Session, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := o.initialiseErr; err != nil {
		return nil, err
	}
	if err := o.applyTransformer(ctx, widgets); err != nil {
		return nil, err
	}

	groups := registry.Partition(widgets)
	completion := gate.NewCompletion(groups.Keys())
	gates := gate.NewRegistry(completion,
		gate.WithNotifier(o.notifier),
		gate.WithLogger(o.baseLogger),
	)

	s := &Session{
		ID:         uuid.NewString(),
		completion: completion,
		gates:      gates,
		loop:       eventloop.New(),
		keys:       groups.Keys(),
		widgets:    widgets,
		reports:    make(map[string]SourceReport, groups.Len()),
		started:    time.Now(),
	}
	for _, w := range registry.Unsourced(widgets) {
		s.unsourced = append(s.unsourced, w.Label())
		o.logger.Warn("widget has no source", zap.String("session", s.ID), zap.String("widget", w.Label()))
	}
	for _, w := range widgets {
		if w == nil || w.FormKey == "" {
			continue
		}
		gates.Install(w.FormKey, submitter)
	}

	logger := o.logger.With(zap.String("session", s.ID))
	logger.Info("session started",
		zap.Int("sources", groups.Len()),
		zap.Int("widgets", groups.WidgetCount()),
		zap.Int("forms", len(gates.Keys())),
	)
	completion.OnReady(func() {
		s.loop.Close()
		logger.Info("session ready", zap.Duration("elapsed", time.Since(s.started)))
	})

	// The loop outlives ctx so every settled fetch still runs its
	// continuation and the completion resolves.
	go s.loop.Run(context.WithoutCancel(ctx))

	s.batch = o.dispatcher.Dispatch(ctx, groups, s.loop, func(key string, ws []*model.Widget, records []model.OptionRecord, err error) {
		s.record(o.apply(key, ws, records, err))
		completion.Settle(key, err)
	})
	return s, nil
}

// StartPage scans page for lazy selects and hydrates them. Without a
// configured submitter, gated forms are posted with PageSubmitter.
func (o *Orchestrator) StartPage(ctx context.Context, page *dom.Page) (*Session, error) {
	if page == nil {
		return nil, errors.New("orchestrator: page is required")
	}
	widgets, err := page.Widgets(o.attrs)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: scan page: %w", err)
	}
	submitter := o.submitter
	if submitter == nil {
		submitter = o.PageSubmitter(page)
	}
	return o.start(ctx, widgets, submitter)
}

// PageSubmitter returns a submitter posting the forms of page, resolving
// relative actions against the configured base URL.
func (o *Orchestrator) PageSubmitter(page *dom.Page, hidden ...dom.HiddenField) *dom.HTTPSubmitter {
	return &dom.HTTPSubmitter{
		Page:    page,
		Attrs:   o.attrs,
		BaseURL: o.baseURL,
		Hidden:  hidden,
	}
}

// apply runs on the session loop.
func (o *Orchestrator) apply(key string, widgets []*model.Widget, records []model.OptionRecord, err error) SourceReport {
	report := SourceReport{Source: key, Records: len(records), Settled: true, Err: err}
	for _, w := range widgets {
		var result populate.Result
		if err != nil {
			result = o.populator.PopulateFailure(w, err)
		} else {
			result = o.populator.Populate(w, records)
		}
		report.Widgets = append(report.Widgets, result)
	}
	return report
}

func (o *Orchestrator) applyTransformer(ctx context.Context, widgets []*model.Widget) error {
	if o.transformer == nil {
		return nil
	}
	if err := o.transformer.Transform(ctx, widgets); err != nil {
		return fmt.Errorf("orchestrator: transform widgets: %w", err)
	}
	return nil
}

func appendInitialiseError(existing, next error) error {
	if existing == nil {
		return next
	}
	return fmt.Errorf("%v; %w", existing, next)
}
