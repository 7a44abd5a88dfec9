package populate

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// Result describes one population pass.
type Result struct {
	Widget      string
	Options     int
	Selected    int
	Placeholder bool
	// Err holds a ParseError when the prior value could not be parsed, or
	// the source error when PopulateFailure ran.
	Err error
}

// Populator builds option lists for widgets.
type Populator struct {
	logger           *zap.Logger
	policy           FailurePolicy
	placeholderLabel string
}

// New constructs a Populator.
func New(options ...Option) *Populator {
	p := &Populator{
		logger:           zap.NewNop(),
		policy:           PlaceholderOnFailure,
		placeholderLabel: model.PlaceholderLabel,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(p)
	}
	p.logger = p.logger.Named("populate")
	return p
}

// Policy returns the configured failure policy.
func (p *Populator) Policy() FailurePolicy {
	if p == nil {
		return PlaceholderOnFailure
	}
	return p.policy
}

// Populate replaces the options of w with one option per record, selected
// where the prior selection matches, plus a placeholder when nothing did.
// Replaying the same records yields the same list.
func (p *Populator) Populate(w *model.Widget, records []model.OptionRecord) Result {
	if w == nil {
		return Result{}
	}
	if p == nil {
		p = New()
	}

	result := Result{Widget: w.Label()}
	prior, err := ParsePrior(w)
	if err != nil {
		result.Err = err
		p.logger.Warn("prior value unreadable, restoring no selection",
			zap.String("widget", w.Label()),
			zap.String("source", w.SourceID),
			zap.Error(err),
		)
	}

	options := make([]model.Option, 0, len(records)+1)
	matched := false
	for _, record := range records {
		option := model.Option{Value: record.Value, Label: record.Label}
		if prior.Matches(record.Value) {
			if !prior.Multiple() && matched {
				// Duplicate values in a single-value source select the first.
				options = append(options, option)
				continue
			}
			option.Selected = true
			matched = true
			result.Selected++
		}
		options = append(options, option)
	}
	if !matched {
		options = append(options, p.placeholder())
		result.Placeholder = true
		result.Selected = 1
	}

	result.Options = len(options)
	w.SetOptions(options)
	return result
}

// PopulateFailure applies the failure policy to w after its source failed.
func (p *Populator) PopulateFailure(w *model.Widget, cause error) Result {
	if w == nil {
		return Result{}
	}
	if p == nil {
		p = New()
	}
	result := Result{Widget: w.Label(), Err: cause, Options: len(w.Options)}
	if p.policy == LeaveUntouched {
		return result
	}
	w.SetOptions([]model.Option{p.placeholder()})
	result.Options = 1
	result.Selected = 1
	result.Placeholder = true
	return result
}

func (p *Populator) placeholder() model.Option {
	option := model.Placeholder()
	option.Label = p.placeholderLabel
	return option
}
