package populate

import (
	"go.uber.org/zap"
)

// FailurePolicy decides what a widget shows when its source failed.
type FailurePolicy string

const (
	// PlaceholderOnFailure replaces the widget options with the selected
	// placeholder.
	PlaceholderOnFailure FailurePolicy = "placeholder"
	// LeaveUntouched keeps whatever the widget held before.
	LeaveUntouched FailurePolicy = "untouched"
)

// Option customises a Populator.
type Option func(*Populator)

// WithLogger sets the logger used for match and source failures.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Populator) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFailurePolicy sets the behaviour for failed sources.
func WithFailurePolicy(policy FailurePolicy) Option {
	return func(p *Populator) {
		switch policy {
		case PlaceholderOnFailure, LeaveUntouched:
			p.policy = policy
		}
	}
}

// WithPlaceholderLabel overrides the placeholder label.
func WithPlaceholderLabel(label string) Option {
	return func(p *Populator) {
		if label != "" {
			p.placeholderLabel = label
		}
	}
}
