package gate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// WaitNotice is shown when a form is submitted before its fields loaded.
const WaitNotice = "wait for fields to load"

var (
	// ErrNotReady is returned when a form is submitted while loads are pending.
	ErrNotReady = errors.New("gate: fields are still loading")
	// ErrAlreadySubmitted is returned for a second submission of a form.
	ErrAlreadySubmitted = errors.New("gate: form already submitted")
)

// State is the lifecycle position of a FormGate.
type State int

const (
	StatePending State = iota
	StateReady
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	case StateSubmitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Submitter performs the actual submission of a form.
type Submitter interface {
	Submit(ctx context.Context, formKey string) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, formKey string) error

// Submit calls f.
func (f SubmitterFunc) Submit(ctx context.Context, formKey string) error {
	return f(ctx, formKey)
}

// Notifier surfaces a blocking notice to the user.
type Notifier interface {
	Notify(ctx context.Context, formKey, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, formKey, message string)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, formKey, message string) {
	f(ctx, formKey, message)
}

// FormGate intercepts submission of one form.
type FormGate struct {
	key        string
	submitter  Submitter
	notifier   Notifier
	completion *Completion
	logger     *zap.Logger

	mu    sync.Mutex
	state State
}

// Key returns the form key.
func (g *FormGate) Key() string { return g.key }

// State returns the current state.
func (g *FormGate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *FormGate) markReady() {
	g.mu.Lock()
	if g.state == StatePending {
		g.state = StateReady
	}
	g.mu.Unlock()
	g.logger.Debug("form ready", zap.String("form", g.key))
}

// Submit submits the form when ready. While pending it notifies the user
// and returns ErrNotReady without submitting.
func (g *FormGate) Submit(ctx context.Context) error {
	g.mu.Lock()
	switch g.state {
	case StatePending:
		g.mu.Unlock()
		g.logger.Info("submission held", zap.String("form", g.key))
		if g.notifier != nil {
			g.notifier.Notify(ctx, g.key, WaitNotice)
		}
		return ErrNotReady
	case StateSubmitted:
		g.mu.Unlock()
		return ErrAlreadySubmitted
	}
	// Claim the submission so concurrent callers cannot double submit.
	g.state = StateSubmitted
	g.mu.Unlock()

	if g.submitter == nil {
		return nil
	}
	if err := g.submitter.Submit(ctx, g.key); err != nil {
		g.mu.Lock()
		g.state = StateReady
		g.mu.Unlock()
		g.logger.Warn("submission failed", zap.String("form", g.key), zap.Error(err))
		return fmt.Errorf("gate: submit %s: %w", g.key, err)
	}
	g.logger.Info("form submitted", zap.String("form", g.key))
	return nil
}

// SubmitWhenReady waits for every load to settle, then submits.
func (g *FormGate) SubmitWhenReady(ctx context.Context) error {
	if err := g.completion.Wait(ctx); err != nil {
		return err
	}
	g.markReady()
	return g.Submit(ctx)
}
