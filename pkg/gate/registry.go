package gate

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry owns the gates of one session, keyed by form.
type Registry struct {
	completion *Completion
	notifier   Notifier
	logger     *zap.Logger

	mu    sync.Mutex
	gates map[string]*FormGate
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithNotifier sets the notifier used by every gate.
func WithNotifier(n Notifier) RegistryOption {
	return func(r *Registry) {
		r.notifier = n
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry binds gates to completion.
func NewRegistry(completion *Completion, options ...RegistryOption) *Registry {
	if completion == nil {
		completion = NewCompletion(nil)
	}
	r := &Registry{
		completion: completion,
		logger:     zap.NewNop(),
		gates:      make(map[string]*FormGate),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	r.logger = r.logger.Named("gate")
	return r
}

// Install returns the gate of formKey, creating it on first use. Installing
// the same form twice returns the existing gate; the first submitter wins.
func (r *Registry) Install(formKey string, submitter Submitter) *FormGate {
	r.mu.Lock()
	if existing, ok := r.gates[formKey]; ok {
		r.mu.Unlock()
		return existing
	}
	g := &FormGate{
		key:        formKey,
		submitter:  submitter,
		notifier:   r.notifier,
		completion: r.completion,
		logger:     r.logger,
		state:      StatePending,
	}
	r.gates[formKey] = g
	r.mu.Unlock()

	r.completion.OnReady(g.markReady)
	return g
}

// Gate returns the gate of formKey.
func (r *Registry) Gate(formKey string) (*FormGate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.gates[formKey]
	return g, ok
}

// Keys lists the installed form keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.gates))
	for key := range r.gates {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
