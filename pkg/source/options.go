package source

import (
	"net/http"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 4 << 20
)

// Options configures an HTTPFetcher.
type Options struct {
	// Client performs requests. A client with Timeout is created when nil.
	Client *http.Client
	// BaseURL resolves relative locators such as "/opts".
	BaseURL string
	// Timeout bounds each request. Zero falls back to 10s.
	Timeout time.Duration
	// Headers are added to every request.
	Headers map[string]string
	// MaxBodyBytes caps the response body. Zero falls back to 4 MiB.
	MaxBodyBytes int64
}

// OptionFn mutates Options.
type OptionFn func(*Options)

// DefaultOptions returns the fetcher defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:      defaultTimeout,
		MaxBodyBytes: defaultMaxBytes,
		Headers: map[string]string{
			"Accept":           "application/json",
			"X-Requested-With": "XMLHttpRequest",
		},
	}
}

// NewOptions applies fns over the defaults and clamps invalid values.
func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBytes
	}
	if opts.Headers != nil {
		headers := make(map[string]string, len(opts.Headers))
		for key, value := range opts.Headers {
			headers[key] = value
		}
		opts.Headers = headers
	}
	return opts
}

// WithClient sets the HTTP client.
func WithClient(client *http.Client) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Client = client
	}
}

// WithBaseURL sets the URL relative locators are resolved against.
func WithBaseURL(base string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.BaseURL = base
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Timeout = timeout
	}
}

// WithHeader adds a request header.
func WithHeader(name, value string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		o.Headers[name] = value
	}
}

// WithMaxBodyBytes caps the accepted response size.
func WithMaxBodyBytes(limit int64) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxBodyBytes = limit
	}
}
