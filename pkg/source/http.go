package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// HTTPFetcher issues GET requests against source locators.
type HTTPFetcher struct {
	client   *http.Client
	base     *url.URL
	headers  map[string]string
	maxBytes int64
	baseErr  error
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher builds a fetcher with defaults plus any overrides.
func NewHTTPFetcher(fns ...OptionFn) *HTTPFetcher {
	return NewHTTPFetcherWithOptions(NewOptions(fns...))
}

// NewHTTPFetcherWithOptions builds a fetcher from a pre-constructed Options
// value.
func NewHTTPFetcherWithOptions(opts Options) *HTTPFetcher {
	opts = NewOptions(func(o *Options) { *o = opts })

	var client *http.Client
	if opts.Client != nil {
		clone := *opts.Client
		if clone.Timeout == 0 {
			clone.Timeout = opts.Timeout
		}
		client = &clone
	} else {
		client = &http.Client{Timeout: opts.Timeout}
	}

	f := &HTTPFetcher{
		client:   client,
		headers:  opts.Headers,
		maxBytes: opts.MaxBodyBytes,
	}
	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		parsed, err := url.Parse(base)
		if err != nil {
			f.baseErr = fmt.Errorf("source: invalid base url %q: %w", base, err)
		} else {
			f.base = parsed
		}
	}
	return f
}

// Fetch retrieves and decodes the option list of sourceID.
func (f *HTTPFetcher) Fetch(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
	if f == nil {
		return nil, failed(sourceID, errors.New("fetcher is nil"))
	}
	if f.baseErr != nil {
		return nil, failed(sourceID, f.baseErr)
	}

	target, err := f.Resolve(sourceID)
	if err != nil {
		return nil, failed(sourceID, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, failed(sourceID, err)
	}
	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, failed(sourceID, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, failed(sourceID, StatusError{Code: resp.StatusCode, Status: resp.Status})
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, failed(sourceID, err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, failed(sourceID, fmt.Errorf("response exceeds %d bytes", f.maxBytes))
	}

	records, err := Decode(data)
	if err != nil {
		return nil, malformed(sourceID, err)
	}
	return records, nil
}

// Resolve turns a locator into an absolute URL using the configured base.
func (f *HTTPFetcher) Resolve(sourceID string) (string, error) {
	locator := strings.TrimSpace(sourceID)
	if locator == "" {
		return "", errors.New("empty source locator")
	}
	ref, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("invalid source locator: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	if f == nil || f.base == nil {
		return "", fmt.Errorf("relative source locator %q requires a base url", locator)
	}
	return f.base.ResolveReference(ref).String(), nil
}
