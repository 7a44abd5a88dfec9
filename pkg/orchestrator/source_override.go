package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/source"
)

// SourceOverride rewrites a declared source locator before it is fetched.
// Widgets keep their declared SourceID, so grouping is unaffected.
type SourceOverride struct {
	// Source is the locator as declared on the widgets.
	Source string
	// URL replaces the locator. Empty keeps the declared one.
	URL string
	// Params are added to the query string, replacing existing values.
	Params map[string]string
}

// WithSourceOverrides registers locator overrides. Invalid overrides are
// reported by Start.
func WithSourceOverrides(overrides []SourceOverride) Option {
	cloned := cloneSourceOverrides(overrides)
	return func(o *Orchestrator) {
		if len(cloned) == 0 || o == nil {
			return
		}
		if o.overrides == nil {
			o.overrides = make(map[string]SourceOverride)
		}
		for _, override := range cloned {
			if err := validateSourceOverride(override); err != nil {
				o.initialiseErr = appendInitialiseError(o.initialiseErr, err)
				continue
			}
			o.overrides[strings.TrimSpace(override.Source)] = override
		}
	}
}

func cloneSourceOverrides(overrides []SourceOverride) []SourceOverride {
	if len(overrides) == 0 {
		return nil
	}
	cloned := make([]SourceOverride, 0, len(overrides))
	for _, override := range overrides {
		copied := override
		if len(override.Params) > 0 {
			copied.Params = cloneStringMap(override.Params)
		}
		cloned = append(cloned, copied)
	}
	return cloned
}

func cloneStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func validateSourceOverride(override SourceOverride) error {
	if strings.TrimSpace(override.Source) == "" {
		return errors.New("orchestrator: source override missing source")
	}
	if strings.TrimSpace(override.URL) == "" && len(override.Params) == 0 {
		return fmt.Errorf("orchestrator: source override %q has neither url nor params", override.Source)
	}
	if _, err := override.locator(override.Source); err != nil {
		return err
	}
	return nil
}

func (s SourceOverride) locator(declared string) (string, error) {
	target := strings.TrimSpace(s.URL)
	if target == "" {
		target = declared
	}
	if len(s.Params) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("orchestrator: source override %q: %w", s.Source, err)
	}
	query := u.Query()
	for _, key := range sortedKeys(s.Params) {
		query.Set(key, s.Params[key])
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// overrideFetcher fetches the overridden locator of a source.
type overrideFetcher struct {
	next      source.Fetcher
	overrides map[string]SourceOverride
}

func (f *overrideFetcher) Fetch(ctx context.Context, sourceID string) ([]model.OptionRecord, error) {
	override, ok := f.overrides[sourceID]
	if !ok {
		return f.next.Fetch(ctx, sourceID)
	}
	target, err := override.locator(sourceID)
	if err != nil {
		return nil, &source.Error{Source: sourceID, Kind: source.ErrFetchFailed, Err: err}
	}
	return f.next.Fetch(ctx, target)
}
