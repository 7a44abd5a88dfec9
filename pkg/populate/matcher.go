package populate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// ErrMatchParse reports a multi-value prior value that is not a JSON array.
var ErrMatchParse = errors.New("populate: prior value is not a serialized list")

// ParseError carries the widget and raw value of a failed prior parse.
type ParseError struct {
	Widget string
	Raw    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%v: widget %q: %q: %v", ErrMatchParse, e.Widget, e.Raw, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrMatchParse }

func (e *ParseError) Unwrap() error { return e.Err }

// Prior is a compiled prior selection. The zero value matches nothing.
type Prior struct {
	multiple bool
	single   string
	set      map[string]struct{}
}

// ParsePrior compiles the prior selection of w. Exactly one rule applies,
// chosen by AllowsMultiple. A malformed multi-value prior returns a
// *ParseError together with a Prior that matches nothing.
func ParsePrior(w *model.Widget) (Prior, error) {
	if w == nil {
		return Prior{}, nil
	}
	if !w.AllowsMultiple {
		return Prior{single: w.PriorValue}, nil
	}

	prior := Prior{multiple: true, set: map[string]struct{}{}}
	raw := strings.TrimSpace(w.PriorValue)
	if raw == "" {
		return prior, nil
	}

	values, err := parseList(raw)
	if err != nil {
		return Prior{multiple: true}, &ParseError{Widget: w.Label(), Raw: w.PriorValue, Err: err}
	}
	for _, value := range values {
		prior.set[value] = struct{}{}
	}
	return prior, nil
}

// Matches reports whether an option value is part of the prior selection.
func (p Prior) Matches(value string) bool {
	if p.multiple {
		_, ok := p.set[value]
		return ok
	}
	return p.single == value
}

// Multiple reports whether set membership applies.
func (p Prior) Multiple() bool { return p.multiple }

func parseList(raw string) ([]string, error) {
	var members []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &members); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(members))
	for idx, member := range members {
		member = bytes.TrimSpace(member)
		if bytes.Equal(member, []byte("null")) {
			return nil, fmt.Errorf("member %d is null", idx)
		}
		var s string
		if err := json.Unmarshal(member, &s); err == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(member, &n); err == nil {
			out = append(out, n.String())
			continue
		}
		return nil, fmt.Errorf("member %d is not a string or number", idx)
	}
	return out, nil
}
