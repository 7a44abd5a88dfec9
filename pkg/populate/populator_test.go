package populate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/source"
)

var optsAB = []model.OptionRecord{{Value: "1", Label: "A"}, {Value: "2", Label: "B"}}

func TestPopulate_SingleMatch(t *testing.T) {
	w := &model.Widget{ID: "w", SourceID: "/opts", PriorValue: "2"}
	res := New().Populate(w, optsAB)

	want := []model.Option{
		{Value: "1", Label: "A"},
		{Value: "2", Label: "B", Selected: true},
	}
	if diff := cmp.Diff(want, w.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if res.Placeholder || res.Selected != 1 || res.Options != 2 {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestPopulate_NoMatchAppendsPlaceholder(t *testing.T) {
	w := &model.Widget{ID: "w", SourceID: "/opts", PriorValue: "9"}
	res := New().Populate(w, optsAB)

	want := []model.Option{
		{Value: "1", Label: "A"},
		{Value: "2", Label: "B"},
		{Value: "", Label: "---------", Selected: true, Placeholder: true},
	}
	if diff := cmp.Diff(want, w.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if !res.Placeholder {
		t.Fatalf("expected placeholder in result")
	}
}

func TestPopulate_EmptyRecordsYieldPlaceholderOnly(t *testing.T) {
	w := &model.Widget{ID: "w", PriorValue: ""}
	New().Populate(w, nil)

	want := []model.Option{model.Placeholder()}
	if diff := cmp.Diff(want, w.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
}

func TestPopulate_SingleValueSelectsAtMostOne(t *testing.T) {
	records := []model.OptionRecord{{Value: "1", Label: "A"}, {Value: "1", Label: "A again"}}
	w := &model.Widget{ID: "w", PriorValue: "1"}
	res := New().Populate(w, records)

	if got := len(w.SelectedValues()); got != 1 {
		t.Fatalf("expected one selected option, got %d", got)
	}
	if !w.Options[0].Selected || w.Options[1].Selected {
		t.Fatalf("expected first duplicate to win: %#v", w.Options)
	}
	if res.Selected != 1 {
		t.Fatalf("unexpected selected count %d", res.Selected)
	}
}

func TestPopulate_MultipleSelectsEveryMember(t *testing.T) {
	records := []model.OptionRecord{
		{Value: "1", Label: "A"},
		{Value: "2", Label: "B"},
		{Value: "3", Label: "C"},
	}
	w := &model.Widget{ID: "w", AllowsMultiple: true, PriorValue: `["1","3"]`}
	res := New().Populate(w, records)

	if diff := cmp.Diff([]string{"1", "3"}, w.SelectedValues()); diff != "" {
		t.Fatalf("selected mismatch (-want +got):\n%s", diff)
	}
	if res.Placeholder || res.Selected != 2 {
		t.Fatalf("unexpected result %#v", res)
	}
}

func TestPopulate_MalformedMultiplePriorDegradesToPlaceholder(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	p := New(WithLogger(zap.New(core)))

	w := &model.Widget{ID: "tags", SourceID: "/tags", AllowsMultiple: true, PriorValue: "1,2"}
	res := p.Populate(w, optsAB)

	if !errors.Is(res.Err, ErrMatchParse) {
		t.Fatalf("expected ErrMatchParse in result, got %v", res.Err)
	}
	if len(w.Options) != 3 || !w.Options[2].Placeholder || !w.Options[2].Selected {
		t.Fatalf("expected records plus selected placeholder, got %#v", w.Options)
	}
	if logs.FilterField(zap.String("widget", "tags")).Len() != 1 {
		t.Fatalf("expected one warning for the widget, got %d", logs.Len())
	}
}

func TestPopulate_ReplayIsIdempotent(t *testing.T) {
	el := &countingElement{}
	w := &model.Widget{ID: "w", PriorValue: "1", Element: el}
	p := New()

	p.Populate(w, optsAB)
	first := append([]model.Option(nil), w.Options...)
	p.Populate(w, optsAB)

	if diff := cmp.Diff(first, w.Options); diff != "" {
		t.Fatalf("replay changed options (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first, el.options); diff != "" {
		t.Fatalf("element diverged (-want +got):\n%s", diff)
	}
	if el.calls != 2 {
		t.Fatalf("expected two element updates, got %d", el.calls)
	}
}

func TestPopulate_CustomPlaceholderLabel(t *testing.T) {
	w := &model.Widget{ID: "w", PriorValue: "x"}
	New(WithPlaceholderLabel("(none)")).Populate(w, nil)
	if w.Options[0].Label != "(none)" {
		t.Fatalf("unexpected placeholder %#v", w.Options[0])
	}
}

func TestPopulateFailure_Policies(t *testing.T) {
	cause := &source.Error{Source: "/opts", Kind: source.ErrMalformedResponse}

	w := &model.Widget{ID: "w", PriorValue: "1"}
	res := New().PopulateFailure(w, cause)
	if diff := cmp.Diff([]model.Option{model.Placeholder()}, w.Options); diff != "" {
		t.Fatalf("placeholder policy mismatch (-want +got):\n%s", diff)
	}
	if !res.Placeholder || !errors.Is(res.Err, source.ErrMalformedResponse) {
		t.Fatalf("unexpected result %#v", res)
	}

	existing := []model.Option{{Value: "keep", Label: "Keep", Selected: true}}
	untouched := &model.Widget{ID: "u", Options: existing}
	res = New(WithFailurePolicy(LeaveUntouched)).PopulateFailure(untouched, cause)
	if diff := cmp.Diff(existing, untouched.Options); diff != "" {
		t.Fatalf("untouched policy changed options (-want +got):\n%s", diff)
	}
	if res.Placeholder {
		t.Fatalf("did not expect placeholder under LeaveUntouched")
	}
}

type countingElement struct {
	options []model.Option
	calls   int
}

func (c *countingElement) ReplaceOptions(options []model.Option, _ string) {
	c.options = options
	c.calls++
}
