package model

// DefaultSelectedMarker is the attribute used to mark a pre-selected option
// when a widget does not declare its own marker.
const DefaultSelectedMarker = "selected"

// PlaceholderLabel is the label of the synthetic "no selection" option.
const PlaceholderLabel = "---------"

// OptionRecord is a value/label pair produced by a remote source response.
type OptionRecord struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Option is an entry appended to a widget during population.
type Option struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Selected    bool   `json:"selected,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Placeholder returns the synthetic option appended when nothing matched.
func Placeholder() Option {
	return Option{
		Value:       "",
		Label:       PlaceholderLabel,
		Selected:    true,
		Placeholder: true,
	}
}

// Element is the host-side binding of a widget (for example a <select>
// node). ReplaceOptions receives the complete populated list and must
// discard whatever a previous population appended.
type Element interface {
	ReplaceOptions(options []Option, marker string)
}

// Widget is a selection input managed by the loader.
type Widget struct {
	// ID identifies the widget in logs and reports (element id or name).
	ID string
	// Name is the form control name used when collecting submissions.
	Name string
	// SourceID is the opaque locator of the remote option source.
	SourceID string
	// PriorValue holds the persisted selection: a plain string, or a JSON
	// array when AllowsMultiple is set.
	PriorValue string
	// AllowsMultiple switches matching to set membership.
	AllowsMultiple bool
	// SelectedMarker names the attribute that marks a pre-selected option.
	SelectedMarker string
	// FormKey identifies the form that owns the widget; empty when the
	// widget has no enclosing form.
	FormKey string

	// Options holds the last populated option list.
	Options []Option

	// Element, when set, receives every populated option list.
	Element Element
}

// Marker returns the selected-marker attribute, falling back to
// DefaultSelectedMarker.
func (w *Widget) Marker() string {
	if w == nil || w.SelectedMarker == "" {
		return DefaultSelectedMarker
	}
	return w.SelectedMarker
}

// Label returns the identifier used for the widget in logs.
func (w *Widget) Label() string {
	if w == nil {
		return ""
	}
	if w.ID != "" {
		return w.ID
	}
	return w.Name
}

// SetOptions replaces the populated options and forwards them to the bound
// element.
func (w *Widget) SetOptions(options []Option) {
	if w == nil {
		return
	}
	w.Options = append([]Option(nil), options...)
	if w.Element != nil {
		w.Element.ReplaceOptions(append([]Option(nil), options...), w.Marker())
	}
}

// SelectedValues returns the values of every selected option in order.
func (w *Widget) SelectedValues() []string {
	if w == nil {
		return nil
	}
	var out []string
	for _, option := range w.Options {
		if option.Selected {
			out = append(out, option.Value)
		}
	}
	return out
}

// Choose marks exactly the options whose value is in values as selected.
// Single-value widgets keep only the first match.
func (w *Widget) Choose(values ...string) {
	if w == nil {
		return
	}
	wanted := make(map[string]struct{}, len(values))
	for _, value := range values {
		wanted[value] = struct{}{}
	}
	options := append([]Option(nil), w.Options...)
	picked := false
	for i := range options {
		_, ok := wanted[options[i].Value]
		if ok && !w.AllowsMultiple && picked {
			ok = false
		}
		options[i].Selected = ok
		if ok {
			picked = true
		}
	}
	w.SetOptions(options)
}
