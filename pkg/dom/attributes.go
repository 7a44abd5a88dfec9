package dom

import "strings"

// LazyOptionAttr tags option nodes appended by the loader.
const LazyOptionAttr = "data-lazy-option"

// Attributes names the declaration surface read from each <select>.
type Attributes struct {
	// Source holds the remote option locator.
	Source string
	// Value holds the prior selection (string or JSON array).
	Value string
	// Multiple is a presence-based boolean.
	Multiple string
	// Marker names the attribute holding the selected-marker attribute name.
	Marker string
}

// DefaultAttributes returns the attribute names used by the bundled markup.
func DefaultAttributes() Attributes {
	return Attributes{
		Source:   "data-lazy-source",
		Value:    "data-lazy-value",
		Multiple: "multiple",
		Marker:   "data-lazy-selected-attr",
	}
}

func (a Attributes) withDefaults() Attributes {
	def := DefaultAttributes()
	if strings.TrimSpace(a.Source) == "" {
		a.Source = def.Source
	}
	if strings.TrimSpace(a.Value) == "" {
		a.Value = def.Value
	}
	if strings.TrimSpace(a.Multiple) == "" {
		a.Multiple = def.Multiple
	}
	if strings.TrimSpace(a.Marker) == "" {
		a.Marker = def.Marker
	}
	return a
}
