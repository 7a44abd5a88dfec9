package model

// SourceGroups maps source identifiers to the widgets that declared them.
// Keys keep first-discovery order; widgets under one key are held in reverse
// discovery order because later widgets are prepended.
type SourceGroups struct {
	keys    []string
	members map[string][]*Widget
}

// NewSourceGroups returns an empty grouping.
func NewSourceGroups() *SourceGroups {
	return &SourceGroups{members: make(map[string][]*Widget)}
}

// Add registers widget under key, prepending it when the key already exists.
func (g *SourceGroups) Add(key string, widget *Widget) {
	if g.members == nil {
		g.members = make(map[string][]*Widget)
	}
	existing, ok := g.members[key]
	if !ok {
		g.keys = append(g.keys, key)
		g.members[key] = []*Widget{widget}
		return
	}
	list := make([]*Widget, 0, len(existing)+1)
	list = append(list, widget)
	list = append(list, existing...)
	g.members[key] = list
}

// Keys returns the source identifiers in first-discovery order.
func (g *SourceGroups) Keys() []string {
	if g == nil {
		return nil
	}
	return append([]string(nil), g.keys...)
}

// Widgets returns the widgets registered under key.
func (g *SourceGroups) Widgets(key string) []*Widget {
	if g == nil {
		return nil
	}
	return append([]*Widget(nil), g.members[key]...)
}

// Len reports the number of distinct sources.
func (g *SourceGroups) Len() int {
	if g == nil {
		return 0
	}
	return len(g.keys)
}

// WidgetCount reports the number of widgets across every source.
func (g *SourceGroups) WidgetCount() int {
	if g == nil {
		return 0
	}
	total := 0
	for _, list := range g.members {
		total += len(list)
	}
	return total
}
