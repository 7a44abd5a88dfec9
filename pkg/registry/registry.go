// Package registry partitions widgets by their remote source so that widgets
// sharing a source trigger exactly one fetch.
package registry

import (
	"strings"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

// Partition groups widgets by SourceID. Later widgets under an existing key
// are prepended. Nil widgets and widgets without a source are skipped; an
// empty input yields an empty grouping.
func Partition(widgets []*model.Widget) *model.SourceGroups {
	groups := model.NewSourceGroups()
	for _, widget := range widgets {
		if widget == nil {
			continue
		}
		key := strings.TrimSpace(widget.SourceID)
		if key == "" {
			continue
		}
		groups.Add(key, widget)
	}
	return groups
}

// Unsourced returns the widgets Partition skipped because they declare no
// source.
func Unsourced(widgets []*model.Widget) []*model.Widget {
	var out []*model.Widget
	for _, widget := range widgets {
		if widget == nil {
			continue
		}
		if strings.TrimSpace(widget.SourceID) == "" {
			out = append(out, widget)
		}
	}
	return out
}
