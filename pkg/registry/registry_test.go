package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

func TestPartition_GroupsBySource(t *testing.T) {
	widgets := []*model.Widget{
		{ID: "author", SourceID: "/authors"},
		{ID: "tags", SourceID: "/tags"},
		{ID: "editor", SourceID: "/authors"},
		nil,
		{ID: "reviewer", SourceID: " /authors "},
	}

	groups := Partition(widgets)

	if diff := cmp.Diff([]string{"/authors", "/tags"}, groups.Keys()); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"reviewer", "editor", "author"}, ids(groups.Widgets("/authors"))); diff != "" {
		t.Fatalf("authors group mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"tags"}, ids(groups.Widgets("/tags"))); diff != "" {
		t.Fatalf("tags group mismatch (-want +got):\n%s", diff)
	}
}

func TestPartition_EveryWidgetInExactlyOneGroup(t *testing.T) {
	widgets := []*model.Widget{
		{ID: "a", SourceID: "/x"},
		{ID: "b", SourceID: "/y"},
		{ID: "c", SourceID: "/x"},
		{ID: "d", SourceID: "/z"},
	}
	groups := Partition(widgets)

	seen := map[string]int{}
	for _, key := range groups.Keys() {
		for _, w := range groups.Widgets(key) {
			if w.SourceID != key {
				t.Fatalf("widget %s with source %s filed under %s", w.ID, w.SourceID, key)
			}
			seen[w.ID]++
		}
	}
	for _, w := range widgets {
		if seen[w.ID] != 1 {
			t.Fatalf("widget %s appears %d times", w.ID, seen[w.ID])
		}
	}
}

func TestPartition_EmptyInput(t *testing.T) {
	groups := Partition(nil)
	if groups.Len() != 0 {
		t.Fatalf("expected no groups, got %d", groups.Len())
	}
}

func TestUnsourced(t *testing.T) {
	widgets := []*model.Widget{
		{ID: "a", SourceID: "/x"},
		{ID: "b", SourceID: "  "},
		{ID: "c"},
	}
	groups := Partition(widgets)
	if groups.WidgetCount() != 1 {
		t.Fatalf("expected only sourced widgets to be grouped, got %d", groups.WidgetCount())
	}
	if diff := cmp.Diff([]string{"b", "c"}, ids(Unsourced(widgets))); diff != "" {
		t.Fatalf("unsourced mismatch (-want +got):\n%s", diff)
	}
}

func ids(widgets []*model.Widget) []string {
	out := make([]string, 0, len(widgets))
	for _, w := range widgets {
		out = append(out, w.ID)
	}
	return out
}
