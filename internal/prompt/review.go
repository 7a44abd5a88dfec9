package prompt

import (
	"context"
	"fmt"

	"github.com/goliatone/go-lazyselect/pkg/model"
)

const pageSize = 12

// Review asks the user to confirm or change the selection of every widget
// that has options. It returns how many widgets changed.
func Review(ctx context.Context, driver Driver, widgets []*model.Widget) (int, error) {
	if driver == nil {
		return 0, fmt.Errorf("prompt: driver is required")
	}
	changed := 0
	for _, w := range widgets {
		if w == nil || len(w.Options) == 0 {
			continue
		}
		labels, current := choices(w)
		cfg := SelectConfig{
			Message:  message(w),
			Options:  labels,
			Help:     "source " + w.SourceID,
			PageSize: pageSize,
		}

		var picked []int
		if w.AllowsMultiple {
			cfg.Defaults = current
			indices, err := driver.MultiSelect(ctx, cfg)
			if err != nil {
				return changed, err
			}
			picked = indices
		} else {
			cfg.DefaultIndex = -1
			if len(current) > 0 {
				cfg.DefaultIndex = current[0]
			}
			idx, err := driver.Select(ctx, cfg)
			if err != nil {
				return changed, err
			}
			if idx >= 0 {
				picked = []int{idx}
			}
		}

		if applySelection(w, picked) {
			changed++
		}
	}
	return changed, nil
}

// ConfirmSubmit asks whether formKey should be submitted.
func ConfirmSubmit(ctx context.Context, driver Driver, formKey string) (bool, error) {
	return driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Submit form %q?", formKey),
		Default: true,
	})
}

func message(w *model.Widget) string {
	if w.Name != "" {
		return w.Name
	}
	return w.Label()
}

func choices(w *model.Widget) ([]string, []int) {
	labels := make([]string, 0, len(w.Options))
	var current []int
	for i, option := range w.Options {
		label := option.Label
		if label == "" {
			label = option.Value
		}
		labels = append(labels, label)
		if option.Selected {
			current = append(current, i)
		}
	}
	return labels, current
}

// applySelection selects exactly the options at indices and reports
// whether anything changed.
func applySelection(w *model.Widget, indices []int) bool {
	picked := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(w.Options) {
			continue
		}
		if !w.AllowsMultiple && len(picked) == 1 {
			break
		}
		picked[idx] = struct{}{}
	}

	options := append([]model.Option(nil), w.Options...)
	changed := false
	for i := range options {
		_, selected := picked[i]
		if options[i].Selected != selected {
			changed = true
		}
		options[i].Selected = selected
	}
	if changed {
		w.SetOptions(options)
	}
	return changed
}
