package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-lazyselect/internal/prompt"
	"github.com/goliatone/go-lazyselect/pkg/dom"
	"github.com/goliatone/go-lazyselect/pkg/gate"
	"github.com/goliatone/go-lazyselect/pkg/orchestrator"
)

func newReviewCmd(root *rootOptions) *cobra.Command {
	var (
		dryRun bool
		hidden map[string]string
	)

	cmd := &cobra.Command{
		Use:   "review [file|-]",
		Short: "Hydrate, review each selection interactively, and submit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = root.logger.Sync() }()
			driver := root.driver
			if driver == nil {
				driver = prompt.NewSurveyDriver(cmd.OutOrStdout())
			}

			page, err := loadPage(cmd, args, cfg.PageOptions()...)
			if err != nil {
				return err
			}

			fields := make([]dom.HiddenField, 0, len(hidden))
			for name, value := range hidden {
				fields = append(fields, dom.Hidden(name, value))
			}
			submitter := &dom.HTTPSubmitter{
				Page:    page,
				Attrs:   cfg.Attributes(),
				BaseURL: cfg.Source.BaseURL,
				Hidden:  fields,
			}

			opts := append(cfg.OrchestratorOptions(root.logger),
				orchestrator.WithSubmitter(submitter),
				orchestrator.WithNotifier(gate.NotifierFunc(func(ctx context.Context, formKey, message string) {
					_ = driver.Info(ctx, formKey+": "+message)
				})),
			)
			session, err := orchestrator.New(opts...).StartPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			defer session.Close()
			if err := session.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("wait for sources: %w", err)
			}

			if _, err := prompt.Review(cmd.Context(), driver, session.Widgets()); err != nil {
				return err
			}

			for _, formKey := range session.Forms() {
				ok, err := prompt.ConfirmSubmit(cmd.Context(), driver, formKey)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				if dryRun {
					values, err := page.FormValues(formKey, cfg.Attributes(), fields...)
					if err != nil {
						return err
					}
					if err := driver.Info(cmd.Context(), formatValues(formKey, values)); err != nil {
						return err
					}
					continue
				}
				if err := session.Submit(cmd.Context(), formKey); err != nil {
					return err
				}
				if err := driver.Info(cmd.Context(), "submitted "+formKey); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print form values instead of submitting")
	cmd.Flags().StringToStringVar(&hidden, "hidden", nil, "extra hidden field name=value sent with every form")
	return cmd
}

func formatValues(formKey string, values map[string][]string) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(formKey)
	for _, name := range names {
		fmt.Fprintf(&b, "\n  %s=%s", name, strings.Join(values[name], ","))
	}
	return b.String()
}
