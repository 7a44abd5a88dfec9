package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-lazyselect/pkg/dom"
	"github.com/goliatone/go-lazyselect/pkg/orchestrator"
)

// createOutput opens the file named by --output.
var createOutput = func(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func newHydrateCmd(root *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "hydrate [file|-]",
		Short: "Load the options of every lazy select and write the document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = root.logger.Sync() }()

			page, err := loadPage(cmd, args, cfg.PageOptions()...)
			if err != nil {
				return err
			}
			orch := orchestrator.New(cfg.OrchestratorOptions(root.logger)...)
			session, err := orch.StartPage(cmd.Context(), page)
			if err != nil {
				return err
			}
			defer session.Close()
			if err := session.Wait(cmd.Context()); err != nil {
				return fmt.Errorf("wait for sources: %w", err)
			}

			if err := writeOutput(cmd.OutOrStdout(), output, page); err != nil {
				return err
			}

			report := session.Report()
			errOut := cmd.ErrOrStderr()
			for _, src := range report.Sources {
				status := "ok"
				if src.Err != nil {
					status = src.Err.Error()
				}
				fmt.Fprintf(errOut, "%s\t%d widget(s)\t%d option(s)\t%s\n", src.Source, len(src.Widgets), src.Records, status)
			}
			for _, name := range report.Unsourced {
				fmt.Fprintf(errOut, "%s\tno source\n", name)
			}
			printReport(errOut, len(report.Sources), len(report.Failed()), report.Elapsed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	return cmd
}

// writeOutput renders page to the file at path, or to w when path is empty.
// A failed close is reported since it can lose buffered output.
func writeOutput(w io.Writer, path string, page *dom.Page) (err error) {
	if path == "" {
		return page.Render(w)
	}
	file, err := createOutput(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	return page.Render(file)
}
