package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-lazyselect/internal/config"
	"github.com/goliatone/go-lazyselect/internal/prompt"
	"github.com/goliatone/go-lazyselect/pkg/dom"
)

type rootOptions struct {
	configPath string
	logger     *zap.Logger
	driver     prompt.Driver
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	def := config.Default()

	cmd := &cobra.Command{
		Use:           "lazyselect",
		Short:         "Hydrate lazy select elements from their option sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.String("base-url", def.Source.BaseURL, "base URL for relative sources and form actions")
	flags.Duration("timeout", def.Source.Timeout, "timeout of each source request")
	flags.Int("concurrency", def.Dispatch.Concurrency, "maximum in-flight source requests")
	flags.Bool("placeholder-on-failure", def.Populate.PlaceholderOnFailure, "replace options of failed sources with the placeholder")
	flags.Bool("debug", def.Debug, "development logging")
	flags.Bool("strip-label-markup", def.Markup.StripLabelMarkup, "reduce option labels to plain text")

	cmd.AddCommand(
		newHydrateCmd(opts),
		newReviewCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// load reads the configuration and builds the logger.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.configPath, cmd.Flags())
	if err != nil {
		return config.Config{}, err
	}
	if o.logger == nil {
		logger, err := newLogger(cfg.Debug)
		if err != nil {
			return config.Config{}, err
		}
		o.logger = logger
	}
	return cfg, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// openInput returns the named file, or stdin for "" and "-".
func openInput(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	if name == "" || name == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return file, nil
}

func loadPage(cmd *cobra.Command, args []string, opts ...dom.PageOption) (*dom.Page, error) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	in, err := openInput(cmd, name)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	return dom.Parse(in, opts...)
}

func printReport(w io.Writer, sources int, failed int, elapsed time.Duration) {
	fmt.Fprintf(w, "%d source(s), %d failed, %s\n", sources, failed, elapsed.Round(time.Millisecond))
}
