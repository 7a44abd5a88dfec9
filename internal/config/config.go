// Package config loads the command line configuration from defaults, an
// optional YAML file, LAZYSELECT_ environment variables, and flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-lazyselect/pkg/dom"
	"github.com/goliatone/go-lazyselect/pkg/model"
	"github.com/goliatone/go-lazyselect/pkg/orchestrator"
	"github.com/goliatone/go-lazyselect/pkg/populate"
	"github.com/goliatone/go-lazyselect/pkg/source"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LAZYSELECT"

// Config holds application configuration.
type Config struct {
	Source    SourceConfig     `mapstructure:"source" yaml:"source"`
	Dispatch  DispatchConfig   `mapstructure:"dispatch" yaml:"dispatch"`
	Populate  PopulateConfig   `mapstructure:"populate" yaml:"populate"`
	Markup    MarkupConfig     `mapstructure:"markup" yaml:"markup"`
	Overrides []OverrideConfig `mapstructure:"overrides" yaml:"overrides,omitempty"`
	Debug     bool             `mapstructure:"debug" yaml:"debug"`
}

// SourceConfig holds option source settings.
type SourceConfig struct {
	BaseURL      string            `mapstructure:"base_url" yaml:"base_url"`
	Timeout      time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	MaxBodyBytes int64             `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	Headers      map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}

// DispatchConfig holds fan-out settings.
type DispatchConfig struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// PopulateConfig holds population settings.
type PopulateConfig struct {
	PlaceholderOnFailure bool   `mapstructure:"placeholder_on_failure" yaml:"placeholder_on_failure"`
	PlaceholderLabel     string `mapstructure:"placeholder_label" yaml:"placeholder_label"`
}

// MarkupConfig names the attributes read from page markup.
type MarkupConfig struct {
	SourceAttr   string `mapstructure:"source_attr" yaml:"source_attr"`
	ValueAttr    string `mapstructure:"value_attr" yaml:"value_attr"`
	MultipleAttr string `mapstructure:"multiple_attr" yaml:"multiple_attr"`
	MarkerAttr   string `mapstructure:"marker_attr" yaml:"marker_attr"`
	// StripLabelMarkup reduces option labels to plain text before they are
	// written. Labels are shown verbatim when false.
	StripLabelMarkup bool `mapstructure:"strip_label_markup" yaml:"strip_label_markup"`
}

// OverrideConfig rewrites one source locator.
type OverrideConfig struct {
	Source string            `mapstructure:"source" yaml:"source"`
	URL    string            `mapstructure:"url" yaml:"url,omitempty"`
	Params map[string]string `mapstructure:"params" yaml:"params,omitempty"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"base-url":               "source.base_url",
	"timeout":                "source.timeout",
	"concurrency":            "dispatch.concurrency",
	"placeholder-on-failure": "populate.placeholder_on_failure",
	"debug":                  "debug",
	"strip-label-markup":     "markup.strip_label_markup",
}

// Default returns the built-in configuration.
func Default() Config {
	httpDefaults := source.DefaultOptions()
	attrs := dom.DefaultAttributes()
	return Config{
		Source: SourceConfig{
			Timeout:      httpDefaults.Timeout,
			MaxBodyBytes: httpDefaults.MaxBodyBytes,
		},
		Dispatch: DispatchConfig{Concurrency: 8},
		Populate: PopulateConfig{
			PlaceholderOnFailure: true,
			PlaceholderLabel:     model.PlaceholderLabel,
		},
		Markup: MarkupConfig{
			SourceAttr:   attrs.Source,
			ValueAttr:    attrs.Value,
			MultipleAttr: attrs.Multiple,
			MarkerAttr:   attrs.Marker,
		},
	}
}

// Load reads configuration. path names an optional YAML file; when empty,
// LAZYSELECT_CONFIG is consulted. Flags that were set on the command line
// take precedence over the environment, which takes precedence over the
// file.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("source.base_url", def.Source.BaseURL)
	v.SetDefault("source.timeout", def.Source.Timeout)
	v.SetDefault("source.max_body_bytes", def.Source.MaxBodyBytes)
	v.SetDefault("dispatch.concurrency", def.Dispatch.Concurrency)
	v.SetDefault("populate.placeholder_on_failure", def.Populate.PlaceholderOnFailure)
	v.SetDefault("populate.placeholder_label", def.Populate.PlaceholderLabel)
	v.SetDefault("markup.source_attr", def.Markup.SourceAttr)
	v.SetDefault("markup.value_attr", def.Markup.ValueAttr)
	v.SetDefault("markup.multiple_attr", def.Markup.MultipleAttr)
	v.SetDefault("markup.marker_attr", def.Markup.MarkerAttr)
	v.SetDefault("markup.strip_label_markup", def.Markup.StripLabelMarkup)
	v.SetDefault("debug", def.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return Config{}, fmt.Errorf("config: bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports settings that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if c.Source.Timeout < 0 {
		errs = append(errs, errors.New("config: source.timeout must not be negative"))
	}
	if c.Dispatch.Concurrency < 0 {
		errs = append(errs, errors.New("config: dispatch.concurrency must not be negative"))
	}
	for i, override := range c.Overrides {
		if strings.TrimSpace(override.Source) == "" {
			errs = append(errs, fmt.Errorf("config: overrides[%d] missing source", i))
		}
	}
	return errors.Join(errs...)
}

// YAML renders the configuration.
func (c Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return out, nil
}

// Attributes returns the markup attribute names.
func (c Config) Attributes() dom.Attributes {
	return dom.Attributes{
		Source:   c.Markup.SourceAttr,
		Value:    c.Markup.ValueAttr,
		Multiple: c.Markup.MultipleAttr,
		Marker:   c.Markup.MarkerAttr,
	}
}

// PageOptions returns the options used when parsing documents.
func (c Config) PageOptions() []dom.PageOption {
	if !c.Markup.StripLabelMarkup {
		return nil
	}
	return []dom.PageOption{dom.WithLabelPolicy(bluemonday.StrictPolicy())}
}

// FailurePolicy returns the configured policy for failed sources.
func (c Config) FailurePolicy() populate.FailurePolicy {
	if c.Populate.PlaceholderOnFailure {
		return populate.PlaceholderOnFailure
	}
	return populate.LeaveUntouched
}

// HTTPOptions returns the settings of the default HTTP fetcher.
func (c Config) HTTPOptions() []source.OptionFn {
	fns := []source.OptionFn{
		source.WithTimeout(c.Source.Timeout),
		source.WithMaxBodyBytes(c.Source.MaxBodyBytes),
	}
	for name, value := range c.Source.Headers {
		fns = append(fns, source.WithHeader(name, value))
	}
	return fns
}

// OrchestratorOptions translates the configuration into orchestrator
// options.
func (c Config) OrchestratorOptions(logger *zap.Logger) []orchestrator.Option {
	opts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithHTTPOptions(c.HTTPOptions()...),
		orchestrator.WithConcurrency(c.Dispatch.Concurrency),
		orchestrator.WithFailurePolicy(c.FailurePolicy()),
		orchestrator.WithPlaceholderLabel(c.Populate.PlaceholderLabel),
		orchestrator.WithAttributes(c.Attributes()),
	}
	if c.Source.BaseURL != "" {
		opts = append(opts, orchestrator.WithBaseURL(c.Source.BaseURL))
	}
	if len(c.Overrides) > 0 {
		overrides := make([]orchestrator.SourceOverride, 0, len(c.Overrides))
		for _, o := range c.Overrides {
			overrides = append(overrides, orchestrator.SourceOverride{Source: o.Source, URL: o.URL, Params: o.Params})
		}
		opts = append(opts, orchestrator.WithSourceOverrides(overrides))
	}
	return opts
}
