package cli

import (
	"fmt"
	"io"

	"github.com/carbonwise/carbonwise/internal/bundle"
	"github.com/carbonwise/carbonwise/internal/engine"
	"github.com/carbonwise/carbonwise/internal/features"
	"github.com/carbonwise/carbonwise/internal/style"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration of one invocation, merged from
// flags, CARBONWISE_* variables and the config file.
type Settings struct {
	Model         string `mapstructure:"model"`
	Preprocessor  string `mapstructure:"preprocessor"`
	ApplyDefaults bool   `mapstructure:"apply-defaults"`
	Strict        bool   `mapstructure:"strict"`
	Output        string `mapstructure:"output"`
	LogLevel      string `mapstructure:"log-level"`
	Quiet         bool   `mapstructure:"quiet"`
	Verbose       bool   `mapstructure:"verbose"`
}

func loadSettings() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	switch s.Output {
	case "", "text":
		s.Output = "text"
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or yaml)", s.Output)
	}

	return &s, nil
}

// interactive reports whether progress and decorations should be shown.
func (s *Settings) interactive() bool {
	return !s.Quiet && s.Output == "text"
}

func (s *Settings) normalizeOptions() []features.NormalizeOption {
	return []features.NormalizeOption{features.WithDefaults(s.ApplyDefaults)}
}

// loadContext loads both bundles, showing a spinner on w while it works.
func (s *Settings) loadContext(w io.Writer, opts ...engine.Option) (*engine.Context, error) {
	loader, err := bundle.NewLoader(bundle.WithStrict(s.Strict))
	if err != nil {
		return nil, err
	}

	var spin style.Spinner
	if s.interactive() {
		spin = style.NewSpinner(w)
		spin.SetSuffix(" Loading bundles...")
		spin.Start()
	}

	ctx, err := engine.Load(s.Model, s.Preprocessor, append([]engine.Option{engine.WithLoader(loader)}, opts...)...)

	if spin != nil {
		if err != nil {
			spin.SetFinalMSG(style.ErrorIcon() + " Failed to load bundles\n")
		} else if s.Verbose {
			spin.SetFinalMSG(style.SuccessIcon() + " Loaded " + s.Model + "\n")
		}
		spin.Stop()
	}
	if err != nil {
		return nil, err
	}

	return ctx, nil
}
