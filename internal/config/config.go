// Package config loads chatmark's configuration from a YAML file,
// CHATMARK_* environment variables and defaults, in that order of
// precedence below command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/andybalholm/cascadia"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/chatmark/core/extract"
	"github.com/gaurav-prasanna/chatmark/core/fetch"
	"github.com/gaurav-prasanna/chatmark/core/render"
)

const (
	// AppName is used for the XDG directories and the env prefix.
	AppName = "chatmark"

	// LocalFile is looked up in the working directory first.
	LocalFile = "chatmark.yaml"

	DefaultWorkers = 4
)

// Config holds every configurable setting.
type Config struct {
	Title    string         `mapstructure:"title" yaml:"title"`
	Labels   LabelsConfig   `mapstructure:"labels" yaml:"labels"`
	Extract  ExtractConfig  `mapstructure:"extract" yaml:"extract"`
	Classify ClassifyConfig `mapstructure:"classify" yaml:"classify"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Fetch    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
	Publish  PublishConfig  `mapstructure:"publish" yaml:"publish"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch"`
}

// LabelsConfig sets the per-role section headings.
type LabelsConfig struct {
	Human string `mapstructure:"human" yaml:"human"`
	Agent string `mapstructure:"agent" yaml:"agent"`
}

// ExtractConfig tunes the secondary container fallback.
type ExtractConfig struct {
	MinLength    int     `mapstructure:"min_length" yaml:"min_length"`
	ReplaceRatio float64 `mapstructure:"replace_ratio" yaml:"replace_ratio"`
}

// ClassifyConfig adds selectors tried before the built-in ones.
type ClassifyConfig struct {
	ExtraSelectors []string `mapstructure:"extra_selectors" yaml:"extra_selectors"`
}

// OutputConfig controls where and how files are written.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	FrontMatter bool   `mapstructure:"front_matter" yaml:"front_matter"`
}

// FetchConfig configures HTTP acquisition.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
}

// MarshalYAML writes the timeout as a duration string.
func (f FetchConfig) MarshalYAML() (any, error) {
	return struct {
		Timeout   string `yaml:"timeout"`
		UserAgent string `yaml:"user_agent"`
	}{f.Timeout.String(), f.UserAgent}, nil
}

// BrowserConfig configures headless-browser acquisition.
type BrowserConfig struct {
	WaitStable time.Duration `mapstructure:"wait_stable" yaml:"wait_stable"`
}

// MarshalYAML writes the wait as a duration string.
func (b BrowserConfig) MarshalYAML() (any, error) {
	return struct {
		WaitStable string `yaml:"wait_stable"`
	}{b.WaitStable.String()}, nil
}

// ArchiveConfig locates the SQLite archive. An empty path uses the XDG
// data directory.
type ArchiveConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// PublishConfig sets the publish drop directory. An empty dir uses the
// output directory.
type PublishConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// BatchConfig bounds concurrent conversions.
type BatchConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// Default returns the built-in configuration.
func Default() *Config {
	labels := render.DefaultLabels()
	return &Config{
		Title:  render.DefaultTitle,
		Labels: LabelsConfig{Human: labels.Human, Agent: labels.Agent},
		Extract: ExtractConfig{
			MinLength:    extract.DefaultMinLength,
			ReplaceRatio: extract.DefaultReplaceRatio,
		},
		Classify: ClassifyConfig{ExtraSelectors: []string{}},
		Fetch: FetchConfig{
			Timeout:   fetch.DefaultTimeout,
			UserAgent: fetch.DefaultUserAgent,
		},
		Browser: BrowserConfig{WaitStable: fetch.DefaultWaitStable},
		Batch:   BatchConfig{Workers: DefaultWorkers},
	}
}

// XDGConfigFile returns the per-user config file path.
// On Linux: ~/.config/chatmark/config.yaml
func XDGConfigFile() string {
	return filepath.Join(xdg.ConfigHome, AppName, "config.yaml")
}

// FindConfigFile returns the first existing file among ./chatmark.yaml and
// the XDG config file, or "" when neither exists.
func FindConfigFile() string {
	for _, p := range []string{LocalFile, XDGConfigFile()} {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// SetDefaults registers every key with its default so that environment
// variables can override keys that appear in no file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("title", d.Title)
	v.SetDefault("labels.human", d.Labels.Human)
	v.SetDefault("labels.agent", d.Labels.Agent)
	v.SetDefault("extract.min_length", d.Extract.MinLength)
	v.SetDefault("extract.replace_ratio", d.Extract.ReplaceRatio)
	v.SetDefault("classify.extra_selectors", d.Classify.ExtraSelectors)
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.front_matter", d.Output.FrontMatter)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("browser.wait_stable", d.Browser.WaitStable)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("publish.dir", d.Publish.Dir)
	v.SetDefault("batch.workers", d.Batch.Workers)
}

// Load reads configuration into v and decodes it. cfgFile, when set, must
// exist; otherwise FindConfigFile decides. It returns the config and the
// file used, if any.
func Load(v *viper.Viper, cfgFile string) (*Config, string, error) {
	SetDefaults(v)

	if cfgFile == "" {
		cfgFile = FindConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, "", fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, cfgFile, nil
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if c.Extract.MinLength < 0 {
		return ErrInvalidMinLength
	}
	if c.Extract.ReplaceRatio < 1 {
		return ErrInvalidReplaceRatio
	}
	for _, sel := range c.Classify.ExtraSelectors {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidSelector, sel, err)
		}
	}
	if c.Batch.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Fetch.Timeout <= 0 || c.Browser.WaitStable < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// RenderLabels returns the labels in the form renderers take.
func (c *Config) RenderLabels() render.Labels {
	return render.Labels{Human: c.Labels.Human, Agent: c.Labels.Agent}
}

// ExtractOptions returns the extractor thresholds.
func (c *Config) ExtractOptions() extract.Options {
	return extract.Options{MinLength: c.Extract.MinLength, ReplaceRatio: c.Extract.ReplaceRatio}
}

// YAML renders the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return out, nil
}
