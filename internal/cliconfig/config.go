// Package cliconfig loads iclc's optional project configuration file,
// .iclrc.yaml, via viper (SPEC_FULL.md §4.7). Every field has a safe zero
// value, so a project with no config file behaves identically to one with
// an empty file.
package cliconfig

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is iclc's resolved configuration, merging .iclrc.yaml with
// environment overrides and command-line flags (in that ascending order
// of precedence, viper's default).
type Config struct {
	// Color controls whether diagnostic output is rendered with ANSI color.
	Color bool `mapstructure:"color" yaml:"color"`
	// JSON makes every subcommand emit machine-readable JSON instead of the
	// human-oriented rendering.
	JSON bool `mapstructure:"json" yaml:"json"`
	// Quiet suppresses informational logging; only diagnostics and results
	// are printed.
	Quiet bool `mapstructure:"quiet" yaml:"quiet"`
	// SandboxOverride, when non-empty, overrides a contract's declared
	// sandbox_mode for local `iclc execute` runs.
	SandboxOverride string `mapstructure:"sandbox_override" yaml:"sandbox_override"`
	// CacheDir is where `iclc hash` may memoize semantic_hash results keyed
	// by source digest.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// defaults mirrors the zero-config behavior described in SPEC_FULL.md §4.7.
func defaults() Config {
	return Config{Color: true, JSON: false, Quiet: false, SandboxOverride: "", CacheDir: ""}
}

// Load reads .iclrc.yaml from the current directory (if present) and any
// matching ICL_-prefixed environment variables, returning a Config that is
// always valid even when no file exists.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".iclrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("ICL")
	v.AutomaticEnv()

	def := defaults()
	v.SetDefault("color", def.Color)
	v.SetDefault("json", def.JSON)
	v.SetDefault("quiet", def.Quiet)
	v.SetDefault("sandbox_override", def.SandboxOverride)
	v.SetDefault("cache_dir", def.CacheDir)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("reading .iclrc.yaml: %w", err)
		}
	}

	cfg := def
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing .iclrc.yaml: %w", err)
	}
	return &cfg, nil
}

// WriteDefault writes a commented-out-free starter .iclrc.yaml to path.
// No iclc subcommand calls it; `iclc init` writes only the contract file.
func WriteDefault(path string) error {
	out, err := yaml.Marshal(defaults())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

// ColorEnabled reports whether diagnostic rendering should use ANSI color,
// honoring NO_COLOR (https://no-color.org) over the configured default.
func (c *Config) ColorEnabled() bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return c.Color
}
