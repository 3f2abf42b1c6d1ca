package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the tokset configuration file (~/.config/tokset/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	TokensDir string `yaml:"tokens_dir"`

	// Optimizer defaults
	OptBudget *int64 `yaml:"opt_budget"`
	Workers   *int64 `yaml:"workers"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tokset", "config.yaml")
}

// applyOptimizeConfig applies config file defaults to optimize command
// variables when the corresponding CLI flag was not explicitly set.
func applyOptimizeConfig(c *cli.Command, cfg Config, tokensDir *string, optBudget, workers *int64) {
	if cfg.TokensDir != "" && !c.IsSet("tokens-path") {
		*tokensDir = cfg.TokensDir
	}
	if cfg.OptBudget != nil && !c.IsSet("opt-budget") {
		*optBudget = *cfg.OptBudget
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		*workers = *cfg.Workers
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}
