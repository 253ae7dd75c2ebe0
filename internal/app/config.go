package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ConfigPath is the diagnostics configuration document (.yml, .yaml,
	// or .hcl).
	ConfigPath string

	LogFormat string
	LogLevel  string
	Workers   int

	// DryRun resolves and prints the execution plan without touching any
	// data.
	DryRun bool
	// Watch keeps the process alive and re-runs the plan whenever the
	// configuration document changes.
	Watch bool
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" {
		return nil, errors.New("ConfigPath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
