// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SUSPENDABLE_INIT_CONFIG"

// Config is the supervisor configuration.
type Config struct {
	// TickInterval is the poll period of the control loop: safety-net
	// reaping and attach detection run once per tick.
	TickInterval Duration `yaml:"tick_interval"`

	// GracePeriod bounds how long a child gets to honor SIGTERM during
	// shutdown before it is killed.
	GracePeriod Duration `yaml:"grace_period"`

	// StateDir, when set, enables the lifecycle journal in that
	// directory.
	StateDir string `yaml:"state_dir"`

	// AttachDetection toggles the debugger-attach scan. Nil means the
	// default (enabled).
	AttachDetection *bool `yaml:"attach_detection"`

	// PauseSignal and ResumeSignal override the control signals, by
	// name ("SIGUSR1"). Empty means the built-in defaults.
	PauseSignal  string `yaml:"pause_signal"`
	ResumeSignal string `yaml:"resume_signal"`

	// Log configures the structured logger.
	Log LogConfig `yaml:"log"`
}

// LogConfig configures log output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is one of auto, text, json. Auto picks text when stderr
	// is a terminal, json otherwise.
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	enabled := true
	return Config{
		TickInterval:    Duration(100 * time.Millisecond),
		GracePeriod:     Duration(10 * time.Second),
		AttachDetection: &enabled,
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the config file at path, layered over Default. When path
// is empty, EnvVar is consulted; when that is also empty, Default is
// returned. A path that was given explicitly but does not exist is an
// error.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field values. Zero durations are rejected rather
// than defaulted: a config file that sets tick_interval to 0 is a
// mistake, not a request for a busy loop.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %v", time.Duration(c.TickInterval))
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("grace_period must be positive, got %v", time.Duration(c.GracePeriod))
	}
	for _, name := range []string{c.PauseSignal, c.ResumeSignal} {
		if name != "" && unix.SignalNum(name) == 0 {
			return fmt.Errorf("unknown signal name %q", name)
		}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "auto", "text", "json":
	default:
		return fmt.Errorf("log.format must be auto, text, or json, got %q", c.Log.Format)
	}
	return nil
}

// Duration is a time.Duration that unmarshals from YAML strings like
// "100ms" or "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"100ms\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
