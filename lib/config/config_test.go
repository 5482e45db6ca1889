// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "init.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := time.Duration(cfg.TickInterval); got != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want 100ms", got)
	}
	if got := time.Duration(cfg.GracePeriod); got != 10*time.Second {
		t.Errorf("GracePeriod = %v, want 10s", got)
	}
	if cfg.AttachDetection == nil || !*cfg.AttachDetection {
		t.Error("AttachDetection should default to enabled")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "auto" {
		t.Errorf("Log = %+v, want info/auto", cfg.Log)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, strings.Join([]string{
		"tick_interval: 250ms",
		"grace_period: 3s",
		"state_dir: /run/init-state",
		"attach_detection: false",
		"pause_signal: SIGTSTP",
		"resume_signal: SIGCONT",
		"log:",
		"  level: debug",
		"  format: json",
	}, "\n"))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := time.Duration(cfg.TickInterval); got != 250*time.Millisecond {
		t.Errorf("TickInterval = %v, want 250ms", got)
	}
	if got := time.Duration(cfg.GracePeriod); got != 3*time.Second {
		t.Errorf("GracePeriod = %v, want 3s", got)
	}
	if cfg.StateDir != "/run/init-state" {
		t.Errorf("StateDir = %q, want /run/init-state", cfg.StateDir)
	}
	if cfg.AttachDetection == nil || *cfg.AttachDetection {
		t.Error("AttachDetection should be disabled by the file")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want debug/json", cfg.Log)
	}
	if cfg.PauseSignal != "SIGTSTP" || cfg.ResumeSignal != "SIGCONT" {
		t.Errorf("signals = %q/%q, want SIGTSTP/SIGCONT", cfg.PauseSignal, cfg.ResumeSignal)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "grace_period: 30s\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := time.Duration(cfg.TickInterval); got != 100*time.Millisecond {
		t.Errorf("TickInterval = %v, want default 100ms", got)
	}
	if got := time.Duration(cfg.GracePeriod); got != 30*time.Second {
		t.Errorf("GracePeriod = %v, want 30s", got)
	}
}

func TestLoadFromEnvVar(t *testing.T) {
	path := writeConfig(t, "tick_interval: 1s\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := time.Duration(cfg.TickInterval); got != time.Second {
		t.Errorf("TickInterval = %v, want 1s", got)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load should fail for an explicitly given missing file")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"zero tick", "tick_interval: 0s\n"},
		{"negative grace", "grace_period: -1s\n"},
		{"bad duration", "tick_interval: often\n"},
		{"bad level", "log:\n  level: verbose\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"bad signal", "pause_signal: SIGBOGUS\n"},
		{"not yaml", "{{{\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Errorf("Load accepted %q", tc.content)
			}
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	d := Duration(1500 * time.Millisecond)
	out, err := d.MarshalYAML()
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	if out != "1.5s" {
		t.Errorf("MarshalYAML = %v, want 1.5s", out)
	}
}
