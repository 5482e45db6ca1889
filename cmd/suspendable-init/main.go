// Copyright 2026 The Suspendable Init Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/psm14/suspendable-init/lib/config"
	"github.com/psm14/suspendable-init/lib/journal"
	"github.com/psm14/suspendable-init/lib/proctree"
	"github.com/psm14/suspendable-init/lib/version"
	"github.com/psm14/suspendable-init/supervisor"
)

func main() {
	code, err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "suspendable-init: %v\n", err)
	}
	os.Exit(code)
}

// options is the parsed command line. Zero-valued override fields mean
// "not given"; the config file (or its defaults) wins for those.
type options struct {
	configPath  string
	tick        time.Duration
	grace       time.Duration
	stateDir    string
	noDetection bool
	pauseSig    string
	resumeSig   string
	logLevel    string
	logFormat   string
	showVersion bool

	command string
	args    []string
}

// parseArgs splits the command line into supervisor flags and the
// child command. Parsing is not interspersed: the first non-flag
// argument starts the child command line, so child flags never need
// escaping.
func parseArgs(args []string) (options, error) {
	var opts options

	flags := pflag.NewFlagSet("suspendable-init", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(os.Stderr)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: suspendable-init [flags] <command> [args...]\n\nFlags:\n%s", flags.FlagUsages())
	}

	flags.StringVar(&opts.configPath, "config", "",
		"YAML config file (default: $"+config.EnvVar+")")
	flags.DurationVar(&opts.tick, "tick-interval", 0,
		"poll period for reaping and attach detection (overrides config)")
	flags.DurationVar(&opts.grace, "grace-period", 0,
		"time the child gets to honor SIGTERM before SIGKILL (overrides config)")
	flags.StringVar(&opts.stateDir, "state-dir", "",
		"directory for the lifecycle journal (overrides config)")
	flags.BoolVar(&opts.noDetection, "no-attach-detection", false,
		"disable the debugger-attach scan")
	flags.StringVar(&opts.pauseSig, "pause-signal", "",
		"signal name that pauses the child (default SIGUSR1)")
	flags.StringVar(&opts.resumeSig, "resume-signal", "",
		"signal name that resumes the child (default SIGUSR2)")
	flags.StringVar(&opts.logLevel, "log-level", "",
		"debug, info, warn, or error (overrides config)")
	flags.StringVar(&opts.logFormat, "log-format", "",
		"auto, text, or json (overrides config)")
	flags.BoolVar(&opts.showVersion, "version", false,
		"print version and exit")

	if err := flags.Parse(args); err != nil {
		return options{}, err
	}

	rest := flags.Args()
	if len(rest) > 0 {
		opts.command = rest[0]
		opts.args = rest[1:]
	}
	return opts, nil
}

// buildConfig layers command-line overrides onto the loaded config and
// revalidates the result.
func buildConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.tick > 0 {
		cfg.TickInterval = config.Duration(opts.tick)
	}
	if opts.grace > 0 {
		cfg.GracePeriod = config.Duration(opts.grace)
	}
	if opts.stateDir != "" {
		cfg.StateDir = opts.stateDir
	}
	if opts.noDetection {
		disabled := false
		cfg.AttachDetection = &disabled
	}
	if opts.pauseSig != "" {
		cfg.PauseSignal = opts.pauseSig
	}
	if opts.resumeSig != "" {
		cfg.ResumeSignal = opts.resumeSig
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.logFormat != "" {
		cfg.Log.Format = opts.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Format auto picks a text
// handler when stderr is a terminal and JSON otherwise.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}

	useText := cfg.Format == "text" ||
		(cfg.Format == "auto" && term.IsTerminal(int(os.Stderr.Fd())))
	if useText {
		return slog.New(slog.NewTextHandler(os.Stderr, hopts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, hopts))
}

func run(args []string) (int, error) {
	opts, err := parseArgs(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, nil
		}
		return 1, err
	}
	if opts.showVersion {
		fmt.Printf("suspendable-init %s\n", version.Info())
		return 0, nil
	}
	if opts.command == "" {
		return 1, errors.New("no command given (usage: suspendable-init [flags] <command> [args...])")
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return 1, err
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	// Without PID 1 or subreaper status, orphans reparent past us and
	// reaping degrades to the direct child only.
	if err := supervisor.EnsureReaping(); err != nil {
		logger.Warn("could not become child subreaper", "error", err)
	}

	var jrnl *journal.Journal
	if cfg.StateDir != "" {
		jrnl, err = journal.Open(cfg.StateDir)
		if err != nil {
			return 1, fmt.Errorf("opening journal: %w", err)
		}
		defer func() {
			if err := jrnl.Close(); err != nil {
				logger.Warn("closing journal", "error", err)
			}
		}()
	}

	var detector *supervisor.Detector
	if cfg.AttachDetection == nil || *cfg.AttachDetection {
		detector = &supervisor.Detector{
			Tree:    proctree.OpenProc(""),
			InitPID: os.Getpid(),
			Logger:  logger,
		}
	}

	sup, err := supervisor.New(supervisor.Config{
		Command:      opts.command,
		Args:         opts.args,
		TickInterval: time.Duration(cfg.TickInterval),
		GracePeriod:  time.Duration(cfg.GracePeriod),
		PauseSignal:  unix.SignalNum(cfg.PauseSignal),
		ResumeSignal: unix.SignalNum(cfg.ResumeSignal),
		Detector:     detector,
		Journal:      jrnl,
		Logger:       logger,
	})
	if err != nil {
		return 1, err
	}

	logger.Info("supervisor starting",
		"pid", os.Getpid(),
		"command", opts.command,
		"version", version.Version,
	)
	code, err := sup.Run(context.Background())
	if err != nil {
		logger.Error("supervision ended with error", "error", err)
		// The exit code is already decided; the error is context.
		return code, nil
	}
	return code, nil
}
