// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ngmigrate folds member @HostBinding annotations into the host map
// of the enclosing @Component or @Directive.
//
// Usage:
//
//	ngmigrate convert [--dry-run] <file-or-dir>...
//	ngmigrate watch [--metrics-addr :9090] <dir>...
//	ngmigrate config
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/AleutianAI/ngmigrate/services/migrate"
	"github.com/AleutianAI/ngmigrate/services/migrate/config"
	"github.com/AleutianAI/ngmigrate/services/migrate/workspace"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the state shared by all subcommands once flags are parsed.
type app struct {
	configPath   string
	envFile      string
	logLevel     string
	logFormat    string
	quote        string
	bracketKeys  bool
	removeImport bool
	jobs         int
	traceFile    string

	cfg           *config.Config
	stopTelemetry func(context.Context) error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the command line and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "ngmigrate: %v\n", err)
		return 1
	}
	return 0
}

// newRootCmd builds the command tree writing to stdout and stderr.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ngmigrate",
		Short:         "Move @HostBinding annotations into the component host map",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, stderr)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.stopTelemetry != nil {
				return a.stopTelemetry(context.WithoutCancel(cmd.Context()))
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	f := root.PersistentFlags()
	f.StringVar(&a.configPath, "config", "", "YAML config file (defaults are built in)")
	f.StringVar(&a.envFile, "env-file", ".env", "dotenv file with NGMIGRATE_* overrides")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	f.StringVar(&a.logFormat, "log-format", "", "log format: text or json")
	f.StringVar(&a.quote, "quote", "", "quote style of generated entries: single or double")
	f.BoolVar(&a.bracketKeys, "bracket-keys", false, "write keys as property bindings, e.g. '[class.active]'")
	f.BoolVar(&a.removeImport, "remove-import", false, "drop the HostBinding import once nothing references it")
	f.IntVarP(&a.jobs, "jobs", "j", 0, "files converted concurrently")
	f.StringVar(&a.traceFile, "trace-file", "", "write OpenTelemetry spans as JSON to this file")

	root.AddCommand(
		newConvertCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return fmt.Errorf("%w\nRun '%s --help' for usage", err, cmd.CommandPath())
	})
	return root
}

// setup resolves the configuration and installs the logger.
func (a *app) setup(cmd *cobra.Command, stderr io.Writer) error {
	cfg, err := config.Load(cmd.Context(), a.configPath, a.envFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("quote") {
		cfg.Quote = a.quote
	}
	if flags.Changed("bracket-keys") {
		cfg.BracketKeys = a.bracketKeys
	}
	if flags.Changed("remove-import") {
		cfg.RemoveUnusedImport = a.removeImport
	}
	if flags.Changed("jobs") {
		cfg.Jobs = a.jobs
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	a.cfg = cfg

	slog.SetDefault(newLogger(stderr, cfg))

	if a.traceFile != "" {
		stopTelemetry, err := setupTracing(a.traceFile)
		if err != nil {
			return err
		}
		a.stopTelemetry = stopTelemetry
	}
	return nil
}

// newLogger builds the slog logger described by cfg.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newRunner wires the converter and runner for the current configuration.
func (a *app) newRunner(dryRun bool) *migrate.Runner {
	conv := migrate.NewConverter(
		workspace.NewOSStore(),
		a.cfg.HostBindingOptions(),
		migrate.WithParseOptions(a.cfg.ParseOptions()...),
		migrate.WithDryRun(dryRun),
	)
	return migrate.NewRunner(conv, migrate.RunnerConfig{
		Jobs:        a.cfg.Jobs,
		Extensions:  a.cfg.Extensions,
		ExcludeDirs: a.cfg.ExcludeDirs,
	})
}
