// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/AleutianAI/ngmigrate/services/migrate"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	// errFilesFailed is returned when at least one file failed.
	errFilesFailed = errors.New("some files could not be converted")

	// errWarnings is returned with --fail-on-warning when warnings occurred.
	errWarnings = errors.New("conversion produced warnings")
)

func newConvertCmd(a *app) *cobra.Command {
	var dryRun, failOnWarning bool

	cmd := &cobra.Command{
		Use:     "convert <file-or-dir>...",
		Aliases: []string{"run"},
		Short:   "Rewrite files in place",
		Long: `Rewrite TypeScript files so that member @HostBinding annotations become
entries of the host map of the class's @Component or @Directive.

Directories are searched recursively for .ts, .tsx, .mts and .cts files,
skipping node_modules, dist and declaration files. With --dry-run nothing is
written and a unified diff is printed instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.newRunner(dryRun).Run(cmd.Context(), args)
			if summary == nil {
				return err
			}

			if dryRun {
				patch, perr := migrate.PreviewAll(summary)
				if perr != nil {
					return perr
				}
				if _, werr := cmd.OutOrStdout().Write(patch); werr != nil {
					return werr
				}
			}

			// The report goes to stderr on dry runs so stdout stays a valid patch.
			report := cmd.OutOrStdout()
			if dryRun {
				report = cmd.ErrOrStderr()
			}
			renderReport(report, summary, isTerminal(report))

			switch {
			case err != nil:
				return err
			case summary.HasFailures():
				return fmt.Errorf("%w: %d of %d", errFilesFailed, summary.Failed, len(summary.Files))
			case failOnWarning && summary.Warnings > 0:
				return fmt.Errorf("%w: %d", errWarnings, summary.Warnings)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print a unified diff instead of writing files")
	cmd.Flags().BoolVar(&failOnWarning, "fail-on-warning", false, "exit non-zero when any annotation was left in place")
	return cmd
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
