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
	"fmt"
	"log/slog"

	"github.com/AleutianAI/ngmigrate/services/migrate"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch <dir>...",
		Short: "Convert files as they are created or saved",
		Long: `Watch directories recursively and convert TypeScript files whenever they
are created or written. Runs until interrupted.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner := a.newRunner(false)

			// Bring the tree up to date first so later events only see edits.
			summary, err := runner.Run(ctx, args)
			if err != nil {
				return err
			}
			renderReport(cmd.OutOrStdout(), summary, isTerminal(cmd.OutOrStdout()))

			if metricsAddr != "" {
				stopMetrics, err := serveMetrics(metricsAddr)
				if err != nil {
					return err
				}
				defer stopMetrics()
			}

			w, err := migrate.NewWatcher(runner.Converter(), runner, func(fr migrate.FileReport) {
				if fr.Result != nil && fr.Result.Changed() {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", status(fr), fr.Path, detail(fr))
				}
				if fr.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s\t%s\t%s\n", status(fr), fr.Path, detail(fr))
				}
			})
			if err != nil {
				return err
			}
			if err := w.Watch(ctx, args); err != nil {
				return err
			}
			slog.Info("watch stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}
