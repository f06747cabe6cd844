// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultJobs is the concurrency used when RunnerConfig.Jobs is not positive.
const DefaultJobs = 4

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	// Jobs is the maximum number of files converted concurrently.
	Jobs int

	// Extensions are the file suffixes picked up when expanding directories.
	Extensions []string

	// ExcludeDirs are directory names never descended into.
	ExcludeDirs []string
}

// FileReport is the outcome of one file in a run.
type FileReport struct {
	Path   string
	Result *Result
	Err    error
}

// Summary is the outcome of a run.
type Summary struct {
	// RunID identifies the run in logs.
	RunID string

	// Files holds one report per file, in expansion order.
	Files []FileReport

	Rewritten int
	Unchanged int
	Failed    int
	Warnings  int
	Sites     int

	Duration time.Duration
}

// HasFailures reports whether any file failed.
func (s *Summary) HasFailures() bool {
	return s.Failed > 0
}

// Runner converts many files concurrently.
//
// Thread Safety: Safe for concurrent use; each Run is independent.
type Runner struct {
	conv *Converter
	cfg  RunnerConfig
}

// NewRunner creates a Runner around conv.
func NewRunner(conv *Converter, cfg RunnerConfig) *Runner {
	if cfg.Jobs <= 0 {
		cfg.Jobs = DefaultJobs
	}
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{".ts", ".tsx", ".mts", ".cts"}
	}
	return &Runner{conv: conv, cfg: cfg}
}

// Run converts every file named by paths.
//
// Description:
//
//	Directories are expanded recursively (see Expand). Files are converted
//	with at most Jobs in flight. A fatal error on one file is recorded in
//	its FileReport and never stops the other files.
//
// Inputs:
//   - ctx: Cancellation stops scheduling new files.
//   - paths: Files and directories.
//
// Outputs:
//   - *Summary: Reports in expansion order, counts and a run ID.
//   - error: Non-nil only when ctx was canceled.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	logger := slog.With(slog.String("run_id", summary.RunID))

	files, expandErrs := r.Expand(paths)
	reports := make([]FileReport, len(files))

	logger.Info("run started",
		slog.Int("files", len(files)),
		slog.Int("jobs", r.cfg.Jobs),
		slog.Bool("dry_run", r.conv.DryRun()))

	var g errgroup.Group
	g.SetLimit(r.cfg.Jobs)
	for i, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			reports[i].Path = path
			if err := ctx.Err(); err != nil {
				reports[i].Err = err
				return nil
			}
			res, err := r.conv.Convert(ctx, path)
			if err != nil {
				logger.Warn("file failed",
					slog.String("file", path),
					slog.String("error", err.Error()))
				// Individual failure is not fatal.
				reports[i].Err = err
				return nil
			}
			reports[i].Result = res
			return nil
		})
	}
	_ = g.Wait()

	summary.Files = append(expandErrs, reports...)
	for i := range summary.Files {
		fr := &summary.Files[i]
		if fr.Path == "" {
			// Never scheduled because ctx was canceled.
			fr.Path = files[i-len(expandErrs)]
			fr.Err = ctx.Err()
		}
		switch {
		case fr.Err != nil:
			summary.Failed++
		case fr.Result.Status == StatusRewritten:
			summary.Rewritten++
		default:
			summary.Unchanged++
		}
		if fr.Result != nil {
			summary.Warnings += len(fr.Result.Warnings)
			summary.Sites += fr.Result.Sites
		}
	}
	summary.Duration = time.Since(start)

	logger.Info("run finished",
		slog.Int("rewritten", summary.Rewritten),
		slog.Int("unchanged", summary.Unchanged),
		slog.Int("failed", summary.Failed),
		slog.Int("warnings", summary.Warnings),
		slog.Duration("duration", summary.Duration))

	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("run %s canceled: %w", summary.RunID, err)
	}
	return summary, nil
}

// Expand turns paths into the list of files to convert.
//
// Description:
//
//	Files named explicitly are kept whatever their suffix. Directories are
//	walked in lexical order; files are kept when they carry one of the
//	configured extensions and are not declaration files (*.d.ts).
//	Directories named in ExcludeDirs are skipped. Duplicates are dropped.
//
// Outputs:
//   - []string: Files in order of discovery.
//   - []FileReport: A failed report per path that could not be read.
func (r *Runner) Expand(paths []string) ([]string, []FileReport) {
	var files []string
	var failed []FileReport
	seen := make(map[string]bool)
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			failed = append(failed, FileReport{Path: root, Err: err})
			continue
		}
		if !info.IsDir() {
			add(root)
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				failed = append(failed, FileReport{Path: p, Err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				if p != root && slices.Contains(r.cfg.ExcludeDirs, d.Name()) {
					return fs.SkipDir
				}
				return nil
			}
			if r.Matches(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			failed = append(failed, FileReport{Path: root, Err: err})
		}
	}
	return files, failed
}

// Matches reports whether a file found while walking should be converted.
func (r *Runner) Matches(path string) bool {
	name := filepath.Base(path)
	if strings.HasSuffix(name, ".d.ts") || strings.HasSuffix(name, ".d.mts") || strings.HasSuffix(name, ".d.cts") {
		return false
	}
	for _, ext := range r.cfg.Extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Converter returns the converter the runner drives.
func (r *Runner) Converter() *Converter {
	return r.conv
}
