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
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"
	lru "github.com/hashicorp/golang-lru/v2"
)

// recentWritesSize bounds the number of remembered self-written files.
const recentWritesSize = 1024

// Watcher re-converts TypeScript files as they are created or written.
//
// Description:
//
//	Directories are watched recursively, honoring the Runner's extension
//	and exclusion rules; directories created later are added on the fly.
//	Writing a converted file triggers another event for that file. The
//	content hash of every file the Watcher wrote is remembered so the
//	follow-up event is dropped without parsing.
//
// Thread Safety: A Watcher runs one Watch loop at a time.
type Watcher struct {
	conv     *Converter
	runner   *Runner
	recent   *lru.Cache[string, [sha256.Size]byte]
	onReport func(FileReport)
	ready    chan struct{}
}

// NewWatcher creates a Watcher. onReport, when non-nil, receives a report
// for every conversion the Watcher performs.
func NewWatcher(conv *Converter, runner *Runner, onReport func(FileReport)) (*Watcher, error) {
	recent, err := lru.New[string, [sha256.Size]byte](recentWritesSize)
	if err != nil {
		return nil, fmt.Errorf("creating write cache: %w", err)
	}
	return &Watcher{
		conv:     conv,
		runner:   runner,
		recent:   recent,
		onReport: onReport,
		ready:    make(chan struct{}),
	}, nil
}

// Ready is closed once the initial directories are being watched.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Watch blocks until ctx is done, converting files under roots as they change.
//
// Outputs:
//   - error: nil when ctx ends the loop, otherwise a watcher setup error.
func (w *Watcher) Watch(ctx context.Context, roots []string) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	for _, root := range roots {
		if err := w.addTree(fw, root); err != nil {
			return err
		}
	}
	close(w.ready)
	slog.Info("watching for changes", slog.Any("roots", roots))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fw, ev)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fw *fsnotify.Watcher, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	info, err := os.Stat(ev.Name)
	if err != nil {
		return
	}
	if info.IsDir() {
		if ev.Has(fsnotify.Create) && !slices.Contains(w.runner.cfg.ExcludeDirs, filepath.Base(ev.Name)) {
			if err := w.addTree(fw, ev.Name); err != nil {
				slog.Warn("cannot watch new directory",
					slog.String("dir", ev.Name),
					slog.String("error", err.Error()))
			}
		}
		return
	}
	if !w.runner.Matches(ev.Name) {
		return
	}

	text, err := w.conv.store.ReadText(ctx, ev.Name)
	if err != nil {
		w.report(FileReport{Path: ev.Name, Err: err})
		return
	}
	if h, ok := w.recent.Get(ev.Name); ok && h == sha256.Sum256([]byte(text)) {
		slog.Debug("skipping own write", slog.String("file", ev.Name))
		return
	}

	res, err := w.conv.Convert(ctx, ev.Name)
	if err != nil {
		w.report(FileReport{Path: ev.Name, Err: err})
		return
	}
	if res.Changed() && !w.conv.DryRun() {
		w.recent.Add(ev.Name, sha256.Sum256([]byte(res.Output)))
	}
	w.report(FileReport{Path: ev.Name, Result: res})
}

func (w *Watcher) report(fr FileReport) {
	if fr.Err != nil && !errors.Is(fr.Err, context.Canceled) {
		slog.Warn("file failed", slog.String("file", fr.Path), slog.String("error", fr.Err.Error()))
	}
	if w.onReport != nil {
		w.onReport(fr)
	}
}

// addTree watches dir and every non-excluded directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && slices.Contains(w.runner.cfg.ExcludeDirs, d.Name()) {
			return fs.SkipDir
		}
		if err := fw.Add(p); err != nil {
			return fmt.Errorf("watching %s: %w", p, err)
		}
		return nil
	})
}
