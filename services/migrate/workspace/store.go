// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package workspace reads and writes the files ngmigrate rewrites.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrNotFound indicates the requested file does not exist.
var ErrNotFound = errors.New("file not found")

// FileStore is the file adapter used by the converter.
//
// Description:
//
//	ReadText returns the whole file. WriteText replaces the file
//	atomically: readers observe either the old or the new content, never
//	a partial write.
//
// Thread Safety: Implementations must be safe for concurrent use on
// distinct paths.
type FileStore interface {
	ReadText(ctx context.Context, path string) (string, error)
	WriteText(ctx context.Context, path, text string) error
}

// OSStore is a FileStore backed by the local filesystem.
type OSStore struct{}

// NewOSStore creates an OSStore.
func NewOSStore() *OSStore {
	return &OSStore{}
}

// ReadText reads path.
//
// Outputs:
//   - string: The file content.
//   - error: Wraps ErrNotFound when path does not exist.
func (s *OSStore) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// WriteText replaces path with text.
//
// Description:
//
//	Writes to a temporary file in the same directory, syncs it, carries
//	over the original file mode and renames it over path. On any failure
//	the temporary file is removed and path is left untouched.
func (s *OSStore) WriteText(ctx context.Context, path, text string) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	mode := fs.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".ngmigrate-*")
	if err != nil {
		return fmt.Errorf("creating temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.WriteString(text); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err = tmp.Chmod(mode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// MemStore is an in-memory FileStore used by dry runs and tests.
//
// Thread Safety: Safe for concurrent use.
type MemStore struct {
	mu     sync.RWMutex
	files  map[string]string
	writes int
}

// NewMemStore creates a MemStore holding a copy of files.
func NewMemStore(files map[string]string) *MemStore {
	m := &MemStore{files: make(map[string]string, len(files))}
	for k, v := range files {
		m.files[k] = v
	}
	return m
}

// ReadText returns the stored text for path.
func (m *MemStore) ReadText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	text, ok := m.files[path]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return text, nil
}

// WriteText stores text for path.
func (m *MemStore) WriteText(ctx context.Context, path, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = text
	m.writes++
	return nil
}

// Writes returns the number of WriteText calls.
func (m *MemStore) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Paths returns the stored paths in sorted order.
func (m *MemStore) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for k := range m.files {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
