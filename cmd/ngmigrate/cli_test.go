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
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AleutianAI/ngmigrate/services/migrate"
	"github.com/AleutianAI/ngmigrate/services/migrate/hostbinding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const directiveSource = `import { Directive, HostBinding } from '@angular/core';

@Directive({
  selector: '[appHighlight]',
})
export class HighlightDirective {
  @HostBinding('class.highlighted') highlighted = true;
}
`

const directiveConverted = `import { Directive, HostBinding } from '@angular/core';

@Directive({
  selector: '[appHighlight]',
  host: {
    'class.highlighted': 'this.highlighted',
  },
})
export class HighlightDirective {
  highlighted = true;
}
`

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	// Keep the repository's own .env out of the tests.
	args = append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...)
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestConvertCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "highlight.directive.ts")
	writeFile(t, path, directiveSource)

	code, stdout, stderr := run(t, "convert", dir)
	require.Equal(t, 0, code, stderr)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, directiveConverted, string(got))
	assert.Contains(t, stdout, "rewritten\t"+path+"\t1 classes, 1 sites\n")
	assert.Contains(t, stdout, "1 rewritten, 0 unchanged, 0 failed, 0 warnings")
}

func TestConvertCommand_DryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "highlight.directive.ts")
	writeFile(t, path, directiveSource)

	code, stdout, stderr := run(t, "convert", "--dry-run", path)
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, stdout, "--- a/")
	assert.Contains(t, stdout, "+    'class.highlighted': 'this.highlighted',\n")
	assert.Contains(t, stderr, "1 rewritten")

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, directiveSource, string(got))
}

func TestConvertCommand_Flags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	writeFile(t, path, directiveSource)

	code, _, stderr := run(t, "convert", "--bracket-keys", "--quote", "double", "--remove-import", path)
	require.Equal(t, 0, code, stderr)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(got), `"[class.highlighted]": "this.highlighted",`)
	assert.Contains(t, string(got), "import { Directive } from '@angular/core';\n")
}

func TestConvertCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "ngmigrate.yaml")
	writeFile(t, cfgPath, "host:\n  decorators: [Component]\n")
	path := filepath.Join(dir, "src", "a.ts")
	writeFile(t, path, directiveSource)

	code, stdout, _ := run(t, "--config", cfgPath, "convert", "--fail-on-warning", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "warning\t"+path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, directiveSource, string(got))
}

func TestConvertCommand_Failures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.ts"), "export class {")

	code, stdout, stderr := run(t, "convert", dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "failed\t")
	assert.Contains(t, stderr, "some files could not be converted")

	code, _, stderr = run(t, "convert")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "requires at least 1 arg")

	code, _, stderr = run(t, "--jobs", "0", "config")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Config.Jobs")
}

func TestConfigCommand(t *testing.T) {
	code, stdout, stderr := run(t, "--bracket-keys", "config")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "bracket_keys: true")
	assert.Contains(t, stdout, "name: HostBinding")
}

func TestTraceFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.ts")
	writeFile(t, path, directiveSource)
	traceFile := filepath.Join(dir, "spans.json")

	code, _, stderr := run(t, "--trace-file", traceFile, "convert", path)
	require.Equal(t, 0, code, stderr)

	data, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"migrate.Convert"`)
	assert.Contains(t, string(data), `"Name":"ast.Parse"`)
}

func TestRenderReport(t *testing.T) {
	s := &migrate.Summary{
		RunID:     "run-1",
		Rewritten: 1,
		Unchanged: 1,
		Failed:    1,
		Warnings:  1,
		Duration:  1500 * time.Millisecond,
		Files: []migrate.FileReport{
			{Path: "a.ts", Result: &migrate.Result{Status: migrate.StatusRewritten, Classes: 1, Sites: 2}},
			{Path: "b.ts", Result: &migrate.Result{
				Status: migrate.StatusUnchanged,
				Reason: migrate.ReasonAllSkipped,
				Warnings: []hostbinding.Warning{{
					Kind: hostbinding.ExtractionWarning, Class: "B", Member: "x", Line: 4, Message: "key is not a string literal",
				}},
			}},
			{Path: "c.ts", Err: errors.New("parse failed")},
		},
	}

	t.Run("plain", func(t *testing.T) {
		var buf bytes.Buffer
		renderReport(&buf, s, false)
		assert.Equal(t, strings.Join([]string{
			"rewritten\ta.ts\t1 classes, 2 sites",
			"unchanged\tb.ts\tall annotation sites skipped",
			"warning\tb.ts\tline 4: B.x: key is not a string literal (extraction)",
			"failed\tc.ts\tparse failed",
			"1 rewritten, 1 unchanged, 1 failed, 1 warnings (run run-1, 1.5s)",
			"",
		}, "\n"), buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		renderReport(&buf, s, true)
		out := buf.String()
		assert.Contains(t, out, "STATUS")
		assert.Contains(t, out, "a.ts")
		assert.Contains(t, out, "warning: b.ts: line 4")
		assert.Contains(t, out, "run run-1")
	})
}
