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
	"testing"

	"github.com/AleutianAI/ngmigrate/services/migrate/ast"
	"github.com/AleutianAI/ngmigrate/services/migrate/hostbinding"
	"github.com/AleutianAI/ngmigrate/services/migrate/workspace"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const buttonComponent = `import { Component, HostBinding } from '@angular/core';

@Component({
  selector: 'app-button',
  template: '<ng-content />',
})
export class ButtonComponent {
  @HostBinding('class.active') isActive = true;

  @HostBinding('attr.aria-disabled') get isDisabled() {
    return false;
  }
}
`

const buttonComponentConverted = `import { Component, HostBinding } from '@angular/core';

@Component({
  selector: 'app-button',
  template: '<ng-content />',
  host: {
    'class.active': 'this.isActive',
    'attr.aria-disabled': 'this.isDisabled',
  },
})
export class ButtonComponent {
  isActive = true;

  get isDisabled() {
    return false;
  }
}
`

const plainService = `import { Injectable } from '@angular/core';

@Injectable({ providedIn: 'root' })
export class DataService {}
`

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestConverter_Convert(t *testing.T) {
	ctx := context.Background()
	store := workspace.NewMemStore(map[string]string{
		"src/button.component.ts": buttonComponent,
		"src/data.service.ts":     plainService,
	})
	conv := NewConverter(store, hostbinding.DefaultOptions())

	res, err := conv.Convert(ctx, "src/button.component.ts")
	require.NoError(t, err)
	assert.Equal(t, StatusRewritten, res.Status)
	assert.Equal(t, 1, res.Classes)
	assert.Equal(t, 2, res.Sites)
	assert.False(t, res.ImportRemoved)
	assert.Empty(t, res.Warnings)

	written, err := store.ReadText(ctx, "src/button.component.ts")
	require.NoError(t, err)
	if diff := cmp.Diff(buttonComponentConverted, written); diff != "" {
		t.Errorf("written file mismatch (-want +got):\n%s", diff)
	}

	t.Run("second run is a no-op", func(t *testing.T) {
		res, err := conv.Convert(ctx, "src/button.component.ts")
		require.NoError(t, err)
		assert.Equal(t, StatusUnchanged, res.Status)
		assert.Equal(t, ReasonNoAnnotations, res.Reason)
		assert.Equal(t, 1, store.Writes())
	})

	t.Run("file without annotations", func(t *testing.T) {
		res, err := conv.Convert(ctx, "src/data.service.ts")
		require.NoError(t, err)
		assert.Equal(t, StatusUnchanged, res.Status)
		assert.Equal(t, plainService, res.Output)
		assert.Equal(t, 1, store.Writes())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := conv.Convert(ctx, "src/missing.ts")
		assert.ErrorIs(t, err, workspace.ErrNotFound)
	})
}

func TestConverter_ParseErrorWritesNothing(t *testing.T) {
	store := workspace.NewMemStore(map[string]string{
		"broken.ts": "import { HostBinding } from '@angular/core';\nclass A {\n  @HostBinding('x') a = ;\n",
	})
	conv := NewConverter(store, hostbinding.DefaultOptions())

	_, err := conv.Convert(context.Background(), "broken.ts")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, ast.ErrSyntax)
	assert.Zero(t, store.Writes())
}

func TestConverter_FileSizeLimit(t *testing.T) {
	store := workspace.NewMemStore(map[string]string{"big.ts": buttonComponent})
	conv := NewConverter(store, hostbinding.DefaultOptions(), WithParseOptions(ast.WithMaxFileSize(64)))

	_, err := conv.Convert(context.Background(), "big.ts")
	assert.ErrorIs(t, err, ErrParse)
	assert.ErrorIs(t, err, ast.ErrFileTooLarge)
}

func TestConverter_DryRun(t *testing.T) {
	store := workspace.NewMemStore(map[string]string{"a.ts": buttonComponent})
	conv := NewConverter(store, hostbinding.DefaultOptions(), WithDryRun(true))

	res, err := conv.Convert(context.Background(), "a.ts")
	require.NoError(t, err)
	assert.Equal(t, StatusRewritten, res.Status)
	assert.Equal(t, buttonComponentConverted, res.Output)
	assert.Equal(t, buttonComponent, res.Original)
	assert.Zero(t, store.Writes())
}

func TestConverter_AllSitesSkipped(t *testing.T) {
	src := `import { Component, HostBinding } from '@angular/core';

@Component({ selector: 'x' })
export class X {
  @HostBinding() a = true;
}
`
	conv := NewConverter(workspace.NewMemStore(nil), hostbinding.DefaultOptions())
	res, err := conv.ConvertText(context.Background(), "x.ts", src)
	require.NoError(t, err)
	assert.Equal(t, StatusUnchanged, res.Status)
	assert.Equal(t, ReasonAllSkipped, res.Reason)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, hostbinding.ExtractionWarning, res.Warnings[0].Kind)
}

func TestConverter_Spans(t *testing.T) {
	exporter := setupTestTracer(t)
	store := workspace.NewMemStore(map[string]string{"a.ts": buttonComponent})
	conv := NewConverter(store, hostbinding.DefaultOptions())

	_, err := conv.Convert(context.Background(), "a.ts")
	require.NoError(t, err)
	_, err = conv.Convert(context.Background(), "missing.ts")
	require.Error(t, err)

	var converts []tracetest.SpanStub
	parses := 0
	for _, s := range exporter.GetSpans() {
		switch s.Name {
		case "migrate.Convert":
			converts = append(converts, s)
		case "ast.Parse":
			parses++
		}
	}
	require.Len(t, converts, 2)
	assert.Equal(t, 1, parses)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range converts[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "a.ts", attrs["file"].AsString())
	assert.Equal(t, "rewritten", attrs["status"].AsString())
	assert.Equal(t, int64(2), attrs["sites"].AsInt64())

	assert.Equal(t, codes.Error, converts[1].Status.Code)
}
