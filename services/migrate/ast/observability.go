// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// astTracerName is the OTel tracer name for parsing.
const astTracerName = "migrate.ast"

var (
	// parseDuration measures tree-sitter parse time.
	//
	// Labels:
	//   - language: "typescript" or "tsx"
	//   - status: "success" or "error"
	parseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrate",
			Subsystem: "ast",
			Name:      "parse_duration_seconds",
			Help:      "Duration of source parsing in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"language", "status"},
	)

	// parseTotal counts parse attempts.
	parseTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrate",
			Subsystem: "ast",
			Name:      "parse_total",
			Help:      "Total number of parse attempts.",
		},
		[]string{"language", "status"},
	)
)

// startParseSpan starts a span covering one Parse call.
func startParseSpan(ctx context.Context, language, filePath string, size int) (context.Context, trace.Span) {
	return otel.Tracer(astTracerName).Start(ctx, "ast.Parse",
		trace.WithAttributes(
			attribute.String("language", language),
			attribute.String("file", filePath),
			attribute.Int("size_bytes", size),
		),
	)
}

// endParseSpan records the outcome on the span and the parse metrics.
func endParseSpan(span trace.Span, language string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	parseDuration.WithLabelValues(language, status).Observe(time.Since(start).Seconds())
	parseTotal.WithLabelValues(language, status).Inc()
	span.End()
}
