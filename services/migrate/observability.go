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
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// migrateTracerName is the OTel tracer name for conversions.
const migrateTracerName = "migrate"

var (
	// filesTotal counts converted files by outcome.
	//
	// Labels:
	//   - status: "rewritten", "unchanged" or "failed"
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrate",
			Name:      "files_total",
			Help:      "Total number of files converted, by status.",
		},
		[]string{"status"},
	)

	// sitesTotal counts annotation sites folded into host maps.
	sitesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "migrate",
			Name:      "sites_rewritten_total",
			Help:      "Total number of annotation sites consumed.",
		},
	)

	// warningsTotal counts warnings by kind.
	//
	// Labels:
	//   - kind: "extraction" or "insertion"
	warningsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "migrate",
			Name:      "warnings_total",
			Help:      "Total number of conversion warnings, by kind.",
		},
		[]string{"kind"},
	)

	// convertDuration measures one Convert call, IO included.
	convertDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "migrate",
			Name:      "convert_duration_seconds",
			Help:      "Duration of file conversion in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"status"},
	)
)

// startConvertSpan starts a span covering one file conversion.
func startConvertSpan(ctx context.Context, path string, dryRun bool) (context.Context, trace.Span) {
	return otel.Tracer(migrateTracerName).Start(ctx, "migrate.Convert",
		trace.WithAttributes(
			attribute.String("file", path),
			attribute.Bool("dry_run", dryRun),
		),
	)
}

// endConvertSpan records the outcome of a conversion on span and metrics.
func endConvertSpan(span trace.Span, start time.Time, res *Result, err error) {
	status := string(StatusFailed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else if res != nil {
		status = string(res.Status)
		span.SetAttributes(
			attribute.String("status", status),
			attribute.Int("classes", res.Classes),
			attribute.Int("sites", res.Sites),
			attribute.Int("warnings", len(res.Warnings)),
		)
		sitesTotal.Add(float64(res.Sites))
		for _, w := range res.Warnings {
			warningsTotal.WithLabelValues(w.Kind.String()).Inc()
		}
	}
	filesTotal.WithLabelValues(status).Inc()
	convertDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	span.End()
}
