// Package observe provides application-wide observability primitives for the
// sidecar tool: OpenTelemetry metrics, tracing, and structured logging.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all sidecar metrics.
const meterName = "github.com/fellmoon/sidecar"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// TranscribeDuration tracks speech-recognition latency per file.
	TranscribeDuration metric.Float64Histogram

	// GroupDuration tracks segment-grouping latency per file.
	GroupDuration metric.Float64Histogram

	// RenderDuration tracks sidecar rendering latency per file.
	RenderDuration metric.Float64Histogram

	// --- Counters ---

	// SegmentsProcessed counts recognised segments fed into grouping.
	SegmentsProcessed metric.Int64Counter

	// WordsProcessed counts transcript words emitted into paragraphs.
	WordsProcessed metric.Int64Counter

	// ParagraphsEmitted counts paragraphs produced by grouping.
	ParagraphsEmitted metric.Int64Counter

	// FilesProcessed counts media files by outcome. Use with attribute:
	//   attribute.String("status", "ok" | "skipped" | "error")
	FilesProcessed metric.Int64Counter

	// FileErrors counts per-file failures. Use with attribute:
	//   attribute.String("stage", "extract" | "transcribe" | "group" | "render" | "write" | "archive")
	FileErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveFiles tracks the number of files currently being processed.
	ActiveFiles metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// batch transcription, where a single file can take minutes.
var latencyBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.TranscribeDuration, err = m.Float64Histogram("sidecar.transcribe.duration",
		metric.WithDescription("Latency of speech recognition per file."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GroupDuration, err = m.Float64Histogram("sidecar.group.duration",
		metric.WithDescription("Latency of segment grouping per file."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RenderDuration, err = m.Float64Histogram("sidecar.render.duration",
		metric.WithDescription("Latency of sidecar rendering per file."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.SegmentsProcessed, err = m.Int64Counter("sidecar.segments.processed",
		metric.WithDescription("Total recognised segments fed into grouping."),
	); err != nil {
		return nil, err
	}
	if met.WordsProcessed, err = m.Int64Counter("sidecar.words.processed",
		metric.WithDescription("Total transcript words emitted into paragraphs."),
	); err != nil {
		return nil, err
	}
	if met.ParagraphsEmitted, err = m.Int64Counter("sidecar.paragraphs.emitted",
		metric.WithDescription("Total paragraphs produced by grouping."),
	); err != nil {
		return nil, err
	}
	if met.FilesProcessed, err = m.Int64Counter("sidecar.files.processed",
		metric.WithDescription("Total media files handled, by status."),
	); err != nil {
		return nil, err
	}
	if met.FileErrors, err = m.Int64Counter("sidecar.file.errors",
		metric.WithDescription("Total per-file failures, by pipeline stage."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveFiles, err = m.Int64UpDownCounter("sidecar.active_files",
		metric.WithDescription("Number of files currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordFile is a convenience method that records a file outcome counter
// increment with the standard status attribute.
func (m *Metrics) RecordFile(ctx context.Context, status string) {
	m.FilesProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordFileError is a convenience method that records a per-file failure
// counter increment with the standard stage attribute.
func (m *Metrics) RecordFileError(ctx context.Context, stage string) {
	m.FileErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
