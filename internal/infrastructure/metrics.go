package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// BusinessMetrics holds all application-specific instruments
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Feed metrics
	FeedLoadsTotal    metric.Int64Counter
	FeedLoadDuration  metric.Float64Histogram
	FeedRowsTotal     metric.Int64Counter
	FeedDateFallbacks metric.Int64Counter
	SnapshotRecords   metric.Int64Gauge

	// View metrics
	ViewComputations metric.Int64Counter
	ViewDuration     metric.Float64Histogram

	// Session metrics
	SessionsActive  metric.Int64UpDownCounter
	SessionMessages metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	var (
		m   BusinessMetrics
		err error
	)

	if m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	); err != nil {
		return nil, err
	}

	if m.FeedLoadsTotal, err = meter.Int64Counter(
		"feed_loads_total",
		metric.WithDescription("Snapshot feed load attempts by outcome"),
	); err != nil {
		return nil, err
	}

	if m.FeedLoadDuration, err = meter.Float64Histogram(
		"feed_load_duration_seconds",
		metric.WithDescription("Snapshot feed fetch and normalize duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.FeedRowsTotal, err = meter.Int64Counter(
		"feed_rows_total",
		metric.WithDescription("Feed rows by normalization result"),
	); err != nil {
		return nil, err
	}

	if m.FeedDateFallbacks, err = meter.Int64Counter(
		"feed_date_fallbacks_total",
		metric.WithDescription("Rows whose date could not be parsed"),
	); err != nil {
		return nil, err
	}

	if m.SnapshotRecords, err = meter.Int64Gauge(
		"snapshot_records",
		metric.WithDescription("Records held by the current snapshot"),
	); err != nil {
		return nil, err
	}

	if m.ViewComputations, err = meter.Int64Counter(
		"view_computations_total",
		metric.WithDescription("View selections computed, by view type"),
	); err != nil {
		return nil, err
	}

	if m.ViewDuration, err = meter.Float64Histogram(
		"view_computation_duration_seconds",
		metric.WithDescription("Filter, sort and aggregate duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.SessionsActive, err = meter.Int64UpDownCounter(
		"ws_sessions_active",
		metric.WithDescription("Open WebSocket sessions"),
	); err != nil {
		return nil, err
	}

	if m.SessionMessages, err = meter.Int64Counter(
		"ws_messages_total",
		metric.WithDescription("WebSocket messages by direction"),
	); err != nil {
		return nil, err
	}

	return &m, nil
}

// FeedLoadStats summarizes one load for metric recording
type FeedLoadStats struct {
	Outcome       string
	Duration      time.Duration
	Kept          int
	Dropped       int
	Rejected      int
	DateFallbacks int
}

// RecordFeedLoad records one feed load attempt
func (m *BusinessMetrics) RecordFeedLoad(ctx context.Context, s FeedLoadStats) {
	if m == nil {
		return
	}

	outcome := metric.WithAttributes(attribute.String("outcome", s.Outcome))
	m.FeedLoadsTotal.Add(ctx, 1, outcome)
	m.FeedLoadDuration.Record(ctx, s.Duration.Seconds(), outcome)

	if s.Outcome != "success" {
		return
	}

	m.FeedRowsTotal.Add(ctx, int64(s.Kept), metric.WithAttributes(attribute.String("result", "kept")))
	m.FeedRowsTotal.Add(ctx, int64(s.Dropped), metric.WithAttributes(attribute.String("result", "dropped")))
	m.FeedRowsTotal.Add(ctx, int64(s.Rejected), metric.WithAttributes(attribute.String("result", "rejected")))
	m.FeedDateFallbacks.Add(ctx, int64(s.DateFallbacks))
	m.SnapshotRecords.Record(ctx, int64(s.Kept))
}

// RecordView records one computed view
func (m *BusinessMetrics) RecordView(ctx context.Context, viewType string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("view_type", viewType))
	m.ViewComputations.Add(ctx, 1, attrs)
	m.ViewDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSessionMessage counts a WebSocket message in the given direction
func (m *BusinessMetrics) RecordSessionMessage(ctx context.Context, direction, msgType string) {
	if m == nil {
		return
	}
	m.SessionMessages.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", direction),
		attribute.String("type", msgType),
	))
}

// RecordSessionChange adjusts the open session count
func (m *BusinessMetrics) RecordSessionChange(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.SessionsActive.Add(ctx, delta)
}
