package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MeterName is the instrumentation scope of paystub metrics
const MeterName = "github.com/evmosdao/paystub"

// ExportMetrics records PDF export outcomes and latencies.
type ExportMetrics struct {
	outcomes      *Counter
	duration      *Histogram
	stageDuration *Histogram
}

// NewExportMetrics registers the export instruments on meter
func NewExportMetrics(meter metric.Meter) (*ExportMetrics, error) {
	outcomes, err := NewCounter(meter,
		"paystub.export.outcomes",
		"PDF exports by outcome",
		"{export}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "paystub.export.duration",
		Description: "End-to-end PDF export duration",
		Unit:        "s",
		Boundaries:  ExportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	stageDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "paystub.export.stage.duration",
		Description: "Duration of one export stage",
		Unit:        "s",
		Boundaries:  ExportDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &ExportMetrics{
		outcomes:      outcomes,
		duration:      duration,
		stageDuration: stageDuration,
	}, nil
}

// RecordOutcome counts one finished export. code is empty on success.
func (m *ExportMetrics) RecordOutcome(ctx context.Context, outcome, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrExportOutcome.String(outcome)}
	if code != "" {
		attrs = append(attrs, AttrErrorCode.String(code))
	}
	m.outcomes.Inc(ctx, attrs...)
	m.duration.RecordDuration(ctx, elapsed, AttrExportOutcome.String(outcome))
}

// RecordStage records how long one pipeline stage took
func (m *ExportMetrics) RecordStage(ctx context.Context, stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.RecordDuration(ctx, elapsed, AttrExportStage.String(stage))
}
