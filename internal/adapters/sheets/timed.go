package sheets

import (
	"context"
	"log/slog"
	"time"

	"congregation/internal/adapters/http/perf"
)

// DefaultSlowCallMs is the slow sheet-call threshold when none is configured.
const DefaultSlowCallMs = 1500

// TimedClient wraps a Client, logging slow calls and feeding the perf collector.
type TimedClient struct {
	inner       Client
	collector   *perf.Collector
	thresholdMs float64
}

var _ Client = (*TimedClient)(nil)

// NewTimedClient wraps inner. A nil collector disables recording.
func NewTimedClient(inner Client, collector *perf.Collector, slowMs int) *TimedClient {
	if slowMs <= 0 {
		slowMs = DefaultSlowCallMs
	}
	return &TimedClient{inner: inner, collector: collector, thresholdMs: float64(slowMs)}
}

func (t *TimedClient) observe(op, rng string, start time.Time, err error) {
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	if durationMs >= t.thresholdMs {
		slog.Warn("slow_sheet_call", "op", op, "range", rng, "duration_ms", durationMs)
	}
	if t.collector != nil {
		t.collector.Record(perf.Entry{
			Kind:       perf.KindSheetCall,
			Label:      op,
			Failed:     err != nil,
			DurationMs: durationMs,
			Timestamp:  start,
		})
	}
}

// Get times Client.Get.
func (t *TimedClient) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	start := time.Now()
	values, err := t.inner.Get(ctx, spreadsheetID, rng)
	t.observe("sheets.Get", rng, start, err)
	return values, err
}

// Update times Client.Update.
func (t *TimedClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	start := time.Now()
	err := t.inner.Update(ctx, spreadsheetID, rng, values)
	t.observe("sheets.Update", rng, start, err)
	return err
}

// Append times Client.Append.
func (t *TimedClient) Append(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	start := time.Now()
	err := t.inner.Append(ctx, spreadsheetID, rng, values)
	t.observe("sheets.Append", rng, start, err)
	return err
}
