package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// TurnMetrics holds the instruments recorded per streaming chat turn.
type TurnMetrics struct {
	turnTotal     metric.Int64Counter
	turnDuration  metric.Float64Histogram
	turnActive    metric.Int64UpDownCounter
	retryTotal    metric.Int64Counter
	framesDropped metric.Int64Counter
}

// NewTurnMetrics creates the turn instruments on the given meter.
func NewTurnMetrics(meter metric.Meter) (*TurnMetrics, error) {
	turnTotal, err := meter.Int64Counter("chat.turn.total",
		metric.WithDescription("Completed streaming turns by model and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat.turn.total counter: %w", err)
	}

	turnDuration, err := meter.Float64Histogram("chat.turn.duration",
		metric.WithDescription("Streaming turn duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat.turn.duration histogram: %w", err)
	}

	turnActive, err := meter.Int64UpDownCounter("chat.turn.active",
		metric.WithDescription("Streaming turns currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat.turn.active gauge: %w", err)
	}

	retryTotal, err := meter.Int64Counter("chat.retry.total",
		metric.WithDescription("Turn attempts that were retried, by model and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat.retry.total counter: %w", err)
	}

	framesDropped, err := meter.Int64Counter("chat.frames.dropped",
		metric.WithDescription("Malformed stream frames skipped by the decoder"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat.frames.dropped counter: %w", err)
	}

	return &TurnMetrics{
		turnTotal:     turnTotal,
		turnDuration:  turnDuration,
		turnActive:    turnActive,
		retryTotal:    retryTotal,
		framesDropped: framesDropped,
	}, nil
}

// RecordTurnStart increments the in-flight turn count.
func (m *TurnMetrics) RecordTurnStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.turnActive.Add(ctx, 1)
}

// RecordTurnEnd records a finished turn with its outcome.
func (m *TurnMetrics) RecordTurnEnd(ctx context.Context, model, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.turnActive.Add(ctx, -1)
	m.turnTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("outcome", outcome),
	))
	m.turnDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("model", model),
	))
}

// RecordRetry records one retried attempt.
func (m *TurnMetrics) RecordRetry(ctx context.Context, model, code string) {
	if m == nil {
		return
	}
	m.retryTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("model", model),
		attribute.String("code", code),
	))
}

// RecordDroppedFrames records malformed frames skipped during one attempt.
func (m *TurnMetrics) RecordDroppedFrames(ctx context.Context, model string, count int) {
	if m == nil || count == 0 {
		return
	}
	m.framesDropped.Add(ctx, int64(count), metric.WithAttributes(
		attribute.String("model", model),
	))
}
