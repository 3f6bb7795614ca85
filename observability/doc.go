// Package observability provides OpenTelemetry tracing and metrics for the
// chat pipeline, plus the health model served by the gateway.
//
// Setup:
//
//	shutdown, err := observability.Init(ctx, cfg)
//	defer shutdown(ctx)
//
//	metrics, err := observability.NewTurnMetrics(observability.Meter("chatkit"))
//
// Sessions record one span per streaming turn with per-attempt events, and
// TurnMetrics counts turns, retries and dropped frames by model and outcome.
package observability
