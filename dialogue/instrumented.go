package dialogue

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"nutricoach/confirm"
)

// InstrumentedEngine is an instrumented version of the Engine with
// observability metrics around turn handling.
type InstrumentedEngine struct {
	engine *Engine
	tracer trace.Tracer
	meter  metric.Meter
}

// NewInstrumentedEngine wraps an engine with tracing and metrics.
func NewInstrumentedEngine(engine *Engine, tracer trace.Tracer, meter metric.Meter) *InstrumentedEngine {
	return &InstrumentedEngine{
		engine: engine,
		tracer: tracer,
		meter:  meter,
	}
}

// Pending exposes the underlying engine's pending action store.
func (e *InstrumentedEngine) Pending() *confirm.Store { return e.engine.Pending() }

// LoadToday primes session state with the meals already logged today.
func (e *InstrumentedEngine) LoadToday(ctx context.Context) error {
	ctx, span := e.tracer.Start(ctx, "InstrumentedEngine.LoadToday")
	defer span.End()

	if err := e.engine.LoadToday(ctx); err != nil {
		span.SetStatus(codes.Error, "Failed to load today's meals")
		span.RecordError(err)
		return err
	}
	return nil
}

// HandleMessage runs one instrumented dialogue turn.
func (e *InstrumentedEngine) HandleMessage(ctx context.Context, message string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "InstrumentedEngine.HandleMessage")
	defer span.End()

	slog.Info("ENGINE: Starting instrumented turn", "message_length", len(message))

	turnsCounter, _ := e.meter.Int64Counter("dialogue_turns_total",
		metric.WithDescription("Total number of dialogue turns processed"))
	turnsFailedCounter, _ := e.meter.Int64Counter("dialogue_turns_failed_total",
		metric.WithDescription("Total number of dialogue turns that failed"))

	messageLengthGauge, _ := e.meter.Int64Gauge("turn_message_length",
		metric.WithDescription("Length of the incoming user message in bytes"))
	replyLengthGauge, _ := e.meter.Int64Gauge("turn_reply_length",
		metric.WithDescription("Length of the primary reply in bytes"))
	pendingActionsGauge, _ := e.meter.Int64Gauge("pending_actions_count",
		metric.WithDescription("Number of actions awaiting confirmation after the turn"))

	turnDurationHist, _ := e.meter.Float64Histogram("turn_duration_seconds",
		metric.WithDescription("Duration of a full dialogue turn in seconds"))

	turnsCounter.Add(ctx, 1)
	messageLengthGauge.Record(ctx, int64(len(message)))

	span.AddEvent("Handling message", trace.WithAttributes(
		attribute.Int("message_length", len(message)),
	))

	start := time.Now()
	reply, err := e.engine.HandleMessage(ctx, message)
	turnDurationHist.Record(ctx, time.Since(start).Seconds())

	if err != nil {
		turnsFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Turn handling failed")
		span.RecordError(err)
		return "", err
	}

	replyLengthGauge.Record(ctx, int64(len(reply)))
	pendingActionsGauge.Record(ctx, int64(len(e.engine.Pending().Pending())))

	span.AddEvent("Turn complete", trace.WithAttributes(
		attribute.Int("reply_length", len(reply)),
	))

	return reply, nil
}
