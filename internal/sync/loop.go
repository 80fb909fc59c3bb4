package sync

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/quaylabs/tidesync/internal/notify"
)

// EventSource yields change events, blocking up to a timeout. ok=false means
// the wait expired with nothing to report.
type EventSource interface {
	Next(ctx context.Context, timeout time.Duration) (notify.Event, bool, error)
}

// drainTimeout bounds the zero-ish waits used to empty already-queued
// notifications before a flush.
const drainTimeout = 25 * time.Millisecond

// Loop is the steady-state streaming loop: wait one debounce window, drain
// whatever queued, flush one action per key. Deliberately single-threaded so
// no two appliers can race on the same key.
type Loop struct {
	Events  EventSource
	Applier *Applier
	Window  time.Duration
	Tracer  trace.Tracer
}

// Run executes the loop until a connection error (returned) or context
// cancellation (nil). Shutdown is cooperative: cancellation is observed
// between iterations and an in-flight flush always completes.
func (l *Loop) Run(ctx context.Context) error {
	window := l.Window
	if window <= 0 {
		window = time.Second
	}
	tracer := l.Tracer
	if tracer == nil {
		tracer = otel.Tracer("tidesync/sync")
	}

	agg := NewAggregator()
	for {
		if ctx.Err() != nil {
			return nil
		}

		event, ok, err := l.Events.Next(ctx, window)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if ok {
			agg.Add(event)
			if err := l.drain(ctx, agg); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
		}
		if agg.Len() == 0 {
			continue
		}

		flushCtx, span := tracer.Start(context.WithoutCancel(ctx), "sync.flush",
			trace.WithAttributes(attribute.Int("keys", agg.Len())))
		stats, err := l.Applier.Apply(flushCtx, agg.Flush())
		if err != nil {
			span.RecordError(err)
			span.End()
			return err
		}
		span.SetAttributes(
			attribute.Int("upserts", stats.Upserts),
			attribute.Int("deletes", stats.Deletes),
			attribute.Int("failures", stats.Failures),
		)
		span.End()
		log.Printf("sync: flushed %d upserts, %d deletes, %d failures", stats.Upserts, stats.Deletes, stats.Failures)
	}
}

func (l *Loop) drain(ctx context.Context, agg *Aggregator) error {
	for {
		event, ok, err := l.Events.Next(ctx, drainTimeout)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		agg.Add(event)
	}
}
