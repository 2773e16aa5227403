package tagging

import (
	"context"
	"time"

	"herdbook/internal/core/tagging"
	"herdbook/pkg/logger"
)

// Event describes one finished generation call, or one notable step in it.
type Event struct {
	FarmID   string
	System   tagging.NumberingSystem
	Outcome  tagging.Outcome
	Tag      string
	Attempts int
	Duration time.Duration
	// Err is the failure that sent the call to the global fallback, if any.
	Err error
}

// Observer receives generation events. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

// Observe implements Observer.
func (f ObserverFunc) Observe(ctx context.Context, ev Event) { f(ctx, ev) }

// MultiObserver fans events out to every observer in order.
type MultiObserver []Observer

// Observe implements Observer.
func (m MultiObserver) Observe(ctx context.Context, ev Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(ctx, ev)
		}
	}
}

type nopObserver struct{}

func (nopObserver) Observe(context.Context, Event) {}

// LogObserver writes events through pkg/logger. A nil Logger uses the
// logger carried by the context.
type LogObserver struct {
	Logger *logger.Logger
}

// Observe implements Observer.
func (o LogObserver) Observe(ctx context.Context, ev Event) {
	log := o.Logger
	if log == nil {
		log = logger.FromContext(ctx)
	} else {
		log = log.WithContext(ctx)
	}

	kv := []any{
		"method", string(ev.System),
		"farm_id", ev.FarmID,
		"outcome", string(ev.Outcome),
		"tag", ev.Tag,
		"attempts", ev.Attempts,
		"duration_ms", ev.Duration.Milliseconds(),
	}

	switch {
	case ev.Err != nil:
		log.Errorw("tag generation fell back", append(kv, "error", ev.Err)...)
	case ev.Outcome.IsFallback():
		log.Warnw("tag generation fell back", kv...)
	default:
		log.Infow("tag generated", kv...)
	}
}
