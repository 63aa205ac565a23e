package journal

import (
	"context"
	"time"
)

// Store persists and retrieves journal events.
type Store interface {
	// Append adds an event. A zero Timestamp is set to now.
	Append(ctx context.Context, e Event) error

	// ByRun returns the events of one run in insertion order.
	ByRun(ctx context.Context, runID string) ([]Event, error)

	// Range returns events within [start, end] in insertion order.
	Range(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}

// Discard is a Store that drops every event. It is used when the journal is disabled.
type Discard struct{}

func (Discard) Append(context.Context, Event) error                         { return nil }
func (Discard) ByRun(context.Context, string) ([]Event, error)              { return nil, nil }
func (Discard) Range(context.Context, time.Time, time.Time) ([]Event, error) { return nil, nil }
func (Discard) Close() error                                                 { return nil }
