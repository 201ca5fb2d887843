// Package eventstest provides an in-memory events.Publisher for tests.
package eventstest

import (
	"context"
	"sync"

	"github.com/franciscosanchezn/pizza-order-api/internal/events"
)

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	Events []events.Event
}

var _ events.Publisher = (*Recorder)(nil)

func (r *Recorder) Publish(ctx context.Context, event events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
	return nil
}

func (r *Recorder) Close() {}

// Types returns the recorded event types in publish order
func (r *Recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]events.Type, 0, len(r.Events))
	for _, event := range r.Events {
		types = append(types, event.Type)
	}
	return types
}
