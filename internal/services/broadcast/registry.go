package broadcast

import (
	"sync"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
)

// DefaultBuffer is the per-subscriber channel depth. A subscriber that
// falls this far behind starts losing events; delivery is at-most-once.
const DefaultBuffer = 8

// Subscription is one registered interest in a flowerpot's actuation
// topic. Events arrive on Events() until Close.
type Subscription struct {
	registry *Registry
	potID    int64
	all      bool
	ch       chan messages.ActuationEvent
	once     sync.Once
}

// Events is the subscriber's receive side. The channel is closed by
// Close.
func (s *Subscription) Events() <-chan messages.ActuationEvent {
	return s.ch
}

// Close unregisters the subscription and closes its channel.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.registry.remove(s)
		close(s.ch)
	})
}

// Registry is the topic registry for actuation fan-out: subscriber set
// per flowerpot id. Publish never blocks, so a slow or absent
// subscriber cannot stall ingestion.
type Registry struct {
	mu   sync.RWMutex
	subs map[int64]map[*Subscription]struct{}
	wild map[*Subscription]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		subs: make(map[int64]map[*Subscription]struct{}),
		wild: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers interest in one pot's actuation topic.
func (r *Registry) Subscribe(potID int64, buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{registry: r, potID: potID, ch: make(chan messages.ActuationEvent, buffer)}

	r.mu.Lock()
	set, ok := r.subs[potID]
	if !ok {
		set = make(map[*Subscription]struct{})
		r.subs[potID] = set
	}
	set[sub] = struct{}{}
	r.mu.Unlock()

	return sub
}

// SubscribeAll registers interest in every pot's topic. Used by the
// MQTT bridge that relays commands to field devices.
func (r *Registry) SubscribeAll(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	sub := &Subscription{registry: r, all: true, ch: make(chan messages.ActuationEvent, buffer)}

	r.mu.Lock()
	r.wild[sub] = struct{}{}
	r.mu.Unlock()

	return sub
}

func (r *Registry) remove(sub *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.all {
		delete(r.wild, sub)
		return
	}
	if set, ok := r.subs[sub.potID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.subs, sub.potID)
		}
	}
}

// Publish delivers evt to every subscriber of the event's pot topic,
// plus wildcard subscribers. Full buffers drop the event for that
// subscriber; with nobody registered the event is dropped entirely.
func (r *Registry) Publish(evt messages.ActuationEvent) (delivered, dropped int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	send := func(sub *Subscription) {
		select {
		case sub.ch <- evt:
			delivered++
		default:
			dropped++
		}
	}
	for sub := range r.subs[evt.FlowerpotID] {
		send(sub)
	}
	for sub := range r.wild {
		send(sub)
	}
	return delivered, dropped
}
