package ingest

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
	"github.com/gardenlab/garden-telemetry/internal/observability/metrics"
	"github.com/gardenlab/garden-telemetry/internal/services/resolver"
	"github.com/gardenlab/garden-telemetry/internal/services/rules"
	"github.com/gardenlab/garden-telemetry/internal/services/timeseries"
)

// ErrMalformedMessage rejects a message without a usable sensor id or
// measurement bag. The session that sent it stays open.
var ErrMalformedMessage = errors.New("ingest: malformed reading message")

// OwnerResolver maps a sensor to the pots hosting it.
type OwnerResolver interface {
	Resolve(ctx context.Context, sensorID int64) ([]resolver.Owner, error)
}

// Notifier fans an actuation event out to the pot topic's subscribers.
type Notifier interface {
	Publish(evt messages.ActuationEvent) (delivered, dropped int)
}

// LatestSetter is the optional hot cache updated after each append.
type LatestSetter interface {
	SetLatest(ctx context.Context, r messages.Reading) error
}

// Pipeline is the per-message core of the gateway: resolve ownership,
// evaluate the threshold rule, append the reading, notify subscribers.
// Every step failure is recoverable; nothing here kills a session or
// the process.
type Pipeline struct {
	resolver OwnerResolver
	rules    *rules.Evaluator
	store    timeseries.Store
	notifier Notifier
	cache    LatestSetter // may be nil

	// breaker guards the store's write path so a down time-series
	// backend does not add a full timeout to every message.
	breaker *gobreaker.CircuitBreaker

	now func() time.Time
}

func NewPipeline(res OwnerResolver, ev *rules.Evaluator, store timeseries.Store, notifier Notifier, cache LatestSetter) *Pipeline {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "timeseries-append",
		Timeout: 10 * time.Second,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})
	return &Pipeline{
		resolver: res,
		rules:    ev,
		store:    store,
		notifier: notifier,
		cache:    cache,
		breaker:  breaker,
		now:      time.Now,
	}
}

// Process handles one inbound reading: resolve → evaluate → append →
// notify, in that order. It returns ErrMalformedMessage for bad shape;
// every other failure is logged and swallowed so the caller's receive
// loop keeps running. There is no atomicity between the append and the
// notify: actuation is latency-sensitive and best-effort.
func (p *Pipeline) Process(ctx context.Context, origin string, msg messages.ReadingMessage) error {
	if !msg.Valid() {
		metrics.ObserveMalformed()
		return ErrMalformedMessage
	}

	owners, err := p.resolver.Resolve(ctx, msg.SensorID)
	if err != nil {
		// Ownership is only needed for actuation; the reading is
		// persisted either way.
		log.Printf("ingest: resolve owner for sensor %d: %v", msg.SensorID, err)
		owners = nil
	}
	if len(owners) == 0 {
		metrics.ObserveResolveMiss()
	}

	decision := p.rules.Evaluate(msg.Measurements)

	ts := p.now().UTC()
	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.store.Append(ctx, msg.SensorID, msg.Measurements, ts)
	})
	if err != nil {
		// Recoverable: reading dropped, session continues.
		log.Printf("ingest: append reading for sensor %d: %v", msg.SensorID, err)
		metrics.ObserveWriteFailure()
	} else {
		metrics.ObserveReading(origin)
		if p.cache != nil {
			reading := messages.Reading{
				ID:           res.(string),
				SensorID:     msg.SensorID,
				Measurements: msg.Measurements,
				Timestamp:    ts,
			}
			if cerr := p.cache.SetLatest(ctx, reading); cerr != nil {
				log.Printf("ingest: latest cache for sensor %d: %v", msg.SensorID, cerr)
			}
		}
	}

	if decision.Triggered {
		for _, o := range owners {
			delivered, dropped := p.notifier.Publish(messages.ActuationEvent{
				FlowerpotID: o.FlowerpotID,
				GardenID:    o.GardenID,
				SensorID:    msg.SensorID,
				Command:     decision.Command,
				Timestamp:   ts,
			})
			metrics.ObserveActuations(delivered, dropped)
		}
	}

	return nil
}
