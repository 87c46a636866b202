package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "garden_"

var (
	registerOnce sync.Once

	readingsIngested  *prometheus.CounterVec
	malformedMessages prometheus.Counter
	writeFailures     prometheus.Counter
	resolveMisses     prometheus.Counter

	actuationsPublished prometheus.Counter
	actuationsDropped   prometheus.Counter
)

// Init registers the pipeline metrics on the default registry. Safe to
// call more than once; helpers are no-ops until it runs.
func Init() {
	registerOnce.Do(func() {
		readingsIngested = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "readings_ingested_total",
				Help: "Readings accepted by the pipeline, by origin channel",
			},
			[]string{"origin"},
		)
		malformedMessages = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "malformed_messages_total",
			Help: "Inbound messages rejected for bad shape",
		})
		writeFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "reading_write_failures_total",
			Help: "Time-series appends that failed and were dropped",
		})
		resolveMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "resolve_misses_total",
			Help: "Readings whose sensor had no owning flowerpot",
		})
		actuationsPublished = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "actuations_published_total",
			Help: "Actuation events handed to topic subscribers",
		})
		actuationsDropped = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "actuations_dropped_total",
			Help: "Actuation events dropped for full or absent subscribers",
		})

		prometheus.MustRegister(
			readingsIngested,
			malformedMessages,
			writeFailures,
			resolveMisses,
			actuationsPublished,
			actuationsDropped,
		)
	})
}

func ObserveReading(origin string) {
	if readingsIngested != nil {
		readingsIngested.WithLabelValues(origin).Inc()
	}
}

func ObserveMalformed() {
	if malformedMessages != nil {
		malformedMessages.Inc()
	}
}

func ObserveWriteFailure() {
	if writeFailures != nil {
		writeFailures.Inc()
	}
}

func ObserveResolveMiss() {
	if resolveMisses != nil {
		resolveMisses.Inc()
	}
}

func ObserveActuations(published, dropped int) {
	if actuationsPublished != nil && published > 0 {
		actuationsPublished.Add(float64(published))
	}
	if actuationsDropped != nil && dropped > 0 {
		actuationsDropped.Add(float64(dropped))
	}
}
