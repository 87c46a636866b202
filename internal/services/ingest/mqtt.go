package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/gardenlab/garden-telemetry/internal/model/messages"
	"github.com/gardenlab/garden-telemetry/internal/observability/metrics"
	"github.com/gardenlab/garden-telemetry/pkg/dedup"
	pkgmqtt "github.com/gardenlab/garden-telemetry/pkg/mqtt"
)

// MQTTSource feeds broker-published readings into the same pipeline as
// websocket sessions, for field devices that cannot hold a socket to
// the service. QoS 1 redeliveries are dropped by payload hash.
type MQTTSource struct {
	consumer pkgmqtt.IConsumer
	pipeline *Pipeline
	deduper  *dedup.Deduper
}

func NewMQTTSource(consumer pkgmqtt.IConsumer, pipeline *Pipeline) *MQTTSource {
	return &MQTTSource{
		consumer: consumer,
		pipeline: pipeline,
		deduper:  dedup.New(10*time.Minute, 20000),
	}
}

// Start injects the handler and blocks consuming until ctx is
// cancelled.
func (s *MQTTSource) Start(ctx context.Context) {
	s.consumer.SetHandler(func(topic string, m mqtt.Message) error {
		h := sha256.Sum256(m.Payload())
		if !s.deduper.ShouldProcess(hex.EncodeToString(h[:])) {
			return nil
		}

		var msg messages.ReadingMessage
		if err := json.Unmarshal(m.Payload(), &msg); err != nil {
			log.Printf("ingest: bad payload on %s: %v", topic, err)
			metrics.ObserveMalformed()
			return nil // do not block the stream
		}

		if err := s.pipeline.Process(ctx, "mqtt", msg); err != nil {
			log.Printf("ingest: %s: %v", topic, err)
		}
		return nil
	})

	s.consumer.ConsumeMessage(ctx)
}
