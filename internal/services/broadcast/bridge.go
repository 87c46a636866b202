package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	pkgmqtt "github.com/gardenlab/garden-telemetry/pkg/mqtt"
)

// DefaultBridgeTopic is the topic template field devices subscribe to
// for their pot's pump commands.
const DefaultBridgeTopic = "actuation/flowerpot/{flowerpot}"

// Bridge relays every actuation event from the in-process registry to
// the MQTT broker, so pumps in the field receive commands without
// holding a websocket. Delivery stays best-effort: a publish failure
// is logged and the event is gone.
type Bridge struct {
	publisher pkgmqtt.IPublisher
	topicTmpl string
}

func NewBridge(publisher pkgmqtt.IPublisher, topicTmpl string) *Bridge {
	if strings.TrimSpace(topicTmpl) == "" {
		topicTmpl = DefaultBridgeTopic
	}
	return &Bridge{publisher: publisher, topicTmpl: topicTmpl}
}

// Run consumes a wildcard subscription until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context, registry *Registry) {
	sub := registry.SubscribeAll(4 * DefaultBuffer)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events():
			if !ok {
				return
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				log.Printf("broadcast: marshal actuation event: %v", err)
				continue
			}
			topic := strings.NewReplacer(
				"{flowerpot}", strconv.FormatInt(evt.FlowerpotID, 10),
			).Replace(b.topicTmpl)
			if err := b.publisher.PublishMessage(topic, payload); err != nil {
				log.Printf("broadcast: publish to %s: %v", topic, err)
			}
		}
	}
}
