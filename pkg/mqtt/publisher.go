package mqtt

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads to broker topics.
type IPublisher interface {
	PublishMessage(topic string, payload []byte) error
	PublishQoS(topic string, qos byte, retained bool, payload []byte) error
	Close()
}

// Publisher wraps the shared MQTT client for outbound messages.
type Publisher struct {
	client mqtt.Client
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishMessage publishes at QoS 0 (at most once), matching the
// best-effort delivery of actuation commands.
func (p *Publisher) PublishMessage(topic string, payload []byte) error {
	return p.PublishQoS(topic, 0, false, payload)
}

func (p *Publisher) PublishQoS(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close gracefully closes the MQTT connection for the publisher.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
