package mqtt

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one inbound message from a subscribed topic.
type Handler func(topic string, message mqtt.Message) error

// IConsumer subscribes to a topic and feeds messages to a handler.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer holds the client and topic for a single subscription.
type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler Handler
}

// NewConsumer creates a Consumer on the shared MQTT client. The handler
// may be nil and injected later with SetHandler.
func NewConsumer(client mqtt.Client, topic string, qos byte, handler Handler) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// ConsumeMessage subscribes to the topic and processes messages with the
// handler. It blocks until the context is cancelled, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		c.qos,
		func(_ mqtt.Client, message mqtt.Message) {
			if c.handler == nil {
				log.Printf("mqtt: no handler set for topic %s", c.topic)
				return
			}
			if err := c.handler(message.Topic(), message); err != nil {
				log.Printf("mqtt: error handling message on %s: %v", message.Topic(), err)
			}
		},
	)

	if token.Wait() && token.Error() != nil {
		log.Printf("mqtt: error subscribing to topic %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqtt: subscribed to topic %s", c.topic)

	<-ctx.Done()

	unsubToken := c.client.Unsubscribe(c.topic)
	unsubToken.Wait()
}
