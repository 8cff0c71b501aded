package messaging

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQuiesceMillis  = 250
)

// MQTTBus is a Bus backed by an MQTT broker. Subscriptions are remembered and
// re-established every time the client reconnects.
type MQTTBus struct {
	client mqtt.Client

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
}

// NewMQTTBus connects to brokerURL (e.g. "tcp://localhost:1883").
func NewMQTTBus(brokerURL, clientID string) (*MQTTBus, error) {
	b := &MQTTBus{subs: make(map[string]map[int]Handler)}

	opts := b.clientOptions(brokerURL, clientID)

	b.client = mqtt.NewClient(opts)
	tok := b.client.Connect()
	if !tok.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", brokerURL)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", brokerURL, err)
	}
	return b, nil
}

// clientOptions configures paho. With OrderMatters off each message handler
// runs on its own goroutine; detection handlers block on the store and on
// publish acks.
func (b *MQTTBus) clientOptions(brokerURL, clientID string) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(brokerURL).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetOrderMatters(false).
		SetConnectTimeout(mqttConnectTimeout).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("⚠️ [MQTT] Connection lost: %v", err)
		})
}

func (b *MQTTBus) onConnect(c mqtt.Client) {
	log.Println("✅ [MQTT] Connected to broker")
	b.mu.Lock()
	topics := make([]string, 0, len(b.subs))
	for topic := range b.subs {
		topics = append(topics, topic)
	}
	b.mu.Unlock()

	for _, topic := range topics {
		if err := b.subscribeRemote(topic); err != nil {
			log.Printf("❌ [MQTT] Resubscribe %s failed: %v", topic, err)
		}
	}
}

func (b *MQTTBus) subscribeRemote(topic string) error {
	tok := b.client.Subscribe(topic, mqttQoS, func(_ mqtt.Client, m mqtt.Message) {
		b.dispatch(Message{Topic: m.Topic(), Payload: m.Payload()})
	})
	if !tok.WaitTimeout(mqttConnectTimeout) {
		return fmt.Errorf("subscribe %s timed out", topic)
	}
	return tok.Error()
}

func (b *MQTTBus) dispatch(msg Message) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[msg.Topic]))
	for _, h := range b.subs[msg.Topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(context.Background(), msg)
	}
}

func (b *MQTTBus) Publish(ctx context.Context, topic string, payload []byte) error {
	tok := b.client.Publish(topic, mqttQoS, false, payload)
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(mqttPublishTimeout):
		return fmt.Errorf("publish to %s timed out", topic)
	}
}

func (b *MQTTBus) Subscribe(topic string, h Handler) (func(), error) {
	b.mu.Lock()
	first := len(b.subs[topic]) == 0
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[int]Handler)
	}
	id := b.nextID
	b.nextID++
	b.subs[topic][id] = h
	b.mu.Unlock()

	if first && b.client.IsConnectionOpen() {
		if err := b.subscribeRemote(topic); err != nil {
			b.mu.Lock()
			delete(b.subs[topic], id)
			b.mu.Unlock()
			return nil, fmt.Errorf("mqtt subscribe %s: %w", topic, err)
		}
		log.Printf("✅ [MQTT] Subscribed to '%s'", topic)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs[topic], id)
			last := len(b.subs[topic]) == 0
			if last {
				delete(b.subs, topic)
			}
			b.mu.Unlock()
			if last {
				b.client.Unsubscribe(topic)
			}
		})
	}, nil
}

func (b *MQTTBus) Close() error {
	b.client.Disconnect(mqttQuiesceMillis)
	return nil
}
