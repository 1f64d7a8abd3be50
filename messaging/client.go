package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fleetflow/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	kafkago "github.com/segmentio/kafka-go"
)

// Fleet events leave the process through one outbound client. The broker
// behind it is chosen by config: MQTT for depot-local installs, Kafka for
// the hosted stack. Both sit behind the broker interface so the outbox
// drainer never cares which one is wired.
type broker interface {
	connect() error
	publish(topic string, payload []byte) error
	connected() bool
	close()
}

type Client struct {
	mu      sync.RWMutex
	backend string
	b       broker
}

func NewClient(cfg *config.MessagingConfig) *Client {
	c := &Client{backend: cfg.Backend}
	switch cfg.Backend {
	case "mqtt":
		c.b = &mqttBroker{cfg: &cfg.MQTT}
	case "kafka":
		c.b = &kafkaBroker{cfg: &cfg.Kafka}
	}
	return c
}

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.b == nil {
		return fmt.Errorf("unknown messaging backend: %s", c.backend)
	}
	return c.b.connect()
}

// Publish sends a raw payload to the given topic.
func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.b == nil || !c.b.connected() {
		return fmt.Errorf("%s not connected", c.backend)
	}
	return c.b.publish(topic, payload)
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.b != nil && c.b.connected()
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.b != nil {
		c.b.close()
	}
}

type mqttBroker struct {
	cfg  *config.MQTTConfig
	conn mqtt.Client
}

func (m *mqttBroker) connect() error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", m.cfg.Broker, m.cfg.Port)).
		SetClientID(m.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	m.conn = client
	return nil
}

func (m *mqttBroker) publish(topic string, payload []byte) error {
	token := m.conn.Publish(topic, 1, false, payload)
	token.Wait()
	return token.Error()
}

func (m *mqttBroker) connected() bool { return m.conn != nil && m.conn.IsConnected() }

func (m *mqttBroker) close() {
	if m.conn != nil {
		m.conn.Disconnect(1000)
		m.conn = nil
	}
}

type kafkaBroker struct {
	cfg    *config.KafkaConfig
	writer *kafkago.Writer
}

func (k *kafkaBroker) connect() error {
	if len(k.cfg.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	k.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(k.cfg.Brokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return nil
}

func (k *kafkaBroker) publish(topic string, payload []byte) error {
	return k.writer.WriteMessages(context.Background(), kafkago.Message{
		Topic: topic,
		Value: payload,
	})
}

func (k *kafkaBroker) connected() bool { return k.writer != nil }

func (k *kafkaBroker) close() {
	if k.writer != nil {
		k.writer.Close()
		k.writer = nil
	}
}
