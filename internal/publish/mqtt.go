package publish

import (
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	disconnectQuiesceMs   = 250
)

// MQTTConfig configures an MQTTBroker.
type MQTTConfig struct {
	Broker         string
	ClientID       string
	QoS            byte
	Retain         bool
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
	Logger         *slog.Logger
}

// MQTTBroker publishes to an MQTT broker with automatic reconnection.
type MQTTBroker struct {
	client  mqtt.Client
	qos     byte
	retain  bool
	timeout time.Duration
	logger  *slog.Logger
}

// NewMQTTBroker connects to cfg.Broker and returns once the first
// connection succeeds or fails.
func NewMQTTBroker(cfg MQTTConfig) (*MQTTBroker, error) {
	if cfg.Broker == "" {
		return nil, ErrNoBroker
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaultPublishTimeout
	}
	if cfg.QoS > 2 {
		return nil, fmt.Errorf("publish: qos %d out of range", cfg.QoS)
	}
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("elitepanel-%d", time.Now().Unix())
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "mqtt", "broker", cfg.Broker)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetOnConnectHandler(func(mqtt.Client) {
		logger.Info("publish: connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("publish: connection lost, reconnecting", "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.ConnectTimeout) {
		return nil, fmt.Errorf("publish: connect %s: %w", cfg.Broker, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("publish: connect %s: %w", cfg.Broker, err)
	}

	return &MQTTBroker{
		client:  client,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.PublishTimeout,
		logger:  logger,
	}, nil
}

// Publish sends payload to topic and waits up to the publish timeout for the
// broker to accept it.
func (b *MQTTBroker) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, b.qos, b.retain, payload)
	if !token.WaitTimeout(b.timeout) {
		return fmt.Errorf("publish: %s: %w", topic, ErrTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (b *MQTTBroker) Close() {
	if b.client.IsConnected() {
		b.client.Disconnect(disconnectQuiesceMs)
	}
}
