package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"wastemap-server/internal/config"
)

// MessageHandler processes one message payload. A returned error is logged;
// the message is not redelivered.
type MessageHandler func(ctx context.Context, topic string, payload []byte) error

// MQTTSubscriber lets feature modules attach their handler before Connect.
type MQTTSubscriber interface {
	SetMessageHandler(handler MessageHandler)
}

type Subscriber struct {
	client     mqtt.Client
	cfg        config.Config
	logger     *slog.Logger
	mu         sync.RWMutex
	connected  bool
	subscribed bool
	handler    MessageHandler

	stopCh   chan struct{}
	stopOnce sync.Once
}

func (s *Subscriber) SetMessageHandler(handler MessageHandler) {
	s.mu.Lock()
	s.handler = handler
	s.mu.Unlock()
}

func NewSubscriber(cfg config.Config, logger *slog.Logger) *Subscriber {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Subscriber{
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(BrokerURL(cfg))
	opts.SetClientID(cfg.MQTTClientID)

	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		s.setConnected(true)
		logger.Info("mqtt connected", "broker", cfg.MQTTBroker, "port", cfg.MQTTPort)
		// Clean sessions drop subscriptions, so restore them after a reconnect.
		if s.wasSubscribed() {
			if err := s.subscribe(); err != nil {
				logger.Error("mqtt resubscribe failed", "topic", cfg.MQTTTopic, "error", err)
			}
		}
	})

	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		s.setConnected(false)
		logger.Warn("mqtt connection lost", "error", err)
	})

	s.client = mqtt.NewClient(opts)
	return s
}

func BrokerURL(cfg config.Config) string {
	return fmt.Sprintf("tcp://%s:%d", cfg.MQTTBroker, cfg.MQTTPort)
}

// Connect establishes the broker connection and subscribes to the configured topic.
func (s *Subscriber) Connect(ctx context.Context) error {
	select {
	case <-s.stopCh:
		return fmt.Errorf("subscriber stopped")
	default:
	}

	if s.IsConnected() {
		return nil
	}

	token := s.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			break
		}

		select {
		case <-ctx.Done():
			s.client.Disconnect(0)
			return ctx.Err()
		case <-s.stopCh:
			s.client.Disconnect(0)
			return fmt.Errorf("subscriber stopped")
		default:
		}
	}

	if err := s.subscribe(); err != nil {
		s.client.Disconnect(0)
		return fmt.Errorf("subscribe: %w", err)
	}

	return nil
}

func (s *Subscriber) subscribe() error {
	if !s.client.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}

	topic := s.cfg.MQTTTopic
	qos := byte(1)

	token := s.client.Subscribe(topic, qos, func(_ mqtt.Client, msg mqtt.Message) {
		s.HandleMessage(context.Background(), msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("subscribe timeout for topic %s", topic)
	}
	if token.Error() != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}

	s.mu.Lock()
	s.subscribed = true
	s.mu.Unlock()
	s.logger.Info("subscribed to mqtt topic", "topic", topic, "qos", qos)
	return nil
}

// HandleMessage dispatches one payload to the registered handler.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		s.logger.Warn("no mqtt message handler registered, dropping message", "topic", topic)
		return
	}
	if err := handler(ctx, topic, payload); err != nil {
		s.logger.Error("message handler failed", "topic", topic, "error", err)
	}
}

func (s *Subscriber) IsConnected() bool {
	s.mu.RLock()
	connected := s.connected
	s.mu.RUnlock()
	return connected && s.client.IsConnected()
}

// Disconnect stops the subscriber and closes the MQTT connection.
// Safe to call more than once.
func (s *Subscriber) Disconnect() {
	s.stopOnce.Do(func() { close(s.stopCh) })

	if s.client != nil && s.IsConnected() {
		token := s.client.Unsubscribe(s.cfg.MQTTTopic)
		token.WaitTimeout(2 * time.Second)
	}

	if s.client != nil {
		s.client.Disconnect(250)
	}

	s.setConnected(false)
	s.logger.Info("mqtt subscriber disconnected")
}

func (s *Subscriber) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *Subscriber) wasSubscribed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscribed
}
