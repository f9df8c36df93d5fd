package mqtt

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"wastemap-server/internal/config"
)

func testConfig() config.Config {
	return config.Config{
		MQTTBroker:   "127.0.0.1",
		MQTTPort:     1,
		MQTTClientID: "wastemap-test",
		MQTTTopic:    "wastemap/requests",
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := testConfig()
	cfg.MQTTBroker = "mosquitto"
	cfg.MQTTPort = 1883
	if got := BrokerURL(cfg); got != "tcp://mosquitto:1883" {
		t.Errorf("BrokerURL() = %q", got)
	}
}

func TestHandleMessage(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := NewSubscriber(testConfig(), logger)

	t.Run("drops messages without a handler", func(t *testing.T) {
		logs.Reset()
		s.HandleMessage(context.Background(), "wastemap/requests", []byte(`{}`))
		if !strings.Contains(logs.String(), "no mqtt message handler") {
			t.Errorf("logs = %q", logs.String())
		}
	})

	t.Run("passes payload to the handler", func(t *testing.T) {
		var gotTopic string
		var gotPayload []byte
		s.SetMessageHandler(func(_ context.Context, topic string, payload []byte) error {
			gotTopic, gotPayload = topic, payload
			return nil
		})
		s.HandleMessage(context.Background(), "wastemap/requests", []byte(`{"a":1}`))
		if gotTopic != "wastemap/requests" || string(gotPayload) != `{"a":1}` {
			t.Errorf("handler got %q %q", gotTopic, gotPayload)
		}
	})

	t.Run("logs handler errors", func(t *testing.T) {
		logs.Reset()
		s.SetMessageHandler(func(context.Context, string, []byte) error { return errors.New("boom") })
		s.HandleMessage(context.Background(), "wastemap/requests", nil)
		if !strings.Contains(logs.String(), "message handler failed") || !strings.Contains(logs.String(), "boom") {
			t.Errorf("logs = %q", logs.String())
		}
	})
}

func TestConnect_ContextCancelled(t *testing.T) {
	s := NewSubscriber(testConfig(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	defer s.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := s.Connect(ctx); err == nil {
		t.Fatal("Connect() = nil; want error with no broker")
	}
	if s.IsConnected() {
		t.Error("IsConnected() = true after failed connect")
	}
}

func TestConnect_AfterDisconnect(t *testing.T) {
	s := NewSubscriber(testConfig(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	s.Disconnect()
	s.Disconnect()
	if err := s.Connect(context.Background()); err == nil || !strings.Contains(err.Error(), "stopped") {
		t.Errorf("Connect() = %v; want stopped error", err)
	}
}
