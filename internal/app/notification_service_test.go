package app

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
	"github.com/skobkin/dsrelay/internal/notifications"
)

func TestNotificationServiceConnectionStatusFilteringAndFormatting(t *testing.T) {
	messageBus := newTestMessageBus(t)
	cfg := config.Default()
	sender := newCollectingNotificationSender()
	service := NewNotificationService(messageBus, func() config.AppConfig { return cfg }, sender, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})
	gotNotifications := sender.waitForCount(t, 1)
	if got := gotNotifications[0].Title; got != "IP - connected" {
		t.Fatalf("expected connected title, got %q", got)
	}
	if got := gotNotifications[0].Content; got != "10.0.0.5:17123" {
		t.Fatalf("expected target content, got %q", got)
	}

	// Duplicate consecutive state must be ignored.
	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})
	sender.assertCount(t, 1)

	// Connecting itself should not notify.
	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnecting,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})
	sender.assertCount(t, 1)

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateError,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
		Err:           "connection closed by remote",
	})
	gotNotifications = sender.waitForCount(t, 2)
	if got := gotNotifications[1].Title; got != "IP - error" {
		t.Fatalf("expected error title, got %q", got)
	}
	if got := gotNotifications[1].Content; got != "10.0.0.5:17123 (error: connection closed by remote)" {
		t.Fatalf("expected error content, got %q", got)
	}

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		TransportName: "serial",
		Target:        "/dev/ttyUSB0@9600",
	})
	gotNotifications = sender.waitForCount(t, 3)
	if got := gotNotifications[2].Title; got != "Serial - disconnected" {
		t.Fatalf("expected disconnected title, got %q", got)
	}
}

func TestNotificationServiceBadConfigIsSilent(t *testing.T) {
	messageBus := newTestMessageBus(t)
	sender := newCollectingNotificationSender()
	service := NewNotificationService(messageBus, nil, sender, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateBadConfig,
		TransportName: "ip",
		Err:           "relay board target is not configured",
	})
	sender.assertCount(t, 0)
}

func TestNotificationServiceRespectsSettings(t *testing.T) {
	messageBus := newTestMessageBus(t)
	cfg := config.Default()
	cfg.Notifications.ConnectionStatus = false
	var cfgMu sync.RWMutex
	sender := newCollectingNotificationSender()
	service := NewNotificationService(
		messageBus,
		func() config.AppConfig {
			cfgMu.RLock()
			defer cfgMu.RUnlock()

			return cfg
		},
		sender,
		nil,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	service.Start(ctx)

	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateConnected,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})
	sender.assertCount(t, 0)

	cfgMu.Lock()
	cfg.Notifications.ConnectionStatus = true
	cfgMu.Unlock()
	messageBus.Publish(connectors.TopicConnStatus, connectors.ConnectionStatus{
		State:         connectors.ConnectionStateDisconnected,
		TransportName: "ip",
		Target:        "10.0.0.5:17123",
	})
	gotNotifications := sender.waitForCount(t, 1)
	if got := gotNotifications[0].Title; got != "IP - disconnected" {
		t.Fatalf("expected disconnected title, got %q", got)
	}
}

func newTestMessageBus(t *testing.T) *bus.PubSubBus {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	messageBus := bus.New(logger)
	t.Cleanup(func() {
		messageBus.Close()
	})

	return messageBus
}

type collectingNotificationSender struct {
	mu            sync.Mutex
	notifications []notifications.Payload
	changes       chan struct{}
}

func newCollectingNotificationSender() *collectingNotificationSender {
	return &collectingNotificationSender{
		changes: make(chan struct{}, 1),
	}
}

func (s *collectingNotificationSender) Send(notification notifications.Payload) {
	s.mu.Lock()
	s.notifications = append(s.notifications, notification)
	s.mu.Unlock()

	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *collectingNotificationSender) snapshot() []notifications.Payload {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]notifications.Payload, len(s.notifications))
	copy(out, s.notifications)

	return out
}

func (s *collectingNotificationSender) waitForCount(t *testing.T, expected int) []notifications.Payload {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		current := s.snapshot()
		if len(current) >= expected {
			return current
		}
		select {
		case <-s.changes:
		case <-time.After(10 * time.Millisecond):
		}
	}

	t.Fatalf("timed out waiting for %d notifications", expected)

	return nil
}

func (s *collectingNotificationSender) assertCount(t *testing.T, expected int) {
	t.Helper()

	time.Sleep(100 * time.Millisecond)
	current := s.snapshot()
	if len(current) != expected {
		t.Fatalf("expected %d notifications, got %d", expected, len(current))
	}
}
