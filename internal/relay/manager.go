package relay

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/skobkin/dsrelay/internal/bus"
	"github.com/skobkin/dsrelay/internal/config"
	"github.com/skobkin/dsrelay/internal/connectors"
	"github.com/skobkin/dsrelay/internal/transport"
)

const (
	defaultDialTimeout  = 6 * time.Second
	defaultWriteTimeout = 5 * time.Second
	readBufferSize      = 512
	closeFlushTimeout   = time.Second
)

var (
	// ErrNotConnected is returned by Send when no connection is open.
	ErrNotConnected = errors.New("relay board is not connected")
	// ErrBadConfig is reported when the configured target is empty.
	ErrBadConfig = errors.New("relay board target is not configured")
)

// TransportFactory builds a transport for the given connection settings.
type TransportFactory func(cfg config.ConnectionConfig) (transport.Transport, error)

// Manager owns the single connection to the relay board.
//
// Configure, Connect and Disconnect are serialized. Send holds the state lock
// for the duration of the write, so a teardown never closes a socket under an
// in-flight write. Bus events are queued in order and published by a single
// goroutine, so a slow subscriber never stalls the manager.
type Manager struct {
	logger  *slog.Logger
	factory TransportFactory
	events  *eventQueue

	DialTimeout  time.Duration
	WriteTimeout time.Duration

	opMu sync.Mutex

	mu          sync.Mutex
	cfg         config.ConnectionConfig
	session     *session
	status      connectors.ConnectionStatus
	statusKnown bool
}

type session struct {
	tr        transport.Transport
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	connected bool
}

func NewManager(logger *slog.Logger, b bus.MessageBus, factory TransportFactory) *Manager {
	if logger == nil {
		logger = slog.Default().With("component", "relay")
	}

	return &Manager{
		logger:       logger,
		factory:      factory,
		events:       newEventQueue(b),
		DialTimeout:  defaultDialTimeout,
		WriteTimeout: defaultWriteTimeout,
		status:       connectors.ConnectionStatus{State: connectors.ConnectionStateDisconnected},
	}
}

// Configure replaces the connection settings and reconnects. The previous
// connection is fully torn down before a new one is attempted.
func (m *Manager) Configure(cfg config.ConnectionConfig) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.teardown() {
		m.logger.Info("connection closed for reconfiguration")
	}

	m.mu.Lock()
	m.cfg = cfg
	m.publishLocked(connectors.ConnectionStateDisconnected, nil)
	m.mu.Unlock()

	m.connect()
}

// Connect starts a connection attempt with the current settings and returns
// immediately. The outcome is published on the bus.
func (m *Manager) Connect() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	m.connect()
}

// Disconnect closes the active connection, if any.
func (m *Manager) Disconnect() {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	if m.teardown() {
		m.logger.Info("disconnected")
	}

	m.mu.Lock()
	m.publishLocked(connectors.ConnectionStateDisconnected, nil)
	m.mu.Unlock()
}

// Close disconnects and flushes queued bus events.
func (m *Manager) Close() error {
	m.Disconnect()
	if !m.events.close(closeFlushTimeout) {
		m.logger.Warn("bus events not flushed on close", "timeout", closeFlushTimeout)
	}

	return nil
}

// Send writes payload on the open connection. Without one it performs no I/O,
// keeps the current state and returns ErrNotConnected.
func (m *Manager) Send(ctx context.Context, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	if s == nil || !s.connected {
		m.logger.Warn("send dropped: not connected", "len", len(payload), "target", m.cfg.Target())

		return ErrNotConnected
	}

	writeCtx := ctx
	if _, ok := ctx.Deadline(); !ok && m.WriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(ctx, m.WriteTimeout)
		defer cancel()
	}

	if err := s.tr.Write(writeCtx, payload); err != nil {
		m.session = nil
		m.stopSession(s)
		m.publishLocked(connectors.ConnectionStateError, err)
		m.logger.Error("write failed, dropping connection", "error", err)

		return fmt.Errorf("send: %w", err)
	}
	m.events.push(connectors.TopicRawFrameOut, rawFrame(payload))

	return nil
}

// Status returns the last published connection status.
func (m *Manager) Status() connectors.ConnectionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.status
}

func (m *Manager) Config() config.ConnectionConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.cfg
}

func (m *Manager) connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.logger.Debug("connect skipped: connection already active")

		return
	}

	cfg := m.cfg
	if cfg.Target() == "" {
		m.logger.Warn("connect skipped", "connector", cfg.Connector, "error", ErrBadConfig)
		m.publishLocked(connectors.ConnectionStateBadConfig, ErrBadConfig)

		return
	}

	tr, err := m.factory(cfg)
	if err != nil {
		m.logger.Warn("connect skipped: transport unavailable", "connector", cfg.Connector, "error", err)
		m.publishLocked(connectors.ConnectionStateBadConfig, err)

		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		tr:     tr,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	m.session = s
	m.publishLocked(connectors.ConnectionStateConnecting, nil)

	go m.run(ctx, s)
}

func (m *Manager) run(ctx context.Context, s *session) {
	defer close(s.done)

	dialCtx, cancel := context.WithTimeout(ctx, m.DialTimeout)
	err := s.tr.Connect(dialCtx)
	cancel()
	if err != nil {
		m.endSession(s, err)

		return
	}

	m.mu.Lock()
	if m.session != s {
		m.mu.Unlock()

		return
	}
	s.connected = true
	m.publishLocked(connectors.ConnectionStateConnected, nil)
	m.mu.Unlock()
	m.logger.Info("connected", "target", s.tr.Target())

	m.endSession(s, m.readLoop(ctx, s))
}

// readLoop drains inbound bytes. The board's replies are not interpreted.
func (m *Manager) readLoop(ctx context.Context, s *session) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := s.tr.Read(ctx, buf)
		if n > 0 {
			m.logger.Debug("inbound bytes ignored", "len", n, "data", strings.TrimSpace(string(buf[:n])))
			m.events.push(connectors.TopicRawFrameIn, rawFrame(buf[:n]))
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if errors.Is(err, io.EOF) {
				return errors.New("connection closed by remote")
			}

			return err
		}
	}
}

// endSession reports err unless the session was already detached by a
// teardown, in which case the detaching side owns the status.
func (m *Manager) endSession(s *session, err error) {
	m.mu.Lock()
	owned := m.session == s
	if owned {
		m.session = nil
		m.stopSession(s)
		m.publishLocked(connectors.ConnectionStateError, err)
	}
	m.mu.Unlock()

	if owned {
		m.logger.Error("connection failure", "target", s.tr.Target(), "error", err)
	}
}

// teardown detaches and stops the active session and waits for its goroutine.
func (m *Manager) teardown() bool {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	if s == nil {
		return false
	}
	m.stopSession(s)
	<-s.done

	return true
}

func (m *Manager) stopSession(s *session) {
	s.cancel()
	s.closeOnce.Do(func() {
		if err := s.tr.Close(); err != nil {
			m.logger.Warn("close transport failed", "error", err)
		}
	})
}

func (m *Manager) publishLocked(state connectors.ConnectionState, err error) {
	status := connectors.ConnectionStatus{
		State:         state,
		TransportName: string(m.cfg.EffectiveConnector()),
		Target:        m.cfg.Target(),
		Timestamp:     time.Now(),
	}
	if err != nil {
		status.Err = err.Error()
	}
	if m.statusKnown && m.status.Same(status) {
		return
	}
	m.status = status
	m.statusKnown = true
	m.events.push(connectors.TopicConnStatus, status)
}

func rawFrame(payload []byte) connectors.RawFrame {
	return connectors.RawFrame{
		Hex: strings.ToUpper(hex.EncodeToString(payload)),
		Len: len(payload),
	}
}
