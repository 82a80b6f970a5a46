package connection

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deckstream/deckstream/events"
	"github.com/deckstream/deckstream/fsm"
	"github.com/deckstream/deckstream/logger"
	"github.com/deckstream/deckstream/wire"
)

// Connection states.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
	StateError        = "error"
)

// State machine events.
const (
	eventDial   = "dial"
	eventOpened = "opened"
	eventClosed = "closed"
	eventFailed = "failed"
)

// Reconnection defaults.
const (
	DefaultMaxReconnectAttempts = 5
	DefaultReconnectDelay       = 3000 * time.Millisecond
)

// ErrDisposed is returned by operations on a Manager after Close.
var ErrDisposed = errors.New("connection manager is disposed")

// stateSpec declares the connection lifecycle transitions.
func stateSpec() fsm.Spec {
	return fsm.Spec{
		Entry: StateDisconnected,
		States: map[string]fsm.State{
			StateDisconnected: {OnEvent: map[string]string{eventDial: StateConnecting}},
			StateConnecting: {OnEvent: map[string]string{
				eventOpened: StateConnected,
				eventFailed: StateError,
				eventClosed: StateDisconnected,
			}},
			StateConnected: {OnEvent: map[string]string{
				eventClosed: StateDisconnected,
				eventFailed: StateError,
			}},
			StateError: {OnEvent: map[string]string{
				eventDial:   StateConnecting,
				eventClosed: StateDisconnected,
			}},
		},
	}
}

// Config configures the Manager.
type Config struct {
	// URL is the duplex channel endpoint.
	URL string

	// Headers are sent during the handshake.
	Headers http.Header

	// AutoReconnect enables reconnection after unexpected closes.
	AutoReconnect bool

	// MaxReconnectAttempts bounds consecutive reconnect attempts.
	// Defaults to DefaultMaxReconnectAttempts. A successful connection
	// resets the counter.
	MaxReconnectAttempts int

	// ReconnectDelay is the fixed delay before each reconnect attempt.
	// Defaults to DefaultReconnectDelay.
	ReconnectDelay time.Duration

	// HeartbeatInterval enables ping frames when non-zero.
	HeartbeatInterval time.Duration

	// DialTimeout is passed through to the transport.
	DialTimeout time.Duration
}

func (c *Config) defaults() {
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.ReconnectDelay == 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
}

// Manager owns the duplex channel: it dials, dispatches inbound frames as
// typed events on the bus, and reconnects with bounded retries after
// unexpected closes. Manual Disconnect suppresses reconnection; Close
// disposes the manager and gates every further callback.
type Manager struct {
	cfg Config
	bus *events.Bus
	id  string

	mu             sync.Mutex
	machine        *fsm.Machine
	conn           *Conn
	attempts       int
	reconnectTimer *time.Timer
	cancelRead     context.CancelFunc
	manualClose    bool
	disposed       bool
	transitions    []events.ConnectionStateData
}

// NewManager creates a Manager publishing to the given bus.
func NewManager(cfg Config, bus *events.Bus) *Manager {
	cfg.defaults()
	return &Manager{
		cfg:     cfg,
		bus:     bus,
		id:      uuid.NewString(),
		machine: fsm.New(stateSpec()),
	}
}

// State returns the current connection state.
func (m *Manager) State() string {
	return m.machine.Current()
}

// Connect opens the channel if it is not already open or opening.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return ErrDisposed
	}
	switch m.machine.Current() {
	case StateConnecting, StateConnected:
		m.mu.Unlock()
		return nil
	}
	m.manualClose = false
	m.fireLocked(eventDial)

	conn := NewConn(&ConnConfig{
		URL:         m.cfg.URL,
		Headers:     m.cfg.Headers,
		DialTimeout: m.cfg.DialTimeout,
	})
	m.conn = conn
	m.mu.Unlock()
	m.flushTransitions()

	err := conn.Connect(ctx)

	m.mu.Lock()
	defer m.flushTransitions()
	defer m.mu.Unlock()
	if m.disposed {
		_ = conn.Close()
		return ErrDisposed
	}
	if m.conn != conn {
		// Superseded by a Disconnect or a newer Connect while dialing.
		_ = conn.Close()
		return nil
	}
	if err != nil {
		m.fireLocked(eventFailed)
		m.scheduleReconnectLocked()
		return err
	}

	m.attempts = 0
	m.fireLocked(eventOpened)
	logger.Info("channel connected", "conn", m.id, "url", m.cfg.URL)

	readCtx, cancel := context.WithCancel(context.Background())
	m.cancelRead = cancel
	if m.cfg.HeartbeatInterval > 0 {
		conn.StartHeartbeat(readCtx, m.cfg.HeartbeatInterval)
	}
	go m.readLoop(readCtx, conn)
	return nil
}

// Disconnect closes the channel and cancels any pending reconnect.
// Reconnection stays suppressed until the next explicit Connect.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.manualClose = true
	m.attempts = 0
	m.stopReconnectLocked()
	if m.cancelRead != nil {
		m.cancelRead()
		m.cancelRead = nil
	}
	conn := m.conn
	m.conn = nil
	if cur := m.machine.Current(); cur != StateDisconnected {
		m.fireLocked(eventClosed)
	}
	m.mu.Unlock()
	m.flushTransitions()

	if conn != nil {
		_ = conn.Close()
	}
}

// Close disposes the manager. All subsequent callbacks and state
// transitions are suppressed.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.mu.Unlock()
	m.Disconnect()
}

// Send transmits a typed command while connected. In any other state it
// logs a warning and drops the command.
func (m *Manager) Send(t wire.MessageType, payload any) error {
	m.mu.Lock()
	conn := m.conn
	connected := m.machine.Current() == StateConnected
	m.mu.Unlock()

	if !connected || conn == nil {
		logger.Warn("send skipped; channel not connected", "conn", m.id, "type", t)
		return nil
	}

	data, err := wire.EncodeFrame(t, payload)
	if err != nil {
		return err
	}
	return conn.SendRaw(data)
}

// StartRecording asks the backend to begin a capture session.
func (m *Manager) StartRecording() error {
	return m.Send(wire.TypeStartRecording, nil)
}

// StopRecording asks the backend to finalize the capture session.
func (m *Manager) StopRecording() error {
	return m.Send(wire.TypeStopRecording, nil)
}

// SendAudioChunk transmits one base64-encoded audio chunk.
func (m *Manager) SendAudioChunk(b64 string) error {
	return m.Send(wire.TypeAudioChunk, wire.AudioChunk{Data: b64})
}

// readLoop receives frames until the connection drops, then hands the
// close to the reconnect path.
func (m *Manager) readLoop(ctx context.Context, conn *Conn) {
	for {
		data, err := conn.Receive(ctx)
		if err != nil {
			m.handleClosed(conn, err)
			return
		}
		m.dispatch(data)
	}
}

// handleClosed processes an unexpected transport close.
func (m *Manager) handleClosed(conn *Conn, err error) {
	m.mu.Lock()
	defer m.flushTransitions()
	defer m.mu.Unlock()

	// Stale loop from a previous connection, or teardown already handled.
	if m.disposed || m.conn != conn || m.manualClose {
		return
	}

	logger.Warn("channel closed unexpectedly", "conn", m.id, "error", err)
	m.conn = nil
	if m.cancelRead != nil {
		m.cancelRead()
		m.cancelRead = nil
	}
	m.fireLocked(eventFailed)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the fixed-delay reconnect timer if policy allows.
func (m *Manager) scheduleReconnectLocked() {
	if m.disposed || m.manualClose || !m.cfg.AutoReconnect {
		return
	}
	if m.attempts >= m.cfg.MaxReconnectAttempts {
		logger.Error("reconnect attempts exhausted", "conn", m.id, "attempts", m.attempts)
		return
	}
	m.attempts++
	attempt := m.attempts
	m.stopReconnectLocked()
	m.reconnectTimer = time.AfterFunc(m.cfg.ReconnectDelay, func() {
		logger.Info("reconnecting", "conn", m.id,
			"attempt", attempt, "max", m.cfg.MaxReconnectAttempts)
		_ = m.Connect(context.Background())
	})
}

func (m *Manager) stopReconnectLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
}

// fireLocked applies a state machine event and queues the transition.
// Callers must hold m.mu and call flushTransitions after releasing it;
// a slow bus listener must not stall the manager.
func (m *Manager) fireLocked(event string) {
	from := m.machine.Current()
	if err := m.machine.Fire(event); err != nil {
		logger.Warn("invalid connection transition", "conn", m.id,
			"state", from, "event", event)
		return
	}
	m.transitions = append(m.transitions,
		events.ConnectionStateData{From: from, To: m.machine.Current()})
}

// flushTransitions publishes queued state transitions. Callers must not
// hold m.mu.
func (m *Manager) flushTransitions() {
	m.mu.Lock()
	pending := m.transitions
	m.transitions = nil
	m.mu.Unlock()
	for _, tr := range pending {
		m.bus.Publish(&events.Event{
			Type: events.EventConnectionStateChanged,
			Data: tr,
		})
	}
}

// dispatch decodes one inbound frame and publishes the corresponding typed
// event. Unknown tags and malformed payloads are logged and dropped; they
// never fail the channel.
func (m *Manager) dispatch(raw []byte) {
	m.mu.Lock()
	disposed := m.disposed
	m.mu.Unlock()
	if disposed {
		return
	}

	frame, err := wire.DecodeFrame(raw)
	if err != nil {
		logger.Warn("dropping malformed frame", "conn", m.id, "error", err)
		return
	}

	switch frame.Type {
	case wire.TypeTranscriptionPartial, wire.TypeTranscriptionFinal:
		var tr wire.Transcription
		if err := wire.DecodePayload(frame, &tr); err != nil {
			logger.Warn("dropping malformed transcription", "conn", m.id, "error", err)
			return
		}
		eventType := events.EventTranscriptPartial
		if frame.Type == wire.TypeTranscriptionFinal {
			eventType = events.EventTranscriptFinal
		}
		m.bus.Publish(&events.Event{Type: eventType, Data: events.TranscriptData{
			Text:            tr.Text,
			AccumulatedText: tr.AccumulatedText,
			Final:           frame.Type == wire.TypeTranscriptionFinal || tr.IsFinal,
		}})

	case wire.TypeSVGGenerated:
		var svg wire.SVGGenerated
		if err := wire.DecodePayload(frame, &svg); err != nil {
			logger.Warn("dropping malformed svg frame", "conn", m.id, "error", err)
			return
		}
		m.bus.Publish(&events.Event{Type: events.EventVisualizationReady,
			Data: events.VisualizationData{Kind: events.KindSVG, SVG: &svg}})

	case wire.TypeChartGenerated:
		var chart wire.ChartGenerated
		if err := wire.DecodePayload(frame, &chart); err != nil {
			logger.Warn("dropping malformed chart frame", "conn", m.id, "error", err)
			return
		}
		m.bus.Publish(&events.Event{Type: events.EventVisualizationReady,
			Data: events.VisualizationData{Kind: events.KindChart, Chart: &chart}})

	case wire.TypeStatus:
		var st wire.Status
		if err := wire.DecodePayload(frame, &st); err != nil {
			logger.Warn("dropping malformed status frame", "conn", m.id, "error", err)
			return
		}
		m.bus.Publish(&events.Event{Type: events.EventBackendStatus,
			Data: events.StatusData{Status: st}})

	case wire.TypeError:
		m.bus.Publish(&events.Event{Type: events.EventBackendError,
			Data: events.ErrorData{Message: frame.Error}})

	default:
		logger.Warn("dropping unknown frame type", "conn", m.id, "type", frame.Type)
	}
}
