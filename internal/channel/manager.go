// Package channel owns the bidirectional event channel to a project room.
// One connection per (credential, project); the credential and the project
// scope travel in the handshake, never in event payloads.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/VarunWeb6/ALEX-AI/internal/logger"
)

var log = logger.Named("channel")

var (
	// ErrNoCredential is returned by Open when no bearer token is available.
	ErrNoCredential = errors.New("channel: no credential, log in before opening")
	// ErrAlreadyOpen is returned by Open while a previous handle is still
	// live. One handle per manager; close before reopening.
	ErrAlreadyOpen = errors.New("channel: a handle is already open, close it first")
	// ErrNotOpen is returned by Send/Subscribe after Close. Callers treat it
	// as a sequencing bug, not a user-facing failure.
	ErrNotOpen = errors.New("channel: not open")
	// ErrAuthRejected is returned when the server rejects the handshake with 401.
	ErrAuthRejected = errors.New("channel: server rejected authentication (401)")
)

const (
	heartbeatInterval = 30 * time.Second
	writeTimeout      = 10 * time.Second
	reconnectBase     = time.Second
	reconnectMax      = 30 * time.Second
	readLimit         = 512 * 1024

	// Outbound flood protection: sends beyond the bucket are dropped, not
	// queued, matching the fire-and-forget contract.
	sendRatePerSec = 20
	sendBurst      = 40
)

// StateFunc observes connection state transitions: StateConnecting,
// StateConnected, StateDisconnected, StateAuthFailed, StateClosed.
type StateFunc func(state string, err error)

// Manager owns at most one live Handle. The handle belongs to exactly one
// project view; views must Close it on every exit path.
type Manager struct {
	WSBaseURL     string        // e.g. "ws://localhost:3000"
	TokenFunc     func() string // bearer token source, re-read on every dial
	OnStateChange StateFunc

	mu     sync.Mutex
	active *Handle
}

func NewManager(wsBaseURL string, tokenFunc func() string) *Manager {
	return &Manager{WSBaseURL: strings.TrimRight(wsBaseURL, "/"), TokenFunc: tokenFunc}
}

// Open establishes the channel for one project. It fails with ErrNoCredential
// when unauthenticated, ErrAlreadyOpen when a handle is still live, and
// ErrAuthRejected when the server refuses the token. The first dial happens
// synchronously so the caller knows the room is reachable; afterwards the
// handle reconnects on its own with exponential backoff.
func (m *Manager) Open(ctx context.Context, projectID string) (*Handle, error) {
	var token string
	if m.TokenFunc != nil {
		token = m.TokenFunc()
	}
	if token == "" {
		log.Error("open refused, no credential", "project", projectID)
		return nil, ErrNoCredential
	}

	h := &Handle{
		projectID: projectID,
		url:       m.WSBaseURL + "/ws/project?projectId=" + url.QueryEscape(projectID),
		tokenFunc: m.TokenFunc,
		stateFn:   m.OnStateChange,
		manager:   m,
		subs:      make(map[string][]func(Envelope)),
		limiter:   rate.NewLimiter(rate.Limit(sendRatePerSec), sendBurst),
		closed:    make(chan struct{}),
	}

	m.mu.Lock()
	if m.active != nil {
		m.mu.Unlock()
		log.Error("open refused, previous handle still live", "project", projectID)
		return nil, ErrAlreadyOpen
	}
	m.active = h
	m.mu.Unlock()

	if err := h.dial(ctx); err != nil {
		m.release(h)
		if isAuthError(err) {
			h.notifyState(StateAuthFailed, err)
			return nil, ErrAuthRejected
		}
		return nil, err
	}
	h.notifyState(StateConnected, nil)

	runCtx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go h.run(runCtx)

	return h, nil
}

func (m *Manager) release(h *Handle) {
	m.mu.Lock()
	if m.active == h {
		m.active = nil
	}
	m.mu.Unlock()
}

// Handle is one live channel. Exclusively owned by the project view that
// opened it; never shared across views.
type Handle struct {
	projectID string
	url       string
	tokenFunc func() string
	stateFn   StateFunc
	manager   *Manager
	cancel    context.CancelFunc

	subsMu sync.Mutex
	subs   map[string][]func(Envelope)

	connMu sync.Mutex
	conn   *websocket.Conn

	limiter   *rate.Limiter
	closed    chan struct{}
	closeOnce sync.Once
}

// Subscribe registers handler for every inbound event named event.
// Registrations accumulate: all handlers for an event fire, in registration
// order. After Close it logs and no-ops.
func (h *Handle) Subscribe(event string, handler func(Envelope)) {
	select {
	case <-h.closed:
		log.Error("subscribe on closed handle", "event", event)
		return
	default:
	}
	h.subsMu.Lock()
	h.subs[event] = append(h.subs[event], handler)
	h.subsMu.Unlock()
}

// Send emits one event, fire-and-forget: no acknowledgment, no retry, no
// buffering while disconnected. A send on a closed or disconnected handle is
// logged and dropped, returning ErrNotOpen; it never panics. Sends beyond the
// rate limit are dropped with a warning.
func (h *Handle) Send(event string, payload any) error {
	select {
	case <-h.closed:
		log.Error("send on closed handle", "event", event)
		return ErrNotOpen
	default:
	}

	if !h.limiter.Allow() {
		log.Warn("send rate exceeded, dropping", "event", event)
		return nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{Event: event, ID: uuid.NewString(), Payload: data}

	h.connMu.Lock()
	conn := h.conn
	h.connMu.Unlock()
	if conn == nil {
		log.Error("send while disconnected, dropping", "event", event)
		return ErrNotOpen
	}

	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := conn.Write(writeCtx, websocket.MessageText, frame); err != nil {
		log.Error("write failed", "event", event, "err", err)
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// Close tears the channel down. Idempotent; must run on every exit path of
// the owning view (unmount, navigation, credential revocation) or listeners
// leak across view transitions.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		close(h.closed)
		if h.cancel != nil {
			h.cancel()
		}
		h.connMu.Lock()
		conn := h.conn
		h.conn = nil
		h.connMu.Unlock()
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "view closed")
		}
		h.manager.release(h)
		h.notifyState(StateClosed, nil)
	})
}

// Done is closed when the handle is torn down. Subscribers forwarding events
// to a bounded queue select on it so dispatch never blocks past Close.
func (h *Handle) Done() <-chan struct{} {
	return h.closed
}

func (h *Handle) notifyState(state string, err error) {
	if h.stateFn != nil {
		h.stateFn(state, err)
	}
}

func (h *Handle) dial(ctx context.Context) error {
	opts := &websocket.DialOptions{
		HTTPHeader: make(map[string][]string),
	}
	opts.HTTPHeader.Set("Authorization", "Bearer "+h.tokenFunc())

	conn, _, err := websocket.Dial(ctx, h.url, opts)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	conn.SetReadLimit(readLimit)

	h.connMu.Lock()
	h.conn = conn
	h.connMu.Unlock()
	return nil
}

// run reads frames until the connection drops, then reconnects with backoff.
// It exits on Close or when the server rejects the credential.
func (h *Handle) run(ctx context.Context) {
	bo := NewBackoff(reconnectBase, reconnectMax)
	for {
		err := h.readLoop(ctx)
		if h.isClosed() || ctx.Err() != nil {
			return
		}
		if isAuthError(err) {
			h.notifyState(StateAuthFailed, err)
			h.Close()
			return
		}

		h.notifyState(StateDisconnected, err)
		delay := bo.Next()
		log.Warn("disconnected, reconnecting", "project", h.projectID, "delay", delay, "err", err)
		select {
		case <-ctx.Done():
			return
		case <-h.closed:
			return
		case <-time.After(delay):
		}

		h.notifyState(StateConnecting, nil)
		if err := h.dial(ctx); err != nil {
			if isAuthError(err) {
				h.notifyState(StateAuthFailed, err)
				h.Close()
				return
			}
			continue
		}
		bo.Reset()
		h.notifyState(StateConnected, nil)
	}
}

// readLoop dispatches inbound envelopes in delivery order until the current
// connection fails.
func (h *Handle) readLoop(ctx context.Context) error {
	h.connMu.Lock()
	conn := h.conn
	h.connMu.Unlock()
	if conn == nil {
		return ErrNotOpen
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	defer hbCancel()
	go h.heartbeat(hbCtx, conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.connMu.Lock()
			if h.conn == conn {
				h.conn = nil
			}
			h.connMu.Unlock()
			return fmt.Errorf("read: %w", err)
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn("bad frame, skipping", "err", err)
			continue
		}

		h.subsMu.Lock()
		handlers := make([]func(Envelope), len(h.subs[env.Event]))
		copy(handlers, h.subs[env.Event])
		h.subsMu.Unlock()

		if len(handlers) == 0 {
			log.Debug("unhandled event", "event", env.Event)
			continue
		}
		// Handlers run synchronously so appends keep delivery order.
		for _, fn := range handlers {
			fn(env)
		}
	}
}

func (h *Handle) heartbeat(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Handle) isClosed() bool {
	select {
	case <-h.closed:
		return true
	default:
		return false
	}
}

// isAuthError reports whether the error looks like a 401 handshake rejection.
func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "401")
}
