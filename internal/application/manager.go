package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
)

const (
	ReasonDisconnect = "client disconnected"
	ReasonShutdown   = "server shutting down"
	ReasonProtocol   = "protocol violation"
)

// Envelope is the inbound client message.
type Envelope struct {
	ClientID  string `json:"client_id"`
	UserInput string `json:"user_input"`
}

// Manager is the only place sessions are created and destroyed. Client ids
// are retired on disconnect and refused while retired.
type Manager struct {
	lookup   ports.TickerLookup
	executor ExecutorConfig
	logger   *slog.Logger
	clock    ports.Clock

	// retiredTTL bounds how long an id stays retired. Zero keeps every id
	// retired for the life of the process.
	retiredTTL time.Duration

	mu        sync.RWMutex
	sessions  map[domain.ClientID]*Session
	retired   map[domain.ClientID]time.Time
	lastSweep time.Time
}

type ManagerOption func(*Manager)

// WithRetiredTTL lets a disconnected client id be used again once ttl has
// passed, and lets the manager forget it.
func WithRetiredTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.retiredTTL = ttl
	}
}

func WithClock(clock ports.Clock) ManagerOption {
	return func(m *Manager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func NewManager(lookup ports.TickerLookup, executor ExecutorConfig, logger *slog.Logger, opts ...ManagerOption) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if executor.Logger == nil {
		executor.Logger = logger
	}

	m := &Manager{
		lookup:   lookup,
		executor: executor,
		logger:   logger,
		clock:    ports.SystemClock{},
		sessions: make(map[domain.ClientID]*Session),
		retired:  make(map[domain.ClientID]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect validates the ticker and registers a new session. Nothing is
// registered when validation fails.
func (m *Manager) Connect(ctx context.Context, id domain.ClientID, rawTicker string, sink ports.ResponseSink) (*Session, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("connect %q: %w", id, domain.ErrInvalidClientID)
	}
	if err := m.checkUnused(id); err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}

	ticker, err := domain.NormalizeTicker(rawTicker)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}
	company, err := m.lookup.Lookup(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("connect %s: lookup ticker %s: %w", id, ticker, err)
	}

	executorCfg := m.executor
	executorCfg.Logger = m.logger.With("client_id", string(id))
	session := newSession(id, company, NewExecutor(executorCfg), sink, m.logger)

	m.mu.Lock()
	if err := m.checkUnusedLocked(id); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("connect %s: %w", id, err)
	}
	m.sessions[id] = session
	delete(m.retired, id)
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info("session connected", "client_id", string(id), "ticker", string(company.Ticker), "sessions", count)
	return session, nil
}

func (m *Manager) checkUnused(id domain.ClientID) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.checkUnusedLocked(id)
}

func (m *Manager) checkUnusedLocked(id domain.ClientID) error {
	if _, ok := m.sessions[id]; ok {
		return domain.ErrClientIDReused
	}
	if retiredAt, ok := m.retired[id]; ok && !m.expired(retiredAt, m.clock.Now()) {
		return domain.ErrClientIDReused
	}
	return nil
}

func (m *Manager) expired(retiredAt, now time.Time) bool {
	return m.retiredTTL > 0 && now.Sub(retiredAt) >= m.retiredTTL
}

// sweepRetiredLocked drops expired ids at most once per ttl, so the set holds
// roughly the ids retired in the last two ttl windows.
func (m *Manager) sweepRetiredLocked(now time.Time) {
	if m.retiredTTL <= 0 || now.Sub(m.lastSweep) < m.retiredTTL {
		return
	}
	for id, retiredAt := range m.retired {
		if m.expired(retiredAt, now) {
			delete(m.retired, id)
		}
	}
	m.lastSweep = now
}

// Disconnect removes and closes the session. Unknown or already removed ids
// are a no-op.
func (m *Manager) Disconnect(id domain.ClientID) {
	m.disconnect(id, ReasonDisconnect)
}

func (m *Manager) disconnect(id domain.ClientID, reason string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		now := m.clock.Now()
		delete(m.sessions, id)
		m.retired[id] = now
		m.sweepRetiredLocked(now)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return
	}
	session.Close(reason)
	m.logger.Info("session disconnected", "client_id", string(id), "reason", reason, "sessions", count)
}

// RouteInbound forwards a raw client frame received on connection connID to
// its session. A frame that cannot be attributed to that session closes it.
func (m *Manager) RouteInbound(connID domain.ClientID, raw []byte) error {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		m.disconnect(connID, ReasonProtocol)
		return fmt.Errorf("route inbound %s: decode envelope: %w", connID, err)
	}
	if envelope.ClientID == "" || domain.ClientID(envelope.ClientID) != connID {
		m.disconnect(connID, ReasonProtocol)
		return fmt.Errorf("route inbound %s: envelope client id %q: %w", connID, envelope.ClientID, domain.ErrSessionNotFound)
	}

	session, ok := m.Get(connID)
	if !ok {
		m.disconnect(connID, ReasonProtocol)
		return fmt.Errorf("route inbound %s: %w", connID, domain.ErrSessionNotFound)
	}

	if strings.TrimSpace(envelope.UserInput) == "" {
		if err := session.Notify(domain.TokenError); err != nil {
			return fmt.Errorf("route inbound %s: %w", connID, err)
		}
		return nil
	}

	err := session.Submit(envelope.UserInput)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrSessionBusy):
		m.logger.Debug("rejecting message for busy session", "client_id", string(connID))
		if notifyErr := session.Notify(domain.TokenBusy); notifyErr != nil {
			return fmt.Errorf("route inbound %s: %w", connID, notifyErr)
		}
		return nil
	default:
		return fmt.Errorf("route inbound %s: %w", connID, err)
	}
}

func (m *Manager) Get(id domain.ClientID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	return session, ok
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs returns the connected client ids in sorted order.
func (m *Manager) IDs() []domain.ClientID {
	m.mu.RLock()
	ids := make([]domain.ClientID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CloseAll disconnects every session.
func (m *Manager) CloseAll() {
	for _, id := range m.IDs() {
		m.disconnect(id, ReasonShutdown)
	}
}
