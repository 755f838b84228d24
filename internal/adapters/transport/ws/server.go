package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bnema/finagents/internal/application"
	"github.com/bnema/finagents/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	ClientIDHeader = "X-Client-Id"
	TickerParam    = "tkr"
)

type Config struct {
	ReadLimit   int64
	PongWait    time.Duration
	WriteWait   time.Duration
	IdleTimeout time.Duration
	SendBuffer  int
}

func DefaultConfig() Config {
	return Config{
		ReadLimit:   64 * 1024,
		PongWait:    60 * time.Second,
		WriteWait:   10 * time.Second,
		IdleTimeout: 30 * time.Minute,
		SendBuffer:  16,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaults.ReadLimit
	}
	if c.PongWait <= 0 {
		c.PongWait = defaults.PongWait
	}
	if c.WriteWait <= 0 {
		c.WriteWait = defaults.WriteWait
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = defaults.IdleTimeout
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaults.SendBuffer
	}
	return c
}

func (c Config) pingPeriod() time.Duration {
	return c.PongWait * 9 / 10
}

type Server struct {
	manager  *application.Manager
	cfg      Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewServer(manager *application.Manager, cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Server{
		manager: manager,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/{clientID}", s.handleSession)
	mux.HandleFunc("GET /ws", s.handleSession)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("clientID")
	header := http.Header{}
	if id == "" {
		id = uuid.NewString()
		header.Set(ClientIDHeader, id)
	}
	clientID := domain.ClientID(id)
	ticker := r.URL.Query().Get(TickerParam)
	logger := s.logger.With("client_id", id, "ticker", ticker)

	socket, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		logger.Warn("websocket upgrade", "error", err)
		return
	}

	c := newConn(socket, s.cfg, logger)
	go c.writePump()

	if _, err := s.manager.Connect(r.Context(), clientID, ticker, c); err != nil {
		logger.Warn("rejecting connection", "error", err)
		c.reject(domain.TokenError, "connection rejected")
		return
	}

	c.readPump(func(raw []byte) error {
		return s.manager.RouteInbound(clientID, raw)
	})
	s.manager.Disconnect(clientID)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"sessions": s.manager.Count()})
}
