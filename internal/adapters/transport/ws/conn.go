package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bnema/finagents/internal/application"
	"github.com/bnema/finagents/internal/domain"
	"github.com/gorilla/websocket"
)

const reasonIdle = "idle timeout"

// conn is the server side of one websocket. It implements
// ports.ResponseSink; all writes go through writePump.
type conn struct {
	ws     *websocket.Conn
	cfg    Config
	logger *slog.Logger

	send chan []byte
	done chan struct{}

	closeOnce sync.Once
	mu        sync.Mutex
	closeCode int
	closeText string
}

func newConn(ws *websocket.Conn, cfg Config, logger *slog.Logger) *conn {
	return &conn{
		ws:     ws,
		cfg:    cfg,
		logger: logger,
		send:   make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *conn) Deliver(ctx context.Context, response domain.Response) error {
	data, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	select {
	case <-c.done:
		return domain.ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return domain.ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *conn) Close(reason string) error {
	c.closeWith(closeCodeFor(reason), reason)
	return nil
}

func closeCodeFor(reason string) int {
	switch reason {
	case application.ReasonProtocol:
		return websocket.ClosePolicyViolation
	case application.ReasonShutdown, reasonIdle:
		return websocket.CloseGoingAway
	default:
		return websocket.CloseNormalClosure
	}
}

func (c *conn) closeWith(code int, text string) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeCode = code
		c.closeText = text
		c.mu.Unlock()
		close(c.done)
	})
}

// reject sends a failure token and closes with a policy violation.
func (c *conn) reject(token, text string) {
	if err := c.Deliver(context.Background(), domain.TokenResponse(token)); err != nil {
		c.logger.Debug("deliver rejection token", "error", err)
	}
	c.closeWith(websocket.ClosePolicyViolation, text)
}

func (c *conn) readPump(route func([]byte) error) {
	c.ws.SetReadLimit(c.cfg.ReadLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	})

	idle := time.AfterFunc(c.cfg.IdleTimeout, func() {
		c.logger.Info("closing idle connection")
		c.closeWith(websocket.CloseGoingAway, reasonIdle)
	})
	defer idle.Stop()

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("websocket read", "error", err)
			}
			return
		}
		idle.Reset(c.cfg.IdleTimeout)
		_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.PongWait))

		if err := route(message); err != nil {
			c.logger.Warn("route inbound message", "error", err)
			if errors.Is(err, domain.ErrSessionNotFound) || errors.Is(err, domain.ErrSessionClosed) {
				return
			}
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		c.closeWith(websocket.CloseAbnormalClosure, "write failed")
		_ = c.ws.Close()
	}()

	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				c.logger.Debug("websocket write", "error", err)
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			c.mu.Lock()
			code, text := c.closeCode, c.closeText
			c.mu.Unlock()
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(code, text))
			return
		}
	}
}

// flush writes whatever was queued before the close was requested.
func (c *conn) flush() {
	for {
		select {
		case data := <-c.send:
			if err := c.write(websocket.TextMessage, data); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *conn) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
	return c.ws.WriteMessage(messageType, data)
}
