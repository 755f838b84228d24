package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bnema/finagents/internal/application"
	"github.com/bnema/finagents/internal/domain"
	"github.com/gorilla/websocket"
)

// Client speaks the session protocol: one envelope out, one response back.
type Client struct {
	conn *websocket.Conn
	id   domain.ClientID

	responses chan domain.Response
	writeMu   sync.Mutex

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	errMu   sync.Mutex
	readErr error
}

// Dial opens a session for ticker. An empty id lets the server pick one.
func Dial(ctx context.Context, serverURL string, id domain.ClientID, ticker string) (*Client, error) {
	target, err := sessionURL(serverURL, id, ticker)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", target, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	if id == "" && resp != nil {
		id = domain.ClientID(resp.Header.Get(ClientIDHeader))
	}

	c := &Client{
		conn:      conn,
		id:        id,
		responses: make(chan domain.Response, 4),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func sessionURL(serverURL string, id domain.ClientID, ticker string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch parsed.Scheme {
	case "http":
		parsed.Scheme = "ws"
	case "https":
		parsed.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", parsed.Scheme)
	}

	parsed.Path += "/ws"
	if id != "" {
		parsed.Path += "/" + url.PathEscape(string(id))
	}
	query := parsed.Query()
	query.Set(TickerParam, ticker)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *Client) ID() domain.ClientID {
	return c.id
}

// readLoop hands frames to Next until the socket fails or Close is called.
// Frames nobody waits for are dropped once the client is closed.
func (c *Client) readLoop() {
	defer close(c.stopped)
	defer close(c.responses)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.setErr(err)
			return
		}
		var response domain.Response
		if err := json.Unmarshal(data, &response); err != nil {
			c.setErr(fmt.Errorf("decode response: %w", err))
			return
		}
		select {
		case c.responses <- response:
		case <-c.done:
			return
		}
	}
}

func (c *Client) setErr(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr == nil {
		c.readErr = err
	}
}

// Err reports why the read side stopped, if it has.
func (c *Client) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.readErr
}

// Ask sends one question and waits for its response.
func (c *Client) Ask(ctx context.Context, question string) (domain.Response, error) {
	envelope := application.Envelope{ClientID: string(c.id), UserInput: question}

	c.writeMu.Lock()
	err := c.conn.WriteJSON(envelope)
	c.writeMu.Unlock()
	if err != nil {
		return c.pending(ctx, fmt.Errorf("send question: %w", err))
	}

	return c.Next(ctx)
}

// Next waits for the next response frame.
func (c *Client) Next(ctx context.Context) (domain.Response, error) {
	select {
	case response, ok := <-c.responses:
		if !ok {
			return domain.Response{}, c.closedErr()
		}
		return response, nil
	case <-ctx.Done():
		return domain.Response{}, ctx.Err()
	}
}

// pending returns a response the server sent before a failed write, such as
// the rejection token for an invalid ticker. A failed write means the read
// side is about to stop, so this waits for it.
func (c *Client) pending(ctx context.Context, writeErr error) (domain.Response, error) {
	select {
	case response, ok := <-c.responses:
		if ok {
			return response, nil
		}
		return domain.Response{}, errors.Join(writeErr, c.closedErr())
	case <-ctx.Done():
		return domain.Response{}, errors.Join(writeErr, ctx.Err())
	}
}

func (c *Client) closedErr() error {
	if err := c.Err(); err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return fmt.Errorf("%w: %s", domain.ErrConnectionClosed, closeErr.Error())
		}
		return fmt.Errorf("%w: %w", domain.ErrConnectionClosed, err)
	}
	return domain.ErrConnectionClosed
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}
