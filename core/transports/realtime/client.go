// Package realtime is a gorilla/websocket implementation of the session
// transport: a per-kind handler registry fed by a single read loop, and
// a serialized write path for outbound events.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/BranchManager69/dexter-session-core/core/events"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/codes"
)

const sendQueueCapacity = 16

type Client struct {
	conn *websocket.Conn

	mu            sync.RWMutex
	handlers      map[events.Kind]map[int]func(events.Event)
	nextHandlerID int

	send      chan frame
	done      chan struct{}
	closeOnce sync.Once
}

type Option func(*dialConfig)

type dialConfig struct {
	header http.Header
	dialer *websocket.Dialer
}

// WithHeader sets handshake headers, typically authorization.
func WithHeader(header http.Header) Option {
	return func(cfg *dialConfig) { cfg.header = header }
}

// WithDialer overrides the default websocket dialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(cfg *dialConfig) { cfg.dialer = dialer }
}

// Dial connects to the realtime endpoint and starts the read and write
// pumps. Cancelling ctx after a successful dial closes the client.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	cfg := dialConfig{dialer: websocket.DefaultDialer}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, span := tracer.Start(ctx, "dial realtime session")
	defer span.End()

	conn, _, err := cfg.dialer.DialContext(ctx, url, cfg.header)
	if err != nil {
		err = fmt.Errorf("failed to dial realtime session: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c := &Client{
		conn:     conn,
		handlers: map[events.Kind]map[int]func(events.Event){},
		send:     make(chan frame, sendQueueCapacity),
		done:     make(chan struct{}),
	}

	go c.readPump()
	go c.writePump()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.done:
		}
	}()

	return c, nil
}

// On registers a handler for one event kind. The returned function
// unregisters it; calling it more than once is safe.
func (c *Client) On(kind events.Kind, handler func(events.Event)) func() {
	c.mu.Lock()
	id := c.nextHandlerID
	c.nextHandlerID++
	if c.handlers[kind] == nil {
		c.handlers[kind] = map[int]func(events.Event){}
	}
	c.handlers[kind][id] = handler
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers[kind], id)
			c.mu.Unlock()
		})
	}
}

// Send queues one outbound event. It fails once the client is closed.
func (c *Client) Send(event events.Event) error {
	select {
	case <-c.done:
		return fmt.Errorf("realtime client is closed")
	default:
	}

	select {
	case c.send <- encodeFrame(event):
		return nil
	case <-c.done:
		return fmt.Errorf("realtime client is closed")
	}
}

// Close tears the connection down exactly once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			logger.Debug(fmt.Sprintf("error closing realtime connection: %v", err))
		}
	})
}

// readPump decodes inbound frames and dispatches them to registered
// handlers. A read error surfaces as a SessionError event and ends the
// pump rather than crashing anything.
func (c *Client) readPump() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.dispatch(events.NewSessionError(fmt.Sprintf("read failed: %v", err)))
			}
			return
		}

		c.dispatch(decodeFrame(data))
	}
}

func (c *Client) writePump() {
	for {
		select {
		case outbound := <-c.send:
			if err := c.conn.WriteJSON(outbound); err != nil {
				logger.Warn(fmt.Sprintf("failed to write %q frame: %v", outbound.Type, err))
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(event events.Event) {
	c.mu.RLock()
	registered := c.handlers[event.Kind()]
	handlers := make([]func(events.Event), 0, len(registered))
	for _, handler := range registered {
		handlers = append(handlers, handler)
	}
	c.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}
