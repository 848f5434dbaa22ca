package ws

import (
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps a websocket connection with a write lock so that the
// receive loop and broadcasts from other goroutines never interleave
// frames on the wire. gorilla/websocket allows at most one concurrent
// writer per connection.
type Conn struct {
	ws *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// WriteEvent marshals the event and writes it as one text frame.
// Returns an error when the peer is gone; callers decide whether that
// matters.
func (c *Conn) WriteEvent(event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	if err := c.ws.WriteJSON(event); err != nil {
		c.closed = true
		return err
	}
	return nil
}

// ReadFrame blocks until the next inbound frame. A nil frame with a
// non-nil error means the transport is gone or the payload was not
// valid JSON; callers tell the two apart by checking for a JSON
// unmarshal error, after which the connection is still readable.
func (c *Conn) ReadFrame() (*Frame, error) {
	frame := &Frame{}
	if err := c.ws.ReadJSON(frame); err != nil {
		return nil, err
	}
	if frame.Type == "" {
		frame.Type = FrameTypeMessage
	}
	return frame, nil
}

// CloseWithPolicyViolation sends a 1008 close frame and closes the
// transport. Both steps are best effort.
func (c *Conn) CloseWithPolicyViolation(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
	c.closed = true
	_ = c.ws.Close()
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return c.ws.Close()
}

// IsClosed reports whether a write has already failed or the
// connection was closed locally.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
