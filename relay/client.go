package relay

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 256
)

// Client is one websocket connection. Outbound frames are queued on send and
// written by writePump; inbound frames are read by readPump.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	addr string
}

func newClient(id string, conn *websocket.Conn, addr string) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		addr: addr,
	}
}

// ID returns the connection id
func (c *Client) ID() string {
	return c.id
}

func (c *Client) readPump(maxMessageSize int64, handle func(frame []byte)) {
	defer c.closeConn()

	if maxMessageSize > 0 {
		c.conn.SetReadLimit(maxMessageSize)
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		zap.S().Warnw("failed to set read deadline", "conn", c.id, "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// binary frames go through handle too so they count against the rate limit
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err, maxMessageSize)
			return
		}
		handle(frame)
	}
}

func (c *Client) logReadError(err error, maxMessageSize int64) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		zap.S().Warnw("message exceeded maximum size", "conn", c.id, "addr", c.addr, "limit", maxMessageSize)
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		zap.S().Debugw("client closed connection", "conn", c.id, "addr", c.addr)
	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		zap.S().Debugw("connection closed", "conn", c.id, "addr", c.addr, "error", err)
	default:
		zap.S().Warnw("websocket read error", "conn", c.id, "addr", c.addr, "error", err)
	}
}

// writePump writes one frame per queued message and keeps the connection alive
// with pings. It exits once send is closed.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.closeConn()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if !ok {
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil && !isExpectedCloseError(err) {
					zap.S().Debugw("failed to write close message", "conn", c.id, "error", err)
				}
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				if !isExpectedCloseError(err) {
					zap.S().Warnw("failed to write message", "conn", c.id, "addr", c.addr, "error", err)
				}
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) closeConn() {
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		zap.S().Debugw("failed to close connection", "conn", c.id, "error", err)
	}
}

func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "websocket: close sent") ||
		strings.Contains(msg, "broken pipe")
}
