package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/queue-tracker-api/models"
)

// ErrShutdownTimeout is returned when connections are still open after Shutdown's timeout
var ErrShutdownTimeout = errors.New("timed out waiting for connections to close")

// Hub tracks open connections and implements Publisher over them
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewHub creates an empty hub
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients: make(map[string]*Client),
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	count := len(h.clients)
	h.mu.Unlock()
	zap.S().Infow("client registered", "conn", c.id, "addr", c.addr, "clients", count)
}

// remove unregisters a client and closes its send queue. It is safe to call more than once.
func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	current, ok := h.clients[c.id]
	if !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	count := len(h.clients)
	h.mu.Unlock()
	zap.S().Infow("client unregistered", "conn", c.id, "addr", c.addr, "clients", count)
}

// ClientCount returns the number of open connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish encodes the delivery once and queues it on every targeted connection.
// Connections whose queue is full are dropped.
func (h *Hub) Publish(d Delivery) {
	data, err := json.Marshal(d.Data)
	if err != nil {
		zap.S().Errorw("failed to encode event", "event", d.Event, "error", err)
		return
	}
	frame, err := json.Marshal(models.Envelope{Event: d.Event, Data: data})
	if err != nil {
		zap.S().Errorw("failed to encode frame", "event", d.Event, "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	switch d.Target {
	case TargetSender:
		if c, ok := h.clients[d.ConnID]; ok && !trySend(c, frame) {
			slow = append(slow, c)
		}
	default:
		for id, c := range h.clients {
			if d.Target == TargetOthers && id == d.ConnID {
				continue
			}
			if !trySend(c, frame) {
				slow = append(slow, c)
			}
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		zap.S().Warnw("dropping slow client", "conn", c.id, "addr", c.addr, "event", d.Event)
		h.remove(c)
	}
}

func trySend(c *Client, frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Shutdown closes every connection and waits for their pumps to exit
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.cancel()

	h.mu.Lock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.S().Info("all websocket connections closed")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}
