package realtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTooManyClients is returned by Subscribe when the hub is full
var ErrTooManyClients = errors.New("maximum number of live clients reached")

const clientBufferSize = 100

// Message is one server-sent event
type Message struct {
	Event string
	ID    string
	Data  []byte
	// Repartidor scopes the message to one courier; empty reaches every client
	Repartidor string
}

// Client is one connected live-feed subscriber
type Client struct {
	ID         string
	Username   string
	Repartidor string // non-empty for flota users
	C          <-chan Message

	ch   chan Message
	done chan struct{}
	once sync.Once
}

// Done is closed when the client was unsubscribed or the hub stopped
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) wants(msg Message) bool {
	return c.Repartidor == "" || msg.Repartidor == "" || msg.Repartidor == c.Repartidor
}

// Hub fans ticket events out to connected dashboards
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	logger     *zap.Logger
	heartbeat  time.Duration
	maxClients int
	cancel     context.CancelFunc
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithHeartbeat sets the heartbeat interval
func WithHeartbeat(d time.Duration) HubOption {
	return func(h *Hub) { h.heartbeat = d }
}

// WithMaxClients caps concurrent subscribers; 0 means unlimited
func WithMaxClients(n int) HubOption {
	return func(h *Hub) { h.maxClients = n }
}

// NewHub creates a hub
func NewHub(logger *zap.Logger, opts ...HubOption) *Hub {
	h := &Hub{
		clients:    make(map[string]*Client),
		logger:     logger,
		heartbeat:  30 * time.Second,
		maxClients: 1000,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Start begins sending heartbeats until Stop
func (h *Hub) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.mu.Lock()
	h.cancel = cancel
	h.mu.Unlock()

	go func() {
		ticker := time.NewTicker(h.heartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				h.Broadcast(Message{Event: "heartbeat", Data: []byte(fmt.Sprintf(`{"timestamp":%d}`, t.Unix()))})
			}
		}
	}()
	h.logger.Info("Live feed hub started", zap.Duration("heartbeat", h.heartbeat))
}

// Stop disconnects every client
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
	}
	for id, c := range h.clients {
		c.close()
		delete(h.clients, id)
	}
	h.logger.Info("Live feed hub stopped")
}

// Subscribe registers a client; repartidor restricts it to that courier's tickets
func (h *Hub) Subscribe(username, repartidor string) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maxClients > 0 && len(h.clients) >= h.maxClients {
		return nil, ErrTooManyClients
	}
	ch := make(chan Message, clientBufferSize)
	c := &Client{
		ID:         uuid.New().String(),
		Username:   username,
		Repartidor: repartidor,
		C:          ch,
		ch:         ch,
		done:       make(chan struct{}),
	}
	h.clients[c.ID] = c
	h.logger.Debug("Live feed client connected", zap.String("client_id", c.ID), zap.String("username", username))
	return c, nil
}

// Unsubscribe removes the client
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	h.mu.Unlock()
	c.close()
	h.logger.Debug("Live feed client disconnected", zap.String("client_id", c.ID))
}

// Broadcast delivers msg to every interested client; slow clients drop it
func (h *Hub) Broadcast(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		if !c.wants(msg) {
			continue
		}
		select {
		case c.ch <- msg:
		default:
			h.logger.Warn("Live feed client too slow, dropping message",
				zap.String("client_id", c.ID),
				zap.String("event", msg.Event))
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WriteEvent writes msg in text/event-stream framing
func WriteEvent(w io.Writer, msg Message) error {
	if msg.Event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", msg.Event); err != nil {
			return err
		}
	}
	if msg.ID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", msg.ID); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", msg.Data)
	return err
}
