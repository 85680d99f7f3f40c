// Package ws streams the venue dashboard: every refresh tick the hub takes a
// snapshot of active sessions (with elapsed minutes) and fans it out to all
// connected dashboard clients.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"gamedesk/backend/services/desk-service/internal/service"
)

// Snapshotter supplies the dashboard view of running sessions.
type Snapshotter interface {
	DashboardSnapshot(ctx context.Context, now time.Time) ([]service.LiveSession, error)
}

// Hub tracks dashboard connections and pushes snapshots on a tick.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	source   Snapshotter
	interval time.Duration
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHub builds the dashboard hub.
func NewHub(source Snapshotter, interval time.Duration, logger *zap.Logger) *Hub {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Hub{
		clients:  make(map[*client]struct{}),
		source:   source,
		interval: interval,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Run drives the snapshot loop until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			if h.clientCount() == 0 {
				continue
			}
			h.broadcast(ctx)
		}
	}
}

// Handler upgrades GET /dashboard/ws connections and registers them.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("dashboard upgrade failed", zap.Error(err))
			return
		}

		c := newClient(conn, h.logger, h.remove)
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()

		// Push the current state immediately so a fresh dashboard is not
		// blank until the next tick.
		if frame, ok := h.snapshotFrame(r.Context()); ok {
			c.Send(frame)
		}

		// Blocks until the client disconnects; shutdown closes the
		// connection via closeAll, which unblocks the read pump.
		c.Start(context.Background())
	}
}

func (h *Hub) broadcast(ctx context.Context) {
	frame, ok := h.snapshotFrame(ctx)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Send(frame)
	}
}

func (h *Hub) snapshotFrame(ctx context.Context) ([]byte, bool) {
	live, err := h.source.DashboardSnapshot(ctx, time.Now())
	if err != nil {
		h.logger.Warn("dashboard snapshot failed", zap.Error(err))
		return nil, false
	}
	frame, err := json.Marshal(map[string]interface{}{
		"ts":       time.Now().UTC().Format(time.RFC3339),
		"sessions": live,
	})
	if err != nil {
		h.logger.Warn("dashboard snapshot encode failed", zap.Error(err))
		return nil, false
	}
	return frame, true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}
