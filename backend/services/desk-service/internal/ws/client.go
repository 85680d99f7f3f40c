package ws

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 8
)

// client is one connected dashboard. Dashboards only listen; the read pump
// exists to service control frames and notice disconnects.
type client struct {
	ws      *websocket.Conn
	send    chan []byte
	logger  *zap.Logger
	onClose func(*client)
}

func newClient(ws *websocket.Conn, logger *zap.Logger, onClose func(*client)) *client {
	return &client{
		ws:      ws,
		send:    make(chan []byte, sendBuffer),
		logger:  logger,
		onClose: onClose,
	}
}

// Start launches the write pump and blocks on the read pump.
func (c *client) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump()
}

func (c *client) readPump() {
	defer c.cleanup()
	c.ws.SetReadLimit(512)
	c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send enqueues a frame without blocking; a slow dashboard drops frames
// rather than stalling the hub.
func (c *client) Send(msg []byte) {
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("dropping dashboard frame, buffer full")
	}
}

// Close tears the connection down.
func (c *client) Close() {
	_ = c.ws.Close()
}

func (c *client) write(messageType int, payload []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(messageType, payload)
}

func (c *client) cleanup() {
	if c.onClose != nil {
		c.onClose(c)
	}
	_ = c.ws.Close()
}
