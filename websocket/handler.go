package websocket

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// WsHandler upgrades requests to the index event stream.
type WsHandler struct {
	hub    *Hub
	logger *zap.Logger
}

func NewWsHandler(hub *Hub, logger *zap.Logger) *WsHandler {
	return &WsHandler{hub: hub, logger: logger}
}

// parseIndices reads ?index=item,testdata; no value means every index.
func parseIndices(raw string) []string {
	var out []string
	for _, idx := range strings.Split(raw, ",") {
		if idx = strings.TrimSpace(idx); idx != "" {
			out = append(out, idx)
		}
	}
	if len(out) == 0 {
		return []string{AllIndices}
	}
	return out
}

// HandleWebSocket handles incoming WebSocket upgrade requests
func (h *WsHandler) HandleWebSocket(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	indices := parseIndices(c.Query("index"))

	return websocket.New(func(conn *websocket.Conn) {
		client := NewClient(h.hub, conn, indices...)
		if !h.hub.Register(client) {
			// shutting down
			return
		}

		h.logger.Info("Event stream client connected",
			zap.String("clientID", client.ID.String()),
			zap.Strings("indices", indices))

		go client.writePump(h.logger)
		client.readPump(h.logger)
	})(c)
}

// readPump handles subscription changes sent by the client.
func (c *Client) readPump(logger *zap.Logger) {
	defer func() {
		logger.Info("Event stream client disconnecting", zap.String("clientID", c.ID.String()))
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4 * 1024)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		var msg IndexEvent
		if err := c.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket unexpected close", zap.String("clientID", c.ID.String()), zap.Error(err))
			}
			return
		}
		c.handle(msg)
	}
}

func (c *Client) handle(msg IndexEvent) {
	index := strings.TrimSpace(msg.Index)
	switch msg.Type {
	case EventSubscribe:
		if index == "" {
			c.sendError("index is required")
			return
		}
		c.Subscribe(index)
	case EventUnsubscribe:
		c.Unsubscribe(index)
	default:
		c.sendError("Unknown message type: " + string(msg.Type))
	}
}

// writePump sends queued events and keeps the connection alive
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case event := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteJSON(event); err != nil {
				logger.Debug("WebSocket write error", zap.String("clientID", c.ID.String()), zap.Error(err))
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("WebSocket ping error", zap.String("clientID", c.ID.String()), zap.Error(err))
				return
			}
		}
	}
}

func (c *Client) sendError(message string) {
	c.deliver(IndexEvent{Type: EventError, Payload: map[string]string{"message": message}, Timestamp: time.Now()})
}
