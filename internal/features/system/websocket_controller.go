package system

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

type WebSocketController struct {
	Hub *Hub
	Log *zap.Logger
}

func NewWebSocketController(hub *Hub, log *zap.Logger) *WebSocketController {
	return &WebSocketController{Hub: hub, Log: log}
}

// HandleWebSocket streams document change events to the client until
// the connection drops. Incoming frames are read and discarded so that
// close and ping frames keep being processed.
func (h *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	events, cancel := h.Hub.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				h.Log.Error("marshal doc event", zap.Error(err))
				continue
			}
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
