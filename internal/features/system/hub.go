package system

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// DocEvent tells connected clients that a document changed so open
// forms can refetch and recompute their field statuses and manifest.
type DocEvent struct {
	DocType   string    `json:"doctype"`
	Name      string    `json:"name"`
	Event     string    `json:"event"` // saved, submitted, cancelled, deleted, transitioned
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans document events out to websocket subscribers. When a
// subscriber's buffer is full the event is dropped for that subscriber
// instead of blocking the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan DocEvent]struct{}
	log     *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[chan DocEvent]struct{}),
		log:     log,
	}
}

// Subscribe registers a listener. The returned cancel func must be
// called when the connection goes away.
func (h *Hub) Subscribe() (<-chan DocEvent, func()) {
	ch := make(chan DocEvent, 16)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// PublishDocEvent broadcasts a change notification. Implements the
// document feature's Publisher interface.
func (h *Hub) PublishDocEvent(doctype, name, event string) {
	ev := DocEvent{
		DocType:   doctype,
		Name:      name,
		Event:     event,
		Timestamp: time.Now().UTC(),
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
			if h.log != nil {
				h.log.Debug("dropping doc event for slow subscriber",
					zap.String("doctype", doctype),
					zap.String("docname", name),
				)
			}
		}
	}
}
