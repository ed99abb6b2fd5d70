package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// streamEvents upgrades to a websocket and forwards the ecosystem's
// event stream. A subscriber evicted for falling behind gets a close
// frame naming the overrun, so clients can reconnect and resync from
// the persisted history.
func (h *Handler) streamEvents(w http.ResponseWriter, r *http.Request) {
	ecosystemID := chi.URLParam(r, "id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.eventBus.Subscribe(ecosystemID)
	defer h.eventBus.Unsubscribe(sub)
	defer conn.Close()

	// Reader goroutine: we never expect client frames, but reading is
	// what surfaces the close.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				reason := "stream closed"
				if err := sub.Err(); err != nil {
					reason = err.Error()
				}
				h.logger.Debug("event stream ended",
					zap.String("ecosystem", ecosystemID),
					zap.String("reason", reason))
				deadline := time.Now().Add(writeWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-clientGone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
