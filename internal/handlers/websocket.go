package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"nhs-dashboard/pkg/logging"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FilterMessage is one filter-change event sent by the dashboard page
type FilterMessage struct {
	Mode string `json:"mode"`
}

// ModeLineSocket handles GET /ws/mode-line. Each text frame is one filter
// change; replies are written in the order the frames arrived.
func (h *DashboardHandler) ModeLineSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "[WS_UPGRADE_FAILED] Websocket upgrade failed", logging.Fields{
			"error": err.Error(),
		})
		return
	}

	ctx := logging.WithSessionID(context.WithoutCancel(r.Context()), uuid.NewString())
	h.metrics.ActiveSessions.Inc()
	h.logger.Info(ctx, "[WS_SESSION_OPEN] Dashboard session opened", logging.Fields{
		"remote_addr": r.RemoteAddr,
	})

	send := make(chan []byte, sendBuffer)
	done := make(chan struct{})
	go h.writePump(ctx, conn, send, done)

	h.readPump(ctx, conn, send)

	close(send)
	<-done
	conn.Close()
	h.metrics.ActiveSessions.Dec()
	h.logger.Info(ctx, "[WS_SESSION_CLOSED] Dashboard session closed", logging.Fields{})
}

func (h *DashboardHandler) readPump(ctx context.Context, conn *websocket.Conn, send chan<- []byte) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(ctx, "[WS_READ_ERROR] Unexpected websocket close", logging.Fields{
					"error": err.Error(),
				})
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		// An undecodable frame is a malformed filter: plot everything.
		var msg FilterMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug(ctx, "[WS_BAD_MESSAGE] Undecodable filter message", logging.Fields{
				"error": err.Error(),
			})
			msg.Mode = ""
		}

		fig := h.dashboard.ModeLine(ctx, msg.Mode, "ws")
		payload, err := json.Marshal(fig)
		if err != nil {
			h.logger.Error(ctx, "[WS_ENCODE_ERROR] Failed to encode figure", logging.Fields{}, err)
			return
		}
		h.metrics.RecordChartRender("mode_line", "ws")

		send <- payload
	}
}

func (h *DashboardHandler) writePump(ctx context.Context, conn *websocket.Conn, send <-chan []byte, done chan<- struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(done)
	}()

	for {
		select {
		case payload, ok := <-send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.logger.Warn(ctx, "[WS_WRITE_ERROR] Failed to write figure", logging.Fields{
					"error": err.Error(),
				})
				// Unblock the reader so the session winds down.
				conn.Close()
				drain(send)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				drain(send)
				return
			}
		}
	}
}

func drain(send <-chan []byte) {
	for range send {
	}
}
