// README: Websocket event stream; one connection per subscriber.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"ozra/internal/http/middleware"
	"ozra/internal/modules/notify"
	"ozra/internal/types"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

type NotifyHandler struct {
	hub *notify.Hub
	log *slog.Logger

	upgrader websocket.Upgrader
}

func NewNotifyHandler(hub *notify.Hub, log *slog.Logger) *NotifyHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotifyHandler{
		hub: hub,
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Token auth already ran; the origin check adds nothing here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream upgrades the connection and forwards the caller's events until the
// client disconnects or the hub drops the subscription for lagging.
func (h *NotifyHandler) Stream(c *gin.Context) {
	uid := types.ID(middleware.CallerUID(c))
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(uid)
	defer cancel()

	// Drain client frames so close and pong handling work; inbound payloads
	// are ignored.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				// Hub dropped us as a lagging subscriber.
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "resubscribe"),
					time.Now().Add(writeWait))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(eventView(ev)); err != nil {
				h.log.Debug("websocket write failed", "user_id", uid, "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
