package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/martinprlt/diario-gestion-archivos-sub000/internal/realtime"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long we wait for a pong before declaring the peer gone.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxEventSize bounds an inbound client event.
	maxEventSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The realtime surface authenticates by identity registration, not by
	// cookie, so cross-origin upgrades are safe to allow.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// clientEvent is the envelope for every inbound realtime event.
type clientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type registerIdentityData struct {
	Identity string `json:"identity"`
}

type requestHistoryData struct {
	SelfID string `json:"selfId"`
	PeerID string `json:"peerId"`
}

type sendMessageData struct {
	SenderID    string `json:"senderId"`
	RecipientID string `json:"recipientId"`
	Body        string `json:"body"`
}

type errorData struct {
	Message string `json:"message"`
}

// Socket handles GET /ws: upgrade, attach to the registry, then pump events
// in both directions until the peer goes away.
func (h *Handler) Socket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := h.registry.Attach()
	if conn == nil {
		// Registry is shut down; we are draining.
		ws.Close()
		return
	}

	logger := h.logger.With().Str("conn_id", conn.ID()).Logger()
	logger.Debug().Str("remote_addr", r.RemoteAddr).Msg("socket opened")

	go h.writePump(ws, conn)
	h.readLoop(r.Context(), ws, conn)
}

// readLoop dispatches inbound events until the transport closes, then
// unregisters the connection with a reason derived from how it closed.
func (h *Handler) readLoop(ctx context.Context, ws *websocket.Conn, conn *realtime.Conn) {
	ws.SetReadLimit(maxEventSize)
	ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	reason := realtime.CloseNormal
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			reason = closeReason(err)
			break
		}

		var ev clientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			h.sendError(conn, "Evento no válido")
			continue
		}

		if !h.dispatch(ctx, conn, ev) {
			// Client asked to disconnect.
			break
		}
	}

	h.registry.Unregister(conn.ID(), reason)
	ws.Close()
}

// dispatch handles one client event. Returns false when the connection should
// be torn down.
func (h *Handler) dispatch(ctx context.Context, conn *realtime.Conn, ev clientEvent) bool {
	switch ev.Event {
	case "register-identity":
		var data registerIdentityData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			h.sendError(conn, "Evento no válido")
			return true
		}
		h.registry.Register(conn.ID(), data.Identity)

	case "request-history":
		var data requestHistoryData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			h.sendError(conn, "Evento no válido")
			return true
		}
		msgs, err := h.router.History(ctx, data.SelfID, data.PeerID)
		if err != nil {
			h.sendError(conn, userMessage(err))
			return true
		}
		conn.Deliver(realtime.ServerEvent{Event: realtime.EventHistory, Data: msgs})

	case "send-message":
		var data sendMessageData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			h.sendError(conn, "Evento no válido")
			return true
		}
		if _, err := h.router.SendDirectMessage(ctx, data.SenderID, data.RecipientID, data.Body); err != nil {
			// Rejections go only to the connection that asked.
			h.sendError(conn, userMessage(err))
		}

	case "disconnect":
		return false

	default:
		h.logger.Debug().Str("event", ev.Event).Msg("unknown client event ignored")
	}
	return true
}

// writePump drains the connection's outbound queue onto the wire and keeps
// the peer alive with pings. It exits once the connection is closed.
func (h *Handler) writePump(ws *websocket.Conn, conn *realtime.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-conn.Events():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(ev); err != nil {
				h.registry.Unregister(conn.ID(), realtime.CloseError)
				ws.Close() // unblock the read loop
				return
			}

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.registry.Unregister(conn.ID(), realtime.CloseTimeout)
				ws.Close()
				return
			}

		case <-conn.Done():
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// sendError delivers an error event to the originating connection only.
func (h *Handler) sendError(conn *realtime.Conn, message string) {
	conn.Deliver(realtime.ServerEvent{
		Event: realtime.EventError,
		Data:  errorData{Message: message},
	})
}

// userMessage extracts a user-facing message from a router error.
func userMessage(err error) string {
	var ve *realtime.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *realtime.PersistenceError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return "Error interno"
}

// closeReason classifies a read error for registry observability.
func closeReason(err error) realtime.CloseReason {
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return realtime.CloseNormal
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return realtime.CloseTimeout
	}
	return realtime.CloseError
}
