package diario

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// ServerEvent is one event read off the realtime socket.
type ServerEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Message is a stored direct message as delivered by the server.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	SentAt      time.Time `json:"sent_at"`
}

// Socket is a live realtime connection. Reads are pull-based: the caller owns
// the read loop via ReadEvent.
type Socket struct {
	ws *websocket.Conn
}

// Dial opens the realtime socket and registers the given identity.
func (c *Client) Dial(identity string) (*Socket, error) {
	wsURL := strings.Replace(c.BaseURL, "http", "ws", 1) + "/ws"

	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	s := &Socket{ws: ws}
	if err := s.send("register-identity", map[string]string{"identity": identity}); err != nil {
		ws.Close()
		return nil, err
	}
	return s, nil
}

func (s *Socket) send(event string, data interface{}) error {
	return s.ws.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	})
}

// SendMessage sends a direct message. Delivery confirmation arrives as a
// message-received event; rejections arrive as an error event.
func (s *Socket) SendMessage(senderID, recipientID, body string) error {
	return s.send("send-message", map[string]string{
		"senderId":    senderID,
		"recipientId": recipientID,
		"body":        body,
	})
}

// RequestHistory asks for the full transcript with a peer. The transcript
// arrives as a history event.
func (s *Socket) RequestHistory(selfID, peerID string) error {
	return s.send("request-history", map[string]string{
		"selfId": selfID,
		"peerId": peerID,
	})
}

// ReadEvent blocks until the next server event arrives.
func (s *Socket) ReadEvent() (*ServerEvent, error) {
	var ev ServerEvent
	if err := s.ws.ReadJSON(&ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// HistoryMessages decodes a history event payload.
func (ev *ServerEvent) HistoryMessages() ([]Message, error) {
	if ev.Event != "history" {
		return nil, fmt.Errorf("not a history event: %s", ev.Event)
	}
	var msgs []Message
	if err := json.Unmarshal(ev.Data, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Close announces the disconnect and closes the transport.
func (s *Socket) Close() error {
	s.send("disconnect", nil)
	return s.ws.Close()
}
