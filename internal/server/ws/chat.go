// Package ws serves the chat assistant over WebSocket. Each connection is an
// independent session: the client sends query frames, the server answers
// from the product index.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks happen in the CORS middleware for the REST API; the
		// chat socket carries no privileged operations.
		return true
	},
}

// Answerer resolves a query to a reply. *rag.Index satisfies this.
type Answerer interface {
	Chat(ctx context.Context, query string) (string, error)
}

// queryMsg is the frame a client sends to ask a question.
type queryMsg struct {
	Query string `json:"query"`
}

// replyMsg is the frame the server sends back.
type replyMsg struct {
	Type  string `json:"type"` // "reply" or "error"
	Query string `json:"query,omitempty"`
	Reply string `json:"reply,omitempty"`
	Error string `json:"error,omitempty"`
}

// ChatHandler upgrades HTTP requests to WebSocket chat sessions.
type ChatHandler struct {
	answerer Answerer
	logger   *slog.Logger
}

// NewChatHandler creates a ChatHandler over the given answerer.
func NewChatHandler(answerer Answerer, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{answerer: answerer, logger: logger}
}

// HandleWS upgrades the request and runs the session until the client
// disconnects.
// GET /ws/chat
func (h *ChatHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws: upgrade failed", slog.String("error", err.Error()))
		return
	}

	s := &session{
		handler: h,
		conn:    conn,
		send:    make(chan replyMsg, 16),
	}
	go s.writePump()
	s.readPump(r.Context())
}

// session is one connected chat client.
type session struct {
	handler *ChatHandler
	conn    *websocket.Conn
	send    chan replyMsg
}

// readPump reads query frames and answers them. It owns the connection's
// read side and closes the session when the client goes away.
func (s *session) readPump(ctx context.Context) {
	defer func() {
		close(s.send)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.handler.logger.Warn("ws: unexpected close", slog.String("error", err.Error()))
			}
			return
		}

		var q queryMsg
		if err := json.Unmarshal(message, &q); err != nil {
			s.send <- replyMsg{Type: "error", Error: "invalid message, expected {\"query\": \"...\"}"}
			continue
		}
		q.Query = strings.TrimSpace(q.Query)
		if q.Query == "" {
			s.send <- replyMsg{Type: "error", Error: "query must not be empty"}
			continue
		}

		reply, err := s.handler.answerer.Chat(ctx, q.Query)
		if err != nil {
			s.handler.logger.Error("ws: chat failed",
				slog.String("query", q.Query),
				slog.String("error", err.Error()),
			)
			s.send <- replyMsg{Type: "error", Query: q.Query, Error: "chat failed"}
			continue
		}
		s.send <- replyMsg{Type: "reply", Query: q.Query, Reply: reply}
	}
}

// writePump writes reply frames and periodic pings. It owns the connection's
// write side and closes the connection when the send channel drains.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
