package ws

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

type stubAnswerer struct {
	reply string
	err   error
}

func (s stubAnswerer) Chat(ctx context.Context, query string) (string, error) {
	return s.reply, s.err
}

func dialTestServer(t *testing.T, answerer Answerer) *websocket.Conn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewChatHandler(answerer, logger)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestChatSession(t *testing.T) {
	conn := dialTestServer(t, stubAnswerer{reply: "Here are some relevant prediction markets:"})

	if err := conn.WriteJSON(queryMsg{Query: "trump markets"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply replyMsg
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "reply" || reply.Query != "trump markets" {
		t.Errorf("reply = %+v", reply)
	}
	if !strings.Contains(reply.Reply, "relevant prediction markets") {
		t.Errorf("reply body = %q", reply.Reply)
	}
}

func TestChatSessionEmptyQuery(t *testing.T) {
	conn := dialTestServer(t, stubAnswerer{reply: "unused"})

	if err := conn.WriteJSON(queryMsg{Query: "   "}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply replyMsg
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "error" || reply.Error == "" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestChatSessionAnswerFailure(t *testing.T) {
	conn := dialTestServer(t, stubAnswerer{err: errors.New("index gone")})

	if err := conn.WriteJSON(queryMsg{Query: "anything"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply replyMsg
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "error" || reply.Query != "anything" {
		t.Errorf("reply = %+v", reply)
	}
}
