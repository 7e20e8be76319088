package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTelegramSend(t *testing.T) {
	var gotPath string
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewTelegramSender("token123", "chat456")
	s.apiBase = srv.URL

	if err := s.Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != "/bottoken123/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if payload["chat_id"] != "chat456" {
		t.Errorf("chat_id = %q", payload["chat_id"])
	}
	if !strings.HasPrefix(payload["text"], "*Title*\n") {
		t.Errorf("text = %q", payload["text"])
	}
}

func TestTelegramSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok":false}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s := NewTelegramSender("t", "c")
	s.apiBase = srv.URL

	err := s.Send(context.Background(), "Title", "Body")
	if err == nil || !strings.Contains(err.Error(), "status 400") {
		t.Errorf("err = %v, want status 400 error", err)
	}
}

func TestDiscordSend(t *testing.T) {
	var payload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	if err := s.Send(context.Background(), "Title", "Body"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.HasPrefix(payload["content"], "**Title**\n") {
		t.Errorf("content = %q", payload["content"])
	}
}

func TestDiscordSendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewDiscordSender(srv.URL)
	err := s.Send(context.Background(), "Title", "Body")
	if err == nil || !strings.Contains(err.Error(), "status 429") {
		t.Errorf("err = %v, want status 429 error", err)
	}
}
