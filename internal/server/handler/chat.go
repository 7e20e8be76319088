package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Chatter answers natural-language questions from the index. *rag.Index
// satisfies this.
type Chatter interface {
	Chat(ctx context.Context, query string) (string, error)
}

// ChatHandler serves the one-shot chat endpoint.
type ChatHandler struct {
	chatter Chatter
	logger  *slog.Logger
}

// NewChatHandler creates a ChatHandler. The chatter may be nil when no index
// is configured; the endpoint then reports 503.
func NewChatHandler(chatter Chatter, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chatter: chatter, logger: logger}
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Query string `json:"query"`
	Reply string `json:"reply"`
}

// Chat answers a single question about the indexed products.
// POST /api/chat {"query": "..."}
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.chatter == nil {
		writeError(w, http.StatusServiceUnavailable, "chat index not configured")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}

	reply, err := h.chatter.Chat(r.Context(), req.Query)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: chat failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "chat failed")
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{Query: req.Query, Reply: reply})
}
