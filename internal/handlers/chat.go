package handlers

import (
	"errors"
	"net/http"

	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/ws"
	"github.com/rs/zerolog"
)

type SendMessageRequest struct {
	Text string `json:"text"`
}

type ChatHandler struct {
	Chat *chat.Service
	Hub  *ws.Hub
	Log  *zerolog.Logger
}

func (h *ChatHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.Chat.Messages(r.Context(), profileID(r))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

// SendMessage appends text as the current user. Text rules live in chat.Send.
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}

	msg, err := h.Chat.Send(r.Context(), profileID(r), req.Text)
	if errors.Is(err, chat.ErrNoSession) {
		writeError(w, http.StatusUnauthorized, chat.Notice(err))
		return
	}
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (h *ChatHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	ws.ServeWs(h.Hub, h.Chat, w, r, profileID(r), h.Log)
}
