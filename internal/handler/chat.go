package handler

import (
	"log/slog"
	"net/http"

	"github.com/tumgpt/chat-backend/internal/auth"
	"github.com/tumgpt/chat-backend/internal/service"
)

// ChatHandler exposes the message endpoints. Every route requires auth; the
// per-route ownership rules live in the service, not here.
//
// Routes:
//
//	POST   /chat/send                     → HandleSend
//	GET    /chat/                         → HandleListAll       (admin)
//	GET    /chat/user/{user_id}           → HandleListByUser    (self or admin)
//	GET    /chat/collection/{collection}  → HandleListCollection
//	GET    /chat/c/{chat_id}              → HandleGet           (owner)
//	PUT    /chat/update/{chat_id}         → HandleUpdate        (owner)
//	DELETE /chat/delete/{chat_id}         → HandleDelete        (owner)
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type sendRequest struct {
	Message    string `json:"message"`
	Collection string `json:"collection,omitempty"`
}

// HandleSend stores a message and returns it with the generated response.
//
// HTTP: POST /chat/send
// Body: {"message": "...", "collection": "..."} — collection optional; a new
// conversation id is generated when it's omitted.
// → 201 MessageOut
func (h *ChatHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req sendRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.chat.Send(r.Context(), caller, req.Message, req.Collection)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// HandleListAll returns every message in the system, paginated. Admin only.
//
// HTTP: GET /chat/?limit=25&offset=0
func (h *ChatHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	limit, offset := pagination(r)
	messages, err := h.chat.ListAll(r.Context(), caller, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandleListByUser returns one user's messages: that user or an admin.
//
// HTTP: GET /chat/user/{user_id}
func (h *ChatHandler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	limit, offset := pagination(r)
	messages, err := h.chat.ListByUser(r.Context(), caller, r.PathValue("user_id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandleListCollection returns the caller's messages in one collection,
// oldest first.
//
// HTTP: GET /chat/collection/{collection}
func (h *ChatHandler) HandleListCollection(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	limit, offset := pagination(r)
	messages, err := h.chat.ListCollection(r.Context(), caller, r.PathValue("collection"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// HandleGet returns a single message, owner only.
//
// HTTP: GET /chat/c/{chat_id}
// → 200 | 403 for a non-owner | 404 for an unknown id (checked first)
func (h *ChatHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	msg, err := h.chat.Get(r.Context(), caller, r.PathValue("chat_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

type updateMessageRequest struct {
	Message    string `json:"message,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// HandleUpdate modifies a message's body and/or collection, owner only.
// Omitted fields keep their current values.
//
// HTTP: PUT /chat/update/{chat_id}
func (h *ChatHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req updateMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	msg, err := h.chat.Update(r.Context(), caller, r.PathValue("chat_id"), req.Message, req.Collection)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// HandleDelete removes a message, owner only.
//
// HTTP: DELETE /chat/delete/{chat_id}
func (h *ChatHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	if err := h.chat.Delete(r.Context(), caller, r.PathValue("chat_id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}
