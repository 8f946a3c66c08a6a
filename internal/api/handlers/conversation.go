// Conversation endpoints: thread CRUD and the coaching reply.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/simonsays/internal/domain/coach"
	"github.com/matiasleandrokruk/simonsays/internal/domain/conversation"
)

// ConversationService is satisfied by *conversation.Service.
type ConversationService interface {
	Create(ctx context.Context, userID, persona string) (*conversation.Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]*conversation.Conversation, error)
	Messages(ctx context.Context, userID, id string) ([]coach.Message, error)
}

// ReplyService is satisfied by *coach.ChatService.
type ReplyService interface {
	Reply(ctx context.Context, in coach.ReplyInput) (*coach.Reply, error)
}

type ConversationHandler struct {
	conversations ConversationService
	chat          ReplyService
}

func NewConversationHandler(conversations ConversationService, chat ReplyService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, chat: chat}
}

// CreateConversationRequest is the body of POST /api/v1/conversations.
type CreateConversationRequest struct {
	CoachID string `json:"coach_id"`
}

// PostMessageRequest is the body of POST /api/v1/conversations/{id}/messages.
// Image data is base64 in JSON.
type PostMessageRequest struct {
	Text  string       `json:"text"`
	Image *coach.Image `json:"image,omitempty"`
}

// Create handles POST /api/v1/conversations.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CreateConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.conversations.Create(r.Context(), userID, req.CoachID)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// List handles GET /api/v1/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	list, err := h.conversations.ListByUser(r.Context(), userID)
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[*conversation.Conversation]{Data: list})
}

// Messages handles GET /api/v1/conversations/{id}/messages.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	msgs, err := h.conversations.Messages(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[coach.Message]{Data: msgs})
}

// PostMessage handles POST /api/v1/conversations/{id}/messages.
//
// Response codes:
//   - 200 OK: the coach reply, including fallback replies (failed=true)
//   - 400 Bad Request: empty text or invalid body
//   - 404 Not Found: unknown conversation
//   - 429 Too Many Requests: the free daily limit is used up
func (h *ConversationHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req PostMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Image != nil && len(req.Image.Data) == 0 {
		req.Image = nil
	}

	reply, err := h.chat.Reply(r.Context(), coach.ReplyInput{
		UserID:         userID,
		ConversationID: chi.URLParam(r, "id"),
		Text:           req.Text,
		Image:          req.Image,
	})
	if err != nil {
		writeConversationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeConversationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, coach.ErrDailyLimitReached):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, coach.ErrEmptyMessage), errors.Is(err, conversation.ErrInvalidPersona):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, conversation.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "conversation request failed")
	}
}
