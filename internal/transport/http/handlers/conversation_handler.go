package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/service"
	"github.com/vvasilje/murmur/internal/transport/http/middleware"
)

type ConversationHandler struct {
	conversationService *service.ConversationService
}

func NewConversationHandler(conversationService *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

// GetOrCreate opens (or finds) the conversation between the caller and
// another member of the same server.
func (h *ConversationHandler) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	var input struct {
		ServerID string `json:"server_id"`
		MemberID string `json:"member_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	serverID, err := uuid.Parse(input.ServerID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}
	memberID, err := uuid.Parse(input.MemberID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid member ID")
		return
	}

	conv, err := h.conversationService.GetOrCreate(r.Context(), profileID, serverID, memberID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		case errors.Is(err, service.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Member not found")
		case errors.Is(err, service.ErrSameMember):
			writeError(w, http.StatusBadRequest, "SAME_MEMBER", "Cannot start a conversation with yourself")
		case errors.Is(err, service.ErrCrossServerPair):
			writeError(w, http.StatusBadRequest, "CROSS_SERVER", "Both members must belong to the same server")
		default:
			log.Printf("ERROR get or create conversation: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	serverID, err := uuid.Parse(r.URL.Query().Get("server_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "server_id query param is required")
		return
	}

	convs, err := h.conversationService.List(r.Context(), profileID, serverID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		} else {
			log.Printf("ERROR list conversations: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	var input service.SendMessageInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	msg, err := h.conversationService.SendMessage(r.Context(), profileID, conversationID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		case errors.Is(err, service.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "EMPTY_MESSAGE", "Message needs content or a file attachment")
		default:
			log.Printf("ERROR send direct message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	conversationID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid conversation ID")
		return
	}

	cursor, ok := parseCursor(w, r)
	if !ok {
		return
	}

	page, err := h.conversationService.ListMessages(r.Context(), profileID, conversationID, cursor)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConversationNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Conversation not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			log.Printf("ERROR list direct messages: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, page)
}

func (h *ConversationHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.conversationService.DeleteMessage(r.Context(), profileID, messageID); err != nil {
		switch {
		case errors.Is(err, service.ErrDirectMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Direct message not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		case errors.Is(err, service.ErrNotMessageOwner):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only delete your own messages")
		default:
			log.Printf("ERROR delete direct message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
