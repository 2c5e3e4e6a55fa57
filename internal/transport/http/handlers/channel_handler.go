package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/service"
	"github.com/vvasilje/murmur/internal/transport/http/middleware"
	"github.com/vvasilje/murmur/pkg/validator"
)

type ChannelHandler struct {
	channelService *service.ChannelService
}

func NewChannelHandler(channelService *service.ChannelService) *ChannelHandler {
	return &ChannelHandler{channelService: channelService}
}

func (h *ChannelHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	var input service.CreateChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateChannel(input.Name, string(input.Type)); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	ch, err := h.channelService.Create(r.Context(), profileID, serverID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServerNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Server not found")
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a moderator can create channels")
		case errors.Is(err, service.ErrReservedChannelName):
			writeError(w, http.StatusBadRequest, "RESERVED_NAME", `Channel name "general" is reserved`)
		case errors.Is(err, service.ErrChannelNameTaken):
			writeError(w, http.StatusConflict, "NAME_TAKEN", "Channel name already exists in this server")
		default:
			log.Printf("ERROR create channel: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusCreated, ch)
}

func (h *ChannelHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	channels, err := h.channelService.ListByServer(r.Context(), profileID, serverID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		} else {
			log.Printf("ERROR list channels: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, channels)
}

func (h *ChannelHandler) Update(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	var input service.UpdateChannelInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateChannel(input.Name, string(input.Type)); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	ch, err := h.channelService.Update(r.Context(), profileID, channelID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChannelNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a moderator can update channels")
		case errors.Is(err, service.ErrReservedChannelName):
			writeError(w, http.StatusBadRequest, "RESERVED_NAME", `The "general" channel cannot be renamed`)
		case errors.Is(err, service.ErrChannelNameTaken):
			writeError(w, http.StatusConflict, "NAME_TAKEN", "Channel name already exists")
		default:
			log.Printf("ERROR update channel: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, ch)
}

func (h *ChannelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	channelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid channel ID")
		return
	}

	if err := h.channelService.Delete(r.Context(), profileID, channelID); err != nil {
		switch {
		case errors.Is(err, service.ErrChannelNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Channel not found")
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a moderator can delete channels")
		case errors.Is(err, service.ErrReservedChannelName):
			writeError(w, http.StatusBadRequest, "RESERVED_NAME", `The "general" channel cannot be deleted`)
		default:
			log.Printf("ERROR delete channel: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
