package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/vvasilje/murmur/internal/domain"
	"github.com/vvasilje/murmur/internal/service"
	"github.com/vvasilje/murmur/internal/transport/http/middleware"
	"github.com/vvasilje/murmur/pkg/validator"
)

type ServerHandler struct {
	serverService *service.ServerService
}

func NewServerHandler(serverService *service.ServerService) *ServerHandler {
	return &ServerHandler{serverService: serverService}
}

func (h *ServerHandler) Create(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	var input service.CreateServerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	if errs := validator.ValidateServer(input.Name); errs.HasErrors() {
		writeValidationErrors(w, errs)
		return
	}

	server, err := h.serverService.Create(r.Context(), profileID, input)
	if err != nil {
		log.Printf("ERROR create server: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusCreated, server)
}

func (h *ServerHandler) List(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	servers, err := h.serverService.List(r.Context(), profileID)
	if err != nil {
		log.Printf("ERROR list servers: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, servers)
}

func (h *ServerHandler) Get(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	server, err := h.serverService.Get(r.Context(), profileID, serverID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServerNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Server not found")
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		default:
			log.Printf("ERROR get server: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, server)
}

func (h *ServerHandler) Join(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())

	var input struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.InviteCode == "" {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invite_code is required")
		return
	}

	server, err := h.serverService.Join(r.Context(), profileID, input.InviteCode)
	if err != nil {
		if errors.Is(err, service.ErrInviteInvalid) {
			writeError(w, http.StatusNotFound, "INVALID_INVITE", "Invite code does not match any server")
		} else {
			log.Printf("ERROR join server: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, server)
}

func (h *ServerHandler) Leave(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	if err := h.serverService.Leave(r.Context(), profileID, serverID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		case errors.Is(err, service.ErrOwnerImmutable):
			writeError(w, http.StatusBadRequest, "OWNER_IMMUTABLE", "The owner cannot leave their own server")
		default:
			log.Printf("ERROR leave server: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	members, err := h.serverService.ListMembers(r.Context(), profileID, serverID)
	if err != nil {
		if errors.Is(err, service.ErrNotMember) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a member of this server")
		} else {
			log.Printf("ERROR list members: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *ServerHandler) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}
	memberID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid member ID")
		return
	}

	var input struct {
		Role domain.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if !input.Role.Valid() {
		writeError(w, http.StatusBadRequest, "INVALID_ROLE", "Role must be owner, admin, moderator or guest")
		return
	}

	member, err := h.serverService.UpdateMemberRole(r.Context(), profileID, serverID, memberID, input.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a server admin can change roles")
		case errors.Is(err, service.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Member not found")
		case errors.Is(err, service.ErrOwnerImmutable):
			writeError(w, http.StatusBadRequest, "OWNER_IMMUTABLE", "The owner role cannot be given or taken")
		default:
			log.Printf("ERROR update member role: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, member)
}

func (h *ServerHandler) KickMember(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}
	memberID, err := uuid.Parse(r.PathValue("mid"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid member ID")
		return
	}

	if err := h.serverService.KickMember(r.Context(), profileID, serverID, memberID); err != nil {
		switch {
		case errors.Is(err, service.ErrNotMember), errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only a moderator can kick members")
		case errors.Is(err, service.ErrMemberNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Member not found")
		case errors.Is(err, service.ErrOwnerImmutable):
			writeError(w, http.StatusBadRequest, "OWNER_IMMUTABLE", "The owner cannot be kicked")
		default:
			log.Printf("ERROR kick member: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) RegenerateInvite(w http.ResponseWriter, r *http.Request) {
	profileID := middleware.GetProfileID(r.Context())
	serverID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid server ID")
		return
	}

	server, err := h.serverService.RegenerateInvite(r.Context(), profileID, serverID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrServerNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Server not found")
		case errors.Is(err, service.ErrNotServerAdmin):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the owner can regenerate the invite code")
		default:
			log.Printf("ERROR regenerate invite: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, server)
}
