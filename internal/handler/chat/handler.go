package chat

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bridgetext/coachbot/backend/internal/service/session"
	"github.com/bridgetext/coachbot/backend/internal/service/turn"
	"github.com/bridgetext/coachbot/backend/pkg/utils"
)

const sessionCookie = "sid"

// Handler serves the conversation endpoints.
type Handler struct {
	engine   *turn.Engine
	sessions *session.Store
}

// New creates the chat handler.
func New(engine *turn.Engine, sessions *session.Store) *Handler {
	return &Handler{engine: engine, sessions: sessions}
}

// RegisterRoutes mounts the conversation routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/history", h.handleHistory)
	r.Post("/clear", h.handleClear)
}

type chatResponse struct {
	Response     string   `json:"response"`
	QuickReplies []string `json:"quick_replies"`
	Success      bool     `json:"success"`
	LimitReached bool     `json:"limit_reached,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sessionID := h.sessionID(w, r)

	result, err := h.engine.Run(r.Context(), sessionID, payload.Message)
	switch {
	case errors.Is(err, turn.ErrEmptyMessage):
		utils.RespondError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	case errors.Is(err, turn.ErrUnavailable):
		utils.RespondError(w, http.StatusServiceUnavailable, "Services unavailable. Please try again later.")
		return
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "An error occurred while processing your message.")
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:     result.Reply,
		QuickReplies: result.QuickReplies,
		Success:      true,
		LimitReached: result.LimitReached,
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"history": h.sessions.Transcript(sessionID),
	})
}

func (h *Handler) handleClear(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	h.sessions.Clear(sessionID)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Chat history cleared",
	})
}

// sessionID reads the session cookie, provisioning one on first contact.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
