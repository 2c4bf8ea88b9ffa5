package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/service"
)

type SessionHandler struct {
	registry *service.Registry
	logger   *zap.Logger
}

func NewSessionHandler(registry *service.Registry, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{registry: registry, logger: logger}
}

type sessionResponse struct {
	ID     uuid.UUID      `json:"id"`
	Events []domain.Event `json:"events"`
}

type messageRequest struct {
	Query string `json:"query"`
}

type feedbackRequest struct {
	Positive *bool `json:"positive"`
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	s, events, err := h.registry.Create(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrRegistryClosed) {
			writeError(w, http.StatusServiceUnavailable, "server is shutting down")
			return
		}
		h.logger.Error("failed to create session", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID, Events: events})
}

func (h *SessionHandler) Message(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID, Events: s.Step(r.Context(), req.Query)})
}

func (h *SessionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Positive == nil {
		writeError(w, http.StatusBadRequest, "positive is required")
		return
	}

	writeJSON(w, http.StatusOK, s.RateStateUpdate(r.Context(), *req.Positive))
}

func (h *SessionHandler) State(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.State())
}

func (h *SessionHandler) Turns(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	turns, err := s.Turns(r.Context())
	if err != nil {
		h.logger.Error("failed to list turns", zap.String("session_id", s.ID.String()), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []domain.DialogueTurn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := h.registry.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*service.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return nil, false
	}
	s, err := h.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}
