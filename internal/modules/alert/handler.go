package alert

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/alerts", h.list)
	r.Post("/api/alerts", h.create)
	r.Patch("/api/alerts/{id}/toggle", h.toggle)
	r.Delete("/api/alerts/{id}", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	alerts, err := h.service.List(r.Context(), userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, alerts)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req CreateRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	a, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, a)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owned(w, r)
	if !ok {
		return
	}
	a, err := h.service.Toggle(r.Context(), userID, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, a)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owned(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, apperr.Validation("invalid alert id"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
