package comparison

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

// Handler exposes comparison endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/comparisons", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Get("/{id}/result", h.result)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, list)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req SaveRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	c, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, c)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owned(w, r)
	if !ok {
		return
	}
	var req SaveRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	c, err := h.service.Update(r.Context(), userID, id, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
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

func (h *Handler) result(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := h.owned(w, r)
	if !ok {
		return
	}
	res, err := h.service.Result(r.Context(), userID, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, res)
}

func (h *Handler) owned(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, apperr.Validation("invalid comparison id"))
		return uuid.Nil, uuid.Nil, false
	}
	return userID, id, true
}
