package notification

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

type Handler struct {
	service        Service
	vapidPublicKey string
	log            *zap.Logger
}

func NewHandler(service Service, vapidPublicKey string, log *zap.Logger) *Handler {
	return &Handler{service: service, vapidPublicKey: vapidPublicKey, log: log}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/notifications/vapid-public-key", h.publicKey)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/notifications/push-subscriptions", h.subscribe)
	r.Delete("/api/notifications/push-subscriptions", h.unsubscribe)
}

func (h *Handler) publicKey(w http.ResponseWriter, r *http.Request) {
	httpx.Respond(w, http.StatusOK, map[string]string{"public_key": h.vapidPublicKey})
}

func (h *Handler) subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req SubscribeRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	sub, err := h.service.Subscribe(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, sub)
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.service.Unsubscribe(r.Context(), userID, req.Endpoint); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
