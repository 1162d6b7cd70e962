package contribution

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

// Handler exposes price contribution endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes mounts the user routes; submit is passed separately so the
// caller can wrap it with a rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router, submit func(http.Handler) http.Handler) {
	r.With(submit).Post("/api/product-prices", h.submit)
	r.Get("/api/product-prices", h.listToday) // ?product=...&city=...&state=...
}

func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/api/admin/contributions", h.listForReview) // ?status=pending
	r.Post("/api/admin/contributions/{id}/approve", h.approve)
	r.Post("/api/admin/contributions/{id}/reject", h.reject)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req SubmitRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	sub, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}

	switch sub.Validation.Reason {
	case ReasonDuplicate:
		httpx.Respond(w, http.StatusConflict, sub)
	case ReasonError:
		httpx.Respond(w, http.StatusInternalServerError, sub)
	case ReasonOutlier:
		httpx.Respond(w, http.StatusAccepted, sub)
	default:
		httpx.Respond(w, http.StatusCreated, sub)
	}
}

func (h *Handler) listToday(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offers, err := h.service.ListToday(r.Context(), q.Get("product"), q.Get("city"), q.Get("state"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, offers)
}

func (h *Handler) listForReview(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListForReview(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, items)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Approve)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.service.Reject)
}

func (h *Handler) moderate(w http.ResponseWriter, r *http.Request,
	action func(ctx context.Context, reviewer, id uuid.UUID) (*Contribution, error)) {
	reviewer, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, apperr.Validation("invalid contribution id"))
		return
	}
	c, err := action(r.Context(), reviewer, id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, c)
}
