package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

// Handler exposes catalog HTTP endpoints.
type Handler struct {
	service Service
	log     *zap.Logger
}

func NewHandler(service Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

func (h *Handler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/api/products", h.searchProducts)
	r.Get("/api/products/{id}", h.getProduct)
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/products", h.createProduct)
}

func (h *Handler) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.service.SearchProducts(r.Context(), q.Get("q"), q.Get("category"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, products)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	var req CreateProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	p, err := h.service.CreateProduct(r.Context(), userID, req)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusCreated, p)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, apperr.Validation("invalid product id"))
		return
	}
	p, err := h.service.GetProduct(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, p)
}
