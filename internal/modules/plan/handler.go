package plan

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
	"github.com/georgemunganga/precocerto-backend/internal/platform/session"
)

type Handler struct {
	tiers TierSource
	log   *zap.Logger
}

func NewHandler(tiers TierSource, log *zap.Logger) *Handler {
	return &Handler{tiers: tiers, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/plan", h.getPlan)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := session.UserID(r.Context())
	if !ok {
		httpx.Error(w, h.log, apperr.ErrUnauthorized)
		return
	}
	tier, err := h.tiers.TierOf(r.Context(), userID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]interface{}{
		"plan":   tier,
		"limits": Limits(tier),
	})
}
