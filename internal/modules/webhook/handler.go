// Package webhook receives identity-provider events signed with svix.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	svix "github.com/svix/svix-webhooks/go"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/analytics"
	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/httpx"
)

const maxPayloadBytes = 1 << 20

// Verifier checks the svix-id, svix-timestamp and svix-signature headers.
type Verifier interface {
	Verify(payload []byte, headers http.Header) error
}

// UserSync mirrors identity-provider users into the local users table.
type UserSync interface {
	SyncExternal(ctx context.Context, profile user.ExternalProfile) (*user.User, error)
	DeleteExternal(ctx context.Context, externalID string) error
}

type Handler struct {
	verifier Verifier
	users    UserSync
	events   analytics.Publisher
	log      *zap.Logger
}

// NewClerkVerifier builds a svix verifier from the whsec_ secret.
func NewClerkVerifier(secret string) (Verifier, error) {
	return svix.NewWebhook(secret)
}

func NewHandler(verifier Verifier, users UserSync, events analytics.Publisher, log *zap.Logger) *Handler {
	return &Handler{verifier: verifier, users: users, events: events, log: log}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/webhooks/clerk", h.clerk)
}

func (h *Handler) clerk(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		httpx.RespondMessage(w, http.StatusServiceUnavailable, "webhook secret not configured")
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		httpx.Error(w, h.log, apperr.Validation("could not read body"))
		return
	}
	if r.Header.Get("svix-id") == "" || r.Header.Get("svix-timestamp") == "" || r.Header.Get("svix-signature") == "" {
		httpx.Error(w, h.log, apperr.Validation("missing svix headers"))
		return
	}
	if err := h.verifier.Verify(payload, r.Header); err != nil {
		h.log.Warn("webhook signature rejected", zap.String("svix_id", r.Header.Get("svix-id")), zap.Error(err))
		httpx.Error(w, h.log, apperr.Validation("invalid webhook signature"))
		return
	}

	var evt clerkEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		httpx.Error(w, h.log, apperr.Validation("invalid webhook payload"))
		return
	}
	if err := h.dispatch(r.Context(), evt); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Respond(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *Handler) dispatch(ctx context.Context, evt clerkEvent) error {
	var u clerkUser
	if err := json.Unmarshal(evt.Data, &u); err != nil {
		return apperr.Validation("invalid %s payload", evt.Type)
	}

	switch evt.Type {
	case EventUserCreated, EventUserUpdated:
		synced, err := h.users.SyncExternal(ctx, user.ExternalProfile{
			ExternalID: u.ID,
			Email:      u.primaryEmail(),
			FirstName:  u.FirstName,
			LastName:   u.LastName,
		})
		if err != nil {
			return err
		}
		h.log.Info("user synced from webhook", zap.String("event", evt.Type), zap.Stringer("user_id", synced.ID))
		if evt.Type == EventUserCreated {
			h.publishSignup(ctx, synced)
		}
	case EventUserDeleted:
		if err := h.users.DeleteExternal(ctx, u.ID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}
		h.log.Info("user deleted from webhook", zap.String("external_id", u.ID))
	default:
		h.log.Debug("webhook event ignored", zap.String("event", evt.Type))
	}
	return nil
}

func (h *Handler) publishSignup(ctx context.Context, u *user.User) {
	err := h.events.Publish(ctx, analytics.Event{
		Name:       analytics.EventUserSignedUp,
		UserID:     u.ID.String(),
		Properties: map[string]interface{}{"source": "clerk"},
	})
	if err != nil {
		h.log.Warn("analytics publish failed", zap.String("event", analytics.EventUserSignedUp), zap.Error(err))
	}
}
