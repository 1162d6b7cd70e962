package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/precocerto-backend/internal/modules/user"
	"github.com/georgemunganga/precocerto-backend/internal/platform/apperr"
	"github.com/georgemunganga/precocerto-backend/internal/platform/metrics"
)

// Recipients looks up the account a notification is addressed to.
type Recipients interface {
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// Service manages push subscriptions and delivers notifications.
type Service interface {
	Subscribe(ctx context.Context, userID uuid.UUID, req SubscribeRequest) (*PushSubscription, error)
	Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error
	// NotifyUser sends msg through every channel the user has enabled.
	// Delivery failures are logged, never returned.
	NotifyUser(ctx context.Context, userID uuid.UUID, msg Message)
}

type SubscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type service struct {
	repo       Repository
	push       PushSender
	email      EmailSender
	recipients Recipients
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewService(repo Repository, push PushSender, email EmailSender, recipients Recipients,
	m *metrics.Metrics, log *zap.Logger) Service {
	return &service{repo: repo, push: push, email: email, recipients: recipients, metrics: m, log: log}
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, req SubscribeRequest) (*PushSubscription, error) {
	endpoint := strings.TrimSpace(req.Endpoint)
	if !strings.HasPrefix(endpoint, "https://") {
		return nil, apperr.Validation("endpoint must be an https URL")
	}
	if req.Keys.P256dh == "" || req.Keys.Auth == "" {
		return nil, apperr.Validation("keys.p256dh and keys.auth are required")
	}
	sub := &PushSubscription{
		ID:       uuid.New(),
		UserID:   userID,
		Endpoint: endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	}
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, apperr.Remote("save push subscription", err)
	}
	return sub, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID uuid.UUID, endpoint string) error {
	if endpoint == "" {
		return apperr.Validation("endpoint is required")
	}
	return s.repo.Delete(ctx, userID, endpoint)
}

func (s *service) NotifyUser(ctx context.Context, userID uuid.UUID, msg Message) {
	s.sendPush(ctx, userID, msg)
	s.sendEmail(ctx, userID, msg)
}

func (s *service) sendPush(ctx context.Context, userID uuid.UUID, msg Message) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.log.Error("list push subscriptions", zap.Stringer("user_id", userID), zap.Error(err))
		return
	}
	if len(subs) == 0 {
		return
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("encode push payload", zap.Error(err))
		return
	}

	for _, sub := range subs {
		err := s.push.Send(ctx, sub, payload)
		switch {
		case err == nil:
			s.metrics.NotificationsSent.WithLabelValues("push", "ok").Inc()
		case errors.Is(err, ErrSubscriptionGone):
			s.metrics.NotificationsSent.WithLabelValues("push", "gone").Inc()
			if err := s.repo.DeleteEndpoint(ctx, sub.Endpoint); err != nil {
				s.log.Warn("remove expired push subscription", zap.Error(err))
			}
		default:
			s.metrics.NotificationsSent.WithLabelValues("push", "error").Inc()
			s.log.Warn("push delivery failed", zap.Stringer("user_id", userID), zap.Error(err))
		}
	}
}

func (s *service) sendEmail(ctx context.Context, userID uuid.UUID, msg Message) {
	u, err := s.recipients.GetUser(ctx, userID)
	if err != nil {
		s.log.Warn("notification recipient lookup failed", zap.Stringer("user_id", userID), zap.Error(err))
		return
	}
	if !u.EmailNotifications || u.Email == "" {
		return
	}

	if err := s.email.Send(u.Email, msg.Title, renderEmail(msg)); err != nil {
		s.metrics.NotificationsSent.WithLabelValues("email", "error").Inc()
		s.log.Warn("email delivery failed", zap.String("to", MaskEmail(u.Email)), zap.Error(err))
		return
	}
	s.metrics.NotificationsSent.WithLabelValues("email", "ok").Inc()
	s.log.Info("email sent", zap.String("to", MaskEmail(u.Email)), zap.String("subject", msg.Title))
}

func renderEmail(msg Message) string {
	body := fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(msg.Title), html.EscapeString(msg.Body))
	if msg.URL != "" {
		body += fmt.Sprintf(`<p><a href="%s">Ver no Preço Certo</a></p>`, html.EscapeString(msg.URL))
	}
	return body
}
