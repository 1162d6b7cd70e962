package notification

import (
	"context"
	"errors"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// ErrSubscriptionGone means the push service no longer knows the endpoint.
var ErrSubscriptionGone = errors.New("push subscription expired")

type PushSender interface {
	Send(ctx context.Context, sub *PushSubscription, payload []byte) error
}

type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
}

type webPushSender struct {
	cfg VAPIDConfig
}

func NewWebPushSender(cfg VAPIDConfig) PushSender {
	return &webPushSender{cfg: cfg}
}

func (s *webPushSender) Send(ctx context.Context, sub *PushSubscription, payload []byte) error {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{P256dh: sub.P256dh, Auth: sub.Auth},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.PublicKey,
		VAPIDPrivateKey: s.cfg.PrivateKey,
		TTL:             3600,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrSubscriptionGone
	case resp.StatusCode >= 400:
		return errors.New("push service responded " + resp.Status)
	}
	return nil
}
