package push

import (
	"context"
	"io"
	"os"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/ArdenN1895/alerts/pkg/models"
)

// SendOptions carry the per-dispatch transport settings.
type SendOptions struct {
	TTL             int
	Urgency         string
	Subscriber      string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// Sender submits an encrypted payload to one device's push service and
// reports the transport status code.
type Sender interface {
	Send(ctx context.Context, message []byte, sub *models.Subscription, opts *SendOptions) (int, error)
}

type WebPushSender struct{}

func NewWebPushSender() *WebPushSender {
	return &WebPushSender{}
}

func (s *WebPushSender) Send(ctx context.Context, message []byte, sub *models.Subscription, opts *SendOptions) (int, error) {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}

	urgency := webpush.UrgencyNormal
	if Urgency(opts.Urgency) == UrgencyHigh {
		urgency = webpush.UrgencyHigh
	}

	resp, err := webpush.SendNotificationWithContext(ctx, message, target, &webpush.Options{
		Subscriber:      opts.Subscriber,
		VAPIDPublicKey:  opts.VAPIDPublicKey,
		VAPIDPrivateKey: opts.VAPIDPrivateKey,
		TTL:             opts.TTL,
		Urgency:         urgency,
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// VAPIDKeysFromEnv loads the signing key pair. Missing keys are a
// ConfigurationError: fatal for the whole dispatch, nothing attempted.
func VAPIDKeysFromEnv() (string, string, error) {
	pub := os.Getenv("VAPID_PUBLIC_KEY")
	priv := os.Getenv("VAPID_PRIVATE_KEY")
	if pub == "" || priv == "" {
		return "", "", &ConfigurationError{Msg: "VAPID keys not configured"}
	}
	return pub, priv, nil
}
