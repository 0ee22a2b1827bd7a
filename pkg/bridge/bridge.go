package bridge

import (
	"context"
	"time"

	"github.com/ArdenN1895/alerts/pkg/agent"
	"github.com/ArdenN1895/alerts/pkg/push"
	"go.uber.org/zap"
)

type PermissionState string

const (
	PermissionDefault PermissionState = "default"
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
)

const (
	// DefaultRetryAfter is the fixed backoff between permission re-checks.
	DefaultRetryAfter = 5 * time.Minute
	// DefaultSessionTimeout bounds the wait for the auth/store layer to
	// come up after page load.
	DefaultSessionTimeout = 30 * time.Second
)

// Permissions is the platform notification-permission surface.
type Permissions interface {
	State(ctx context.Context) (PermissionState, error)
	Request(ctx context.Context) (PermissionState, error)
}

// PushManager is the platform subscribe surface. GetSubscription returns
// (nil, nil) when no subscription exists.
type PushManager interface {
	GetSubscription(ctx context.Context) (*push.SubscriptionRecord, error)
	Subscribe(ctx context.Context, serverKey string) (*push.SubscriptionRecord, error)
}

// Store persists subscription records keyed by principal, upserting on
// conflict so one user keeps exactly one row.
type Store interface {
	UpsertSubscription(ctx context.Context, userID string, rec *push.SubscriptionRecord) error
}

// Session resolves the logged-in principal. It blocks until the auth layer
// is ready; the bridge bounds the wait instead of depending on it at load.
type Session interface {
	WaitForUser(ctx context.Context) (string, error)
}

// Bridge bootstraps and maintains this device's registration with the
// subscription store.
type Bridge struct {
	perms          Permissions
	pm             PushManager
	store          Store
	session        Session
	serverKey      string
	retryAfter     time.Duration
	renewBackoff   time.Duration
	sessionTimeout time.Duration
	log            *zap.Logger
}

func New(perms Permissions, pm PushManager, store Store, session Session, serverKey string, log *zap.Logger) *Bridge {
	return &Bridge{
		perms:          perms,
		pm:             pm,
		store:          store,
		session:        session,
		serverKey:      serverKey,
		retryAfter:     DefaultRetryAfter,
		renewBackoff:   time.Second,
		sessionTimeout: DefaultSessionTimeout,
		log:            log,
	}
}

// WithRetryAfter overrides the permission re-check backoff.
func (b *Bridge) WithRetryAfter(d time.Duration) *Bridge {
	b.retryAfter = d
	return b
}

// WithSessionTimeout overrides the auth-layer wait bound.
func (b *Bridge) WithSessionTimeout(d time.Duration) *Bridge {
	b.sessionTimeout = d
	return b
}

// Run waits for the session, then drives the permission/subscribe loop until
// a subscription is persisted or the context ends. Denied and dismissed
// prompts are re-offered on a fixed backoff: the app treats notification
// opt-in as high-value and keeps asking until granted.
func (b *Bridge) Run(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, b.sessionTimeout)
	userID, err := b.session.WaitForUser(sctx)
	cancel()
	if err != nil {
		return err
	}

	for {
		state, err := b.perms.State(ctx)
		if err != nil {
			return err
		}

		switch state {
		case PermissionGranted:
			return b.EnsureSubscribed(ctx, userID)
		case PermissionDefault:
			state, err = b.perms.Request(ctx)
			if err == nil && state == PermissionGranted {
				continue
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.retryAfter):
		}
	}
}

// EnsureSubscribed creates a subscription if the device has none and upserts
// it under the principal. A failed persist is a warning, not a failure: push
// is an enhancement, and the next page load retries.
func (b *Bridge) EnsureSubscribed(ctx context.Context, userID string) error {
	sub, err := b.pm.GetSubscription(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		sub, err = b.pm.Subscribe(ctx, b.serverKey)
		if err != nil {
			return err
		}
	}

	if err := b.store.UpsertSubscription(ctx, userID, sub); err != nil {
		b.log.Warn("Failed to persist push subscription", zap.String("user_id", userID), zap.Error(err))
	}
	return nil
}

// OnAgentMessage persists a renewed subscription announced by the background
// receiver. The receiver delegates persistence here because the page has the
// reliable store path, so this one retries.
func (b *Bridge) OnAgentMessage(ctx context.Context, userID string, msg agent.Message) error {
	if msg.Type != agent.MsgSubscriptionChanged || msg.Subscription == nil {
		return nil
	}

	var err error
	backoff := b.renewBackoff
	for attempt := 0; attempt < 3; attempt++ {
		if err = b.store.UpsertSubscription(ctx, userID, msg.Subscription); err == nil {
			return nil
		}
		b.log.Warn("Failed to persist renewed subscription, retrying",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return err
}
