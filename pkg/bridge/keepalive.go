package bridge

import (
	"context"
	"time"

	"github.com/ArdenN1895/alerts/pkg/agent"
	"go.uber.org/zap"
)

// DefaultPingInterval matches the foreground keep-alive cadence.
const DefaultPingInterval = 5 * time.Minute

// DefaultUpdateInterval is the minimum spacing for the periodic
// check-updates wakeup.
const DefaultUpdateInterval = 24 * time.Hour

// AgentHandle is the foreground's view of the background receiver.
type AgentHandle interface {
	// Ping round-trips a KEEP_ALIVE message. An error means no ALIVE ack
	// arrived in time.
	Ping(ctx context.Context) error
	RegisterSync(ctx context.Context, tag string) error
	RegisterPeriodicSync(ctx context.Context, tag string, minInterval time.Duration) error
}

// KeepAlive keeps the background receiver responsive while a window is open:
// periodic pings plus sync registrations so the platform wakes the receiver
// even with no window around.
type KeepAlive struct {
	handle   AgentHandle
	interval time.Duration
	restore  func(ctx context.Context) error
	log      *zap.Logger
}

// NewKeepAlive builds the pinger. restore is invoked when a ping goes
// unanswered, typically to re-register the receiver; it may be nil.
func NewKeepAlive(handle AgentHandle, restore func(ctx context.Context) error, log *zap.Logger) *KeepAlive {
	return &KeepAlive{
		handle:   handle,
		interval: DefaultPingInterval,
		restore:  restore,
		log:      log,
	}
}

// WithInterval overrides the ping cadence.
func (k *KeepAlive) WithInterval(d time.Duration) *KeepAlive {
	k.interval = d
	return k
}

// Start registers the sync wakeups and pings until the context ends. Sync
// registration is best-effort: not every platform grants it, and the ping
// loop covers the open-window case regardless.
func (k *KeepAlive) Start(ctx context.Context) error {
	if err := k.handle.RegisterSync(ctx, agent.SyncKeepAlive); err != nil {
		k.log.Warn("Failed to register background sync", zap.Error(err))
	}
	if err := k.handle.RegisterPeriodicSync(ctx, agent.SyncCheckUpdates, DefaultUpdateInterval); err != nil {
		k.log.Warn("Failed to register periodic sync", zap.Error(err))
	}

	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := k.handle.Ping(ctx); err != nil {
				k.log.Warn("Keep-alive ping unanswered", zap.Error(err))
				if k.restore != nil {
					if err := k.restore(ctx); err != nil {
						k.log.Error("Failed to restore background receiver", zap.Error(err))
					}
				}
			}
		}
	}
}
