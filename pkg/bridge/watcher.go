package bridge

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatusUpdate is one observed state change for a tracked record, such as an
// SOS request moving to "responding".
type StatusUpdate struct {
	ID     string
	Status string
}

// PollFunc fetches the current state of all tracked records.
type PollFunc func(ctx context.Context) ([]StatusUpdate, error)

// Watcher merges two producers of status updates, a live feed and a polling
// fallback covering missed feed events, into one consumer that applies each
// distinct transition exactly once.
type Watcher struct {
	feed     <-chan StatusUpdate
	poll     PollFunc
	interval time.Duration
	apply    func(StatusUpdate)
	log      *zap.Logger
}

func NewWatcher(feed <-chan StatusUpdate, poll PollFunc, interval time.Duration, apply func(StatusUpdate), log *zap.Logger) *Watcher {
	return &Watcher{
		feed:     feed,
		poll:     poll,
		interval: interval,
		apply:    apply,
		log:      log,
	}
}

// Run consumes both producers until the context ends. Updates are deduplicated
// against the last applied status per record, so overlapping feed and poll
// deliveries of the same transition apply once.
func (w *Watcher) Run(ctx context.Context) error {
	updates := make(chan StatusUpdate)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case u, ok := <-w.feed:
				if !ok {
					return
				}
				select {
				case updates <- u:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				polled, err := w.poll(ctx)
				if err != nil {
					w.log.Warn("Status poll failed", zap.Error(err))
					continue
				}
				for _, u := range polled {
					select {
					case updates <- u:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	last := make(map[string]string)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case u := <-updates:
			if last[u.ID] == u.Status {
				continue
			}
			last[u.ID] = u.Status
			w.apply(u)
		}
	}
}
