package agent

import (
	"context"

	"go.uber.org/zap"
)

// Event is one platform wakeup delivered to the receiver.
type Event interface {
	kind() string
}

type InstallEvent struct{}

type ActivateEvent struct{}

type PushEvent struct {
	Data []byte
}

type ClickEvent struct {
	Action string
	Data   ClickData
}

type CloseEvent struct {
	Tag string
}

type SubscriptionChangeEvent struct{}

type MessageEvent struct {
	Msg Message
	// Reply receives the acknowledgement, if the message warrants one.
	Reply chan<- Message
}

type SyncEvent struct {
	Tag string
}

type PeriodicSyncEvent struct {
	Tag string
}

func (InstallEvent) kind() string            { return "install" }
func (ActivateEvent) kind() string           { return "activate" }
func (PushEvent) kind() string               { return "push" }
func (ClickEvent) kind() string              { return "notificationclick" }
func (CloseEvent) kind() string              { return "notificationclose" }
func (SubscriptionChangeEvent) kind() string { return "pushsubscriptionchange" }
func (MessageEvent) kind() string            { return "message" }
func (SyncEvent) kind() string               { return "sync" }
func (PeriodicSyncEvent) kind() string       { return "periodicsync" }

// Run processes events one at a time until the context ends or the channel
// closes. Each handler finishes completely before the next event is taken:
// the in-flight handler is the pending work that keeps the receiver from
// being suspended mid-operation.
func (a *Agent) Run(ctx context.Context, events <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			a.dispatch(ctx, ev)
		}
	}
}

func (a *Agent) dispatch(ctx context.Context, ev Event) {
	var err error
	switch e := ev.(type) {
	case InstallEvent:
		err = a.HandleInstall(ctx)
	case ActivateEvent:
		err = a.HandleActivate(ctx)
	case PushEvent:
		err = a.HandlePush(ctx, e.Data)
	case ClickEvent:
		err = a.HandleNotificationClick(ctx, e.Action, e.Data)
	case CloseEvent:
		a.HandleNotificationClose(e.Tag)
	case SubscriptionChangeEvent:
		err = a.HandleSubscriptionChange(ctx)
	case MessageEvent:
		var reply *Message
		reply, err = a.HandleMessage(ctx, e.Msg)
		if reply != nil && e.Reply != nil {
			e.Reply <- *reply
		}
	case SyncEvent:
		err = a.HandleSync(ctx, e.Tag)
	case PeriodicSyncEvent:
		err = a.HandlePeriodicSync(ctx, e.Tag)
	}
	if err != nil {
		a.log.Error("Event handling failed", zap.String("event", ev.kind()), zap.Error(err))
	}
}
