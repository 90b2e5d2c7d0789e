package ws

import (
	"context"
	"encoding/json"
	"errors"

	"jobboard/internal/events"
)

var errDeliveryDropped = errors.New("ws delivery dropped")

// Notifier pushes application events to the live connections of both parties.
type Notifier struct {
	hub *Hub
}

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) Publish(_ context.Context, e events.ApplicationEvent) error {
	if n == nil || n.hub == nil {
		return nil
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if !n.hub.SendTo(e.Recipients(), b) {
		return errDeliveryDropped
	}
	return nil
}
