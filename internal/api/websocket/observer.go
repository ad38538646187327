package websocket

import (
	"github.com/hiloapp/bg-companion/internal/events"
)

// Observer bridges the tracker's event dispatcher onto the hub: every
// accepted event becomes one broadcast frame.
type Observer struct {
	hub *Hub
}

// NewObserver wraps the hub as a dispatcher observer.
func NewObserver(hub *Hub) *Observer {
	return &Observer{hub: hub}
}

func (o *Observer) Name() string { return "websocket-hub" }

// ShouldHandle accepts every tracker event; filtering is the client's job.
func (o *Observer) ShouldHandle(string) bool { return true }

func (o *Observer) OnEvent(event events.Event) error {
	o.hub.Broadcast(Message{Type: event.Type, Data: event.Data})
	return nil
}
