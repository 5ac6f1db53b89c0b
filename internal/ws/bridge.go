package ws

import (
	"flockd/internal/service"
)

// Envelope is the wire frame pushed to connected clients.
type Envelope struct {
	Type      string              `json:"type"`
	ChannelID int64               `json:"channel_id,omitempty"`
	Message   service.MessageView `json:"message"`
}

// EventBridge adapts the hub to the service layer's event sink.
type EventBridge struct {
	hub *Hub
}

func NewEventBridge(hub *Hub) *EventBridge {
	return &EventBridge{hub: hub}
}

func (b *EventBridge) MessagePosted(channelID int64, recipients []int64, msg service.MessageView) {
	b.hub.BroadcastToUsers(recipients, Envelope{
		Type:      "message.created",
		ChannelID: channelID,
		Message:   msg,
	})
}

func (b *EventBridge) MessageBroadcast(msg service.MessageView) {
	b.hub.BroadcastAll(Envelope{
		Type:    "message.broadcast",
		Message: msg,
	})
}
