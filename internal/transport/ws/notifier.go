package ws

import (
	"context"

	"github.com/vedran77/receptionist/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) AssistantCreated(a *domain.Assistant) {
	n.notify(EventTypeAssistantCreated, a)
}

func (n *HubNotifier) AssistantUpdated(a *domain.Assistant) {
	n.notify(EventTypeAssistantUpdated, a)
}

func (n *HubNotifier) notify(eventType string, a *domain.Assistant) {
	evt, err := NewEvent(eventType, a)
	if err != nil {
		n.hub.log.Error(context.Background(), "marshal event", "type", eventType, "error", err)
		return
	}
	n.hub.Publish(a.OwnerID, evt)
}
