package ws

import (
	"log"

	"github.com/vvasilje/murmur/internal/domain"
)

// HubNotifier implements service.Notifier on top of the Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) MessageCreated(msg *domain.Message) {
	n.publish(EventTypeMessageNew, MessagesTopic(ScopeChannel, msg.ChannelID), msg)
}

func (n *HubNotifier) MessageDeleted(msg *domain.Message) {
	n.publish(EventTypeMessageDeleted, DeletesTopic(ScopeChannel, msg.ChannelID), msg)
}

func (n *HubNotifier) DirectMessageCreated(msg *domain.DirectMessage) {
	n.publish(EventTypeMessageNew, MessagesTopic(ScopeConversation, msg.ConversationID), msg)
}

func (n *HubNotifier) DirectMessageDeleted(msg *domain.DirectMessage) {
	n.publish(EventTypeMessageDeleted, DeletesTopic(ScopeConversation, msg.ConversationID), msg)
}

func (n *HubNotifier) publish(eventType, topic string, payload any) {
	evt, err := NewEvent(eventType, topic, payload)
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.Publish(topic, evt)
}
