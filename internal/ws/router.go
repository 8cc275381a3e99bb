package ws

import (
	"context"
	"log"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/observability"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
)

// DeliveryRouter turns one client-originated event into directed pushes to
// other connections, plus the durable mutation when the event implies a
// status change. No retries and no queue: a member who is offline at push
// time recovers by fetching history over REST.
type DeliveryRouter struct {
	hub      *Hub
	messages repositories.MessageRepository
}

// NewDeliveryRouter constructs a DeliveryRouter.
func NewDeliveryRouter(hub *Hub, messages repositories.MessageRepository) *DeliveryRouter {
	return &DeliveryRouter{hub: hub, messages: messages}
}

// HandleNewMessage fans the already-persisted message out to every chat
// member except the sender, skipping members with no presence entry.
func (r *DeliveryRouter) HandleNewMessage(sender *Session, p NewMessagePayload) {
	senderID := p.Message.SenderID
	ev := Event{Event: EventMessageReceived, Data: p.Message}

	for _, memberID := range p.Members {
		if memberID == senderID {
			continue
		}
		if r.hub.PushToUser(memberID, ev) {
			observability.IncWSEvent(EventMessageReceived)
		}
	}
}

// HandleTyping broadcasts the typing signal to the chat room except the
// sender. Ephemeral: nothing is persisted and delivery is at most once.
func (r *DeliveryRouter) HandleTyping(sender *Session, p TypingPayload) {
	r.hub.BroadcastToRoom(p.ChatID, sender.Info.ConnID, Event{Event: EventTyping, Data: p})
}

// HandleStopTyping clears the typing signal for the room.
func (r *DeliveryRouter) HandleStopTyping(sender *Session, p TypingPayload) {
	r.hub.BroadcastToRoom(p.ChatID, sender.Info.ConnID, Event{Event: EventStopTyping, Data: p})
}

// HandleReadMessage marks every unseen message in the chat as read by the
// reader, then tells the room. If the store write fails the broadcast is
// skipped: senders keep their stale status and recover on the next fetch.
func (r *DeliveryRouter) HandleReadMessage(ctx context.Context, sender *Session, p ReadMessagePayload) {
	if _, err := r.messages.MarkChatRead(ctx, p.ChatID, p.UserID); err != nil {
		log.Printf("read_message: mark chat %s read by %d failed: %v", p.ChatID, p.UserID, err)
		return
	}
	r.hub.BroadcastToRoom(p.ChatID, sender.Info.ConnID, Event{Event: EventMessageRead, Data: p})
}

// HandleMessageDelivered records one delivery acknowledgement and tells the
// room so the sender can upgrade its UI status. Same fire-and-forget rule as
// read receipts on store failure.
func (r *DeliveryRouter) HandleMessageDelivered(ctx context.Context, sender *Session, p MessageDeliveredPayload) {
	if err := r.messages.MarkDelivered(ctx, p.ChatID, p.MessageID, p.UserID); err != nil {
		log.Printf("message_delivered: mark %s delivered to %d failed: %v", p.MessageID, p.UserID, err)
		return
	}
	r.hub.BroadcastToRoom(p.ChatID, sender.Info.ConnID, Event{Event: EventMessageDelivered, Data: p})
}
