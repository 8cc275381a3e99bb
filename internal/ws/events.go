package ws

import (
	"encoding/json"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
)

// Client -> server events.
const (
	EventSetup            = "setup"
	EventJoinChat         = "join_chat"
	EventTyping           = "typing"
	EventStopTyping       = "stop_typing"
	EventNewMessage       = "new_message"
	EventReadMessage      = "read_message"
	EventMessageDelivered = "message_delivered"
)

// Server -> client events. "message_recieved" keeps the wire spelling existing
// clients already depend on.
const (
	EventConnected       = "connected"
	EventOnlineUsers     = "online_users"
	EventMessageReceived = "message_recieved"
	EventMessageRead     = "message_read"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
)

// Event is the outbound envelope written to a connection.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// envelope is the inbound frame before its payload is decoded.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type SetupPayload struct {
	UserID int `json:"userId"`
}

type JoinChatPayload struct {
	ChatID string `json:"chatId"`
}

type TypingPayload struct {
	ChatID   string `json:"chatId"`
	UserID   int    `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// NewMessagePayload carries the already-persisted message plus the owning
// chat's member list, so fan-out never needs a store round trip.
type NewMessagePayload struct {
	Message models.Message `json:"message"`
	Members []int          `json:"members"`
}

type ReadMessagePayload struct {
	ChatID string `json:"chatId"`
	UserID int    `json:"userId"`
}

type MessageDeliveredPayload struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    int    `json:"userId"`
}
