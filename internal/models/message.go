package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageStatus is the global delivery state of a message. It only ever moves
// forward along sent -> delivered -> read, regardless of event arrival order.
type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

var statusRank = map[MessageStatus]int{
	StatusSent:      0,
	StatusDelivered: 1,
	StatusRead:      2,
}

// Rank returns the position of the status in the sent/delivered/read order.
// Unknown statuses rank below sent so they can always be upgraded.
func (s MessageStatus) Rank() int {
	if r, ok := statusRank[s]; ok {
		return r
	}
	return -1
}

// UpgradeStatus returns the higher-ranked of the two statuses. Both durable
// mutation paths (delivery and read acknowledgements) go through this single
// guard so a late delivered event can never regress a read message.
func UpgradeStatus(current, next MessageStatus) MessageStatus {
	if next.Rank() > current.Rank() {
		return next
	}
	return current
}

// Message is one document in the messages collection. Text is immutable after
// creation; SeenBy and DeliveredTo grow only by idempotent set union.
type Message struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ChatID      primitive.ObjectID `bson:"chat_id" json:"chat_id"`
	SenderID    int                `bson:"sender_id" json:"sender_id"`
	Text        string             `bson:"text" json:"text"`
	Status      MessageStatus      `bson:"status" json:"status"`
	DeliveredTo []int              `bson:"delivered_to,omitempty" json:"delivered_to,omitempty"`
	SeenBy      []int              `bson:"seen_by,omitempty" json:"seen_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}
