package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chat is one conversation document. A direct chat has exactly two members;
// a group chat has a name, an admin and at least three members.
type Chat struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name,omitempty" json:"name,omitempty"`
	IsGroup       bool               `bson:"is_group" json:"is_group"`
	Members       []int              `bson:"members" json:"members"`
	AdminID       int                `bson:"admin_id,omitempty" json:"admin_id,omitempty"`
	LatestMessage *Message           `bson:"latest_message,omitempty" json:"latest_message,omitempty"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at" json:"updated_at"`
}

// HasMember reports whether the user participates in the chat.
func (c Chat) HasMember(userID int) bool {
	for _, id := range c.Members {
		if id == userID {
			return true
		}
	}
	return false
}
