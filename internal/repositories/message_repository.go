package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// MessageRepository defines the durable side of message delivery. MarkDelivered
// and MarkChatRead are idempotent set unions with guarded status upgrades, so
// they tolerate replays and arbitrary interleaving of concurrent acknowledgements.
type MessageRepository interface {
	CreateMessage(ctx context.Context, chatID string, senderID int, text string) (models.Message, error)
	ListChatMessages(ctx context.Context, chatID string) ([]models.Message, error)
	MarkDelivered(ctx context.Context, chatID, messageID string, userID int) error
	MarkChatRead(ctx context.Context, chatID string, readerID int) (int64, error)
}

// MessageRepo is a mongo implementation of MessageRepository. It owns both the
// messages collection and the chats collection so message creation can also
// advance the chat's latest-message pointer.
type MessageRepo struct {
	messages *mongo.Collection
	chats    *mongo.Collection
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(messages, chats *mongo.Collection) *MessageRepo {
	return &MessageRepo{messages: messages, chats: chats}
}

// CreateMessage persists a message with status sent and updates the owning
// chat's latest-message pointer and recency timestamp.
func (r *MessageRepo) CreateMessage(ctx context.Context, chatID string, senderID int, text string) (models.Message, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return models.Message{}, ErrInvalidChatID
	}

	msg := models.Message{
		ChatID:    chatOID,
		SenderID:  senderID,
		Text:      text,
		Status:    models.StatusSent,
		CreatedAt: time.Now().UTC(),
	}
	res, err := r.messages.InsertOne(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}
	msg.ID = res.InsertedID.(primitive.ObjectID)

	update := bson.M{"$set": bson.M{
		"latest_message": msg,
		"updated_at":     msg.CreatedAt,
	}}
	if _, err := r.chats.UpdateByID(ctx, chatOID, update); err != nil {
		return models.Message{}, err
	}
	return msg, nil
}

// ListChatMessages returns the chat history oldest first.
func (r *MessageRepo) ListChatMessages(ctx context.Context, chatID string) ([]models.Message, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return nil, ErrInvalidChatID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.messages.Find(ctx, bson.M{"chat_id": chatOID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, cur.Err()
}

// MarkDelivered records a delivery acknowledgement: the user joins the
// message's deliveredTo set, and a sent message is upgraded to delivered.
// The upgrade is a filtered update, so a message already read stays read.
func (r *MessageRepo) MarkDelivered(ctx context.Context, chatID, messageID string, userID int) error {
	msgOID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return ErrMessageNotFound
	}
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return ErrInvalidChatID
	}

	res, err := r.messages.UpdateOne(ctx,
		bson.M{"_id": msgOID, "chat_id": chatOID},
		bson.M{"$addToSet": bson.M{"delivered_to": userID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMessageNotFound
	}

	// Guarded upgrade: only sent -> delivered. Never touches delivered or read.
	_, err = r.messages.UpdateOne(ctx,
		bson.M{"_id": msgOID, "status": models.StatusSent},
		bson.M{"$set": bson.M{"status": models.StatusDelivered}},
	)
	return err
}

// MarkChatRead adds the reader to seenBy on every message in the chat that the
// reader did not send and has not yet seen, upgrading those messages to read.
// Returns the number of messages touched; replaying the call touches zero.
func (r *MessageRepo) MarkChatRead(ctx context.Context, chatID string, readerID int) (int64, error) {
	chatOID, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return 0, ErrInvalidChatID
	}

	filter := bson.M{
		"chat_id":   chatOID,
		"sender_id": bson.M{"$ne": readerID},
		"seen_by":   bson.M{"$ne": readerID},
	}
	update := bson.M{
		"$addToSet": bson.M{"seen_by": readerID},
		"$set":      bson.M{"status": models.StatusRead},
	}
	res, err := r.messages.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
