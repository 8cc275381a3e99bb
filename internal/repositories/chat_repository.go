package repositories

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
)

var (
	ErrChatNotFound  = errors.New("chat not found")
	ErrInvalidChatID = errors.New("invalid chat id")
)

// ChatRepository abstracts chat persistence in the document store.
type ChatRepository interface {
	GetOrCreateDirectChat(ctx context.Context, userID, friendID int) (models.Chat, bool, error)
	CreateGroupChat(ctx context.Context, name string, adminID int, memberIDs []int) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error)
}

// ChatRepo is a mongo implementation of ChatRepository.
type ChatRepo struct {
	chats *mongo.Collection
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(chats *mongo.Collection) *ChatRepo {
	return &ChatRepo{chats: chats}
}

// GetOrCreateDirectChat returns the direct chat between the two users,
// creating it on first contact. Idempotent: calling it twice with the same
// pair returns the same chat. The second return value reports creation.
func (r *ChatRepo) GetOrCreateDirectChat(ctx context.Context, userID, friendID int) (models.Chat, bool, error) {
	if userID == friendID {
		return models.Chat{}, false, errors.New("cannot create chat with self")
	}

	filter := bson.M{
		"is_group": false,
		"members":  bson.M{"$all": []int{userID, friendID}},
	}
	var chat models.Chat
	err := r.chats.FindOne(ctx, filter).Decode(&chat)
	if err == nil {
		return chat, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Chat{}, false, err
	}

	members := []int{userID, friendID}
	sort.Ints(members)
	now := time.Now().UTC()
	chat = models.Chat{
		IsGroup:   false,
		Members:   members,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.chats.InsertOne(ctx, chat)
	if err != nil {
		return models.Chat{}, false, err
	}
	chat.ID = res.InsertedID.(primitive.ObjectID)
	return chat, true, nil
}

// CreateGroupChat stores a new group. The caller is responsible for having
// appended the creator to memberIDs; a group needs at least three members.
func (r *ChatRepo) CreateGroupChat(ctx context.Context, name string, adminID int, memberIDs []int) (models.Chat, error) {
	if len(memberIDs) < 3 {
		return models.Chat{}, errors.New("group chat requires at least 3 members")
	}

	now := time.Now().UTC()
	chat := models.Chat{
		Name:      name,
		IsGroup:   true,
		Members:   memberIDs,
		AdminID:   adminID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	res, err := r.chats.InsertOne(ctx, chat)
	if err != nil {
		return models.Chat{}, err
	}
	chat.ID = res.InsertedID.(primitive.ObjectID)
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	oid, err := primitive.ObjectIDFromHex(chatID)
	if err != nil {
		return models.Chat{}, ErrInvalidChatID
	}
	var chat models.Chat
	err = r.chats.FindOne(ctx, bson.M{"_id": oid}).Decode(&chat)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// ListChatsForUser returns the user's chats newest-activity first. Direct
// chats that never received a message are filtered out; groups always show.
func (r *ChatRepo) ListChatsForUser(ctx context.Context, userID int) ([]models.Chat, error) {
	filter := bson.M{
		"members": userID,
		"$or": []bson.M{
			{"is_group": true},
			{"latest_message": bson.M{"$exists": true}},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cur, err := r.chats.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var chats []models.Chat
	for cur.Next(ctx) {
		var chat models.Chat
		if err := cur.Decode(&chat); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, cur.Err()
}
