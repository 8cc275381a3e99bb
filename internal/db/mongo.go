package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ChatsCollection    = "chats"
	MessagesCollection = "messages"
)

// ConnectMongo opens the document store holding chats and messages.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client.Database(dbName), nil
}

// EnsureIndexes configures the indexes backing chat listing and history pagination.
// Called on startup once Mongo has connected.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	chatIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "members", Value: 1},
				{Key: "updated_at", Value: -1},
			},
			Options: options.Index().SetName("idx_members_updated"),
		},
	}
	if _, err := database.Collection(ChatsCollection).Indexes().CreateMany(ctx, chatIndexes); err != nil {
		return err
	}

	messageIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "chat_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_chat_created"),
		},
	}
	if _, err := database.Collection(MessagesCollection).Indexes().CreateMany(ctx, messageIndexes); err != nil {
		return err
	}
	return nil
}
