package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/auth"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/config"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/db"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/handlers"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/middleware"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/observability"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/rabbitmq"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/repositories"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/telemetry"
	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/ws"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pg.Close()

	mongoDB, err := db.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	if err := db.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Printf("failed to ensure mongo indexes: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	observability.SetPublisher(publisher)
	auditEmitter := telemetry.NewAuditEmitter(publisher, "audit.logs", "messaging-service", cfg.Environment)

	userRepo := repositories.NewUserRepo(pg)
	chatRepo := repositories.NewChatRepo(mongoDB.Collection(db.ChatsCollection))
	messageRepo := repositories.NewMessageRepo(
		mongoDB.Collection(db.MessagesCollection),
		mongoDB.Collection(db.ChatsCollection),
	)

	tokens := auth.NewManager(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	presence := ws.NewPresenceRegistry()
	hub := ws.NewHub(presence)
	deliveryRouter := ws.NewDeliveryRouter(hub, messageRepo)
	wsHandler := ws.NewHandler(hub, deliveryRouter)

	authHandler := handlers.NewAuthHandler(userRepo, tokens, cfg.CookieSecure, auditEmitter)
	userHandler := handlers.NewUserHandler(userRepo)
	chatHandler := handlers.NewChatHandler(chatRepo, userRepo, auditEmitter)
	messageHandler := handlers.NewMessageHandler(chatRepo, messageRepo, auditEmitter)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.AuthMiddleware(tokens)

	api := router.Group("/api")
	{
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authMiddleware, authHandler.Logout)
		api.POST("/auth/refresh-token", authHandler.Refresh)
		api.GET("/auth", authMiddleware, userHandler.Search)

		api.POST("/chats", authMiddleware, chatHandler.AccessChat)
		api.GET("/chats", authMiddleware, chatHandler.ListChats)
		api.POST("/chats/group", authMiddleware, chatHandler.CreateGroupChat)

		api.POST("/messages", authMiddleware, messageHandler.SendMessage)
		api.GET("/messages/:chatId", authMiddleware, messageHandler.GetMessages)
	}

	router.GET("/ws", wsHandler.Handle)

	handlers.RegisterDebugRoutes(router, auditEmitter, cfg.DebugRoutes)

	log.Printf("amqp publisher mode: %s", rabbitmq.PublisherMode(publisher))
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
