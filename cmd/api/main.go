package main

import (
	"context"
	"log"
	"time"

	"relay-chat/config"
	"relay-chat/internal/commands"
	"relay-chat/internal/domain/chat"
	"relay-chat/internal/domain/message"
	"relay-chat/internal/domain/user"
	"relay-chat/internal/handler"
	"relay-chat/internal/proxy"
	"relay-chat/internal/redis"
	"relay-chat/internal/repository"
	"relay-chat/internal/server"
	"relay-chat/internal/services"
	"relay-chat/internal/websocket"
	"relay-chat/pkg/database"
	"relay-chat/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	logMode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		logMode = logger.ProductionMode
	}
	l := logger.New(logMode)
	logger.SetGlobalLogger(l)

	database.Connect(cfg)

	if err := database.DB.AutoMigrate(
		&user.User{},
		&chat.Chat{},
		&chat.Participant{},
		&chat.ReadStatus{},
		&message.Message{},
		&message.Delivery{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	otps := redis.NewOTPStore(redisClient, time.Duration(cfg.OTPExpiryMin)*time.Minute)
	limiter := redis.NewRateLimiter(redisClient, redis.DefaultRateLimitConfig())

	userRepo := repository.NewUserRepository(database.DB)
	chatRepo := repository.NewChatRepository(database.DB)
	messageRepo := repository.NewMessageRepository(database.DB)

	access := proxy.NewAccessControl(chatRepo)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	authService := services.NewAuthService(userRepo, otps, cfg)
	chatService := services.NewChatService(chatRepo, messageRepo, userRepo, access, hub)
	messageService := services.NewMessageService(database.DB, messageRepo, chatRepo, userRepo, access, hub, commands.NewBus())

	handlers := &server.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Chat:    handler.NewChatHandler(chatService),
		Message: handler.NewMessageHandler(messageService),
		Socket:  websocket.NewHandler(authService, access, hub, l),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, authService, limiter)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
