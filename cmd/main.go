package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"israel4u/backend/internal/api/handler"
	"israel4u/backend/internal/auth"
	"israel4u/backend/internal/chat"
	"israel4u/backend/internal/chathub"
	"israel4u/backend/internal/config"
	"israel4u/backend/internal/models"
	"israel4u/backend/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting Israel4U Backend...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	chatService := chat.NewService(s)
	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)

	hub := chathub.NewManagerService(s, chatService)
	go hub.Run()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:3001"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	h := handler.NewHandler(hub, chatService, authService, s)

	api := r.Group("/api")
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	protected := api.Group("")
	protected.Use(h.RequireAuth())
	protected.GET("/chats", h.GetConversations)
	protected.POST("/chats/user/:userId", h.CreateConversation)
	protected.GET("/chats/:conversationId", h.GetMessages)
	protected.POST("/chats/:conversationId", h.SendMessage)
	protected.PUT("/chats/:conversationId/read", h.MarkAsRead)
	protected.GET("/users/online", h.OnlineUsers)

	r.GET("/ws", h.ServeWebSocket)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
