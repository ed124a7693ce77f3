package main

import (
	"EchoAI/middleware"
	"EchoAI/models"
	"EchoAI/pkg/cache"
	"EchoAI/pkg/config"
	"EchoAI/pkg/observability"
	svc "EchoAI/pkg/services"
	"EchoAI/pkg/tasks"
	"EchoAI/routes"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	// config init via package init()

	db, err := gorm.Open(mysql.Open(config.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	// auto-migrate
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		log.Fatalf("failed migrate: %v", err)
	}

	middleware.SetRateLimitConfig(
		time.Duration(config.RateLimitWindowSeconds)*time.Second,
		config.RateLimitCapacity,
		config.UserConcurrencyLimit,
	)
	middleware.SetDuplicateTTL(time.Duration(config.DuplicateWindowSeconds) * time.Second)
	cache.SetMaxItems(config.ChatCacheMaxItems)

	gem := svc.NewGeminiClient()
	runner := tasks.NewRunner(config.TitleWorkers, 64)
	defer runner.Close()
	metrics := observability.NewMetrics("echoai")

	deps := routes.Deps{
		DB:        db,
		Text:      svc.NewTextChatService(db, gem, runner).WithMetrics(metrics),
		Voice:     svc.NewVoiceChatService().WithMetrics(metrics),
		OCR:       svc.NewOCRService(gem),
		Translate: svc.NewTranslateService(gem),
		Metrics:   metrics,
	}

	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173", "http://127.0.0.1:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.Metrics(deps.Metrics))

	routes.RegisterRoutes(r, deps)
	r.Run(":" + config.Port)
}
