package routes

import (
	"net/http"

	"EchoAI/middleware"
	"EchoAI/pkg/observability"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	authRoutes "EchoAI/routes/auth"
	chatRoutes "EchoAI/routes/chat"
	convRoutes "EchoAI/routes/conversation"
	profileRoutes "EchoAI/routes/profile"
	toolsRoutes "EchoAI/routes/tools"
	voiceRoutes "EchoAI/routes/voicechat"
)

// Deps carries the process-scoped handles built once at startup.
type Deps struct {
	DB        *gorm.DB
	Text      *svc.TextChatService
	Voice     *svc.VoiceChatService
	OCR       *svc.OCRService
	Translate *svc.TranslateService
	Metrics   *observability.Metrics
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"msg": "EchoAI chat gateway running"})
	})
	r.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	authRoutes.RegisterPublic(r, deps.DB)

	// chat, voice, OCR and translation work without login; history is only
	// persisted when a conversation id is supplied
	chatRoutes.Register(r, deps.Text)
	voiceRoutes.Register(r, deps.Voice, deps.Metrics)
	toolsRoutes.Register(r, deps.OCR, deps.Translate)

	protected := r.Group("/")
	protected.Use(middleware.AuthMiddleware())
	authRoutes.RegisterProtected(protected)
	profileRoutes.Register(protected, deps.DB)
	convRoutes.Register(protected, deps.DB)
}
