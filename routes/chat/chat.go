package chat

import (
	"EchoAI/controllers"
	"EchoAI/middleware"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register registers text chat routes. Basic rate limiting applies to both.
func Register(r *gin.Engine, text *svc.TextChatService) {
	r.POST("/chat/text", middleware.RateLimit(), controllers.ChatText(text))
	r.POST("/chat/text/stream", middleware.RateLimit(), controllers.ChatTextStream(text))
}
