package voicechat

import (
	"EchoAI/controllers"
	"EchoAI/middleware"
	"EchoAI/pkg/observability"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register registers the voice chat and TTS routes.
func Register(r *gin.Engine, voice *svc.VoiceChatService, metrics *observability.Metrics) {
	r.POST("/chat/voice", middleware.RateLimit(), controllers.ChatVoice(voice, metrics))
	r.POST("/tts", middleware.RateLimit(), controllers.TextToSpeech(voice, metrics))
}
