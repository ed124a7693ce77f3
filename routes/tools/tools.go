package tools

import (
	"EchoAI/controllers"
	"EchoAI/middleware"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

// Register registers OCR and translation routes.
func Register(r *gin.Engine, ocr *svc.OCRService, tr *svc.TranslateService) {
	r.POST("/tools/ocr", middleware.RateLimit(), controllers.OCR(ocr))
	r.POST("/tools/translate", middleware.RateLimit(), controllers.Translate(tr))
}
