package profile

import (
	"EchoAI/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers profile routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.GET("/profile", controllers.Profile(db))
	g.POST("/profile/password", controllers.ChangePassword(db))
}
