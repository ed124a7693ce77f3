package conversation

import (
	"EchoAI/controllers"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Register registers conversation routes (protected)
func Register(g *gin.RouterGroup, db *gorm.DB) {
	g.POST("/conversations", controllers.CreateConversation(db))
	g.GET("/conversations", controllers.ListConversations(db))
	g.GET("/conversations/:conversation_id", controllers.GetConversationMessages(db))
	g.DELETE("/conversations/:conversation_id", controllers.DeleteConversation(db))
	// Delete all conversations for current user
	g.DELETE("/conversations", controllers.DeleteAllConversations(db))
}
