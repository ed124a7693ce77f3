package controllers

import (
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"EchoAI/middleware"
	"EchoAI/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func currentUserID(c *gin.Context) uint {
	userIDStr, _ := c.Get(middleware.ContextUserIDKey)
	uidStr, _ := userIDStr.(string)
	uid, _ := strconv.Atoi(uidStr)
	return uint(uid)
}

// CreateConversation creates an empty conversation owned by the caller.
func CreateConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		var body struct {
			Title string `json:"title"`
		}
		_ = c.ShouldBindJSON(&body)
		title := strings.TrimSpace(body.Title)
		if title == "" {
			title = "New Chat"
		}

		conv := models.Conversation{UserID: uid, Title: title}
		if err := db.Create(&conv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to create conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "conversation_id": conv.ID})
	}
}

// ListConversations returns the caller's conversations, most recent first.
func ListConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		limit := 20
		if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
			limit = v
		}

		var convs []models.Conversation
		if err := db.Where("user_id = ?", uid).Order("updated_at DESC").Limit(limit).Find(&convs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "db error"})
			return
		}

		result := make([]gin.H, 0, len(convs))
		for _, conv := range convs {
			result = append(result, gin.H{
				"id":         conv.ID,
				"title":      conv.Title,
				"created_at": conv.CreatedAt,
				"updated_at": conv.UpdatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"conversations": result})
	}
}

// GetConversationMessages returns all messages of a conversation in
// chronological order. An ownership mismatch is deliberately logged, not
// enforced.
func GetConversationMessages(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)
		cid, _ := strconv.Atoi(c.Param("conversation_id"))

		var conv models.Conversation
		if err := db.First(&conv, cid).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "conversation not found"})
			return
		}
		if conv.UserID != uid {
			log.Printf("[conversation] WARNING owner mismatch on %d: owner=%d request=%d", conv.ID, conv.UserID, uid)
		}

		var msgs []models.Message
		if err := db.Where("conversation_id = ?", conv.ID).Find(&msgs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "db error"})
			return
		}
		sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].Timestamp.Before(msgs[j].Timestamp) })

		messages := make([]gin.H, 0, len(msgs))
		for _, m := range msgs {
			messages = append(messages, gin.H{
				"role":      m.Role,
				"text":      m.Content,
				"type":      m.MsgType,
				"timestamp": m.Timestamp,
			})
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	}
}

// DeleteConversation removes a conversation and all of its messages. Ownership
// is enforced here, unlike message retrieval.
func DeleteConversation(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)
		cid, _ := strconv.Atoi(c.Param("conversation_id"))

		var conv models.Conversation
		if err := db.Where("id = ? AND user_id = ?", cid, uid).First(&conv).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "conversation not found"})
			return
		}

		// cascade: messages first, then the conversation itself
		if err := db.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete messages"})
			return
		}
		if err := db.Delete(&conv).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete conversation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// DeleteAllConversations wipes every conversation of the caller.
func DeleteAllConversations(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := currentUserID(c)

		var convs []models.Conversation
		if err := db.Where("user_id = ?", uid).Find(&convs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "db error"})
			return
		}
		for _, conv := range convs {
			if err := db.Where("conversation_id = ?", conv.ID).Delete(&models.Message{}).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete messages"})
				return
			}
		}
		if err := db.Where("user_id = ?", uid).Delete(&models.Conversation{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to delete conversations"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "deleted": len(convs)})
	}
}
