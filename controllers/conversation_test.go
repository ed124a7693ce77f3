package controllers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"EchoAI/middleware"
	"EchoAI/models"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Conversation{}, &models.Message{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func asUser(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserIDKey, uid)
		c.Next()
	}
}

func seedConversation(t *testing.T, db *gorm.DB, owner uint, messages ...string) models.Conversation {
	t.Helper()
	conv := models.Conversation{UserID: owner, Title: "New Chat"}
	if err := db.Create(&conv).Error; err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	for _, content := range messages {
		msg := models.Message{ConversationID: conv.ID, Role: models.RoleUser, Content: content, MsgType: models.MsgTypeText}
		if err := db.Create(&msg).Error; err != nil {
			t.Fatalf("create message: %v", err)
		}
	}
	return conv
}

func messageCount(t *testing.T, db *gorm.DB, conversationID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Message{}).Where("conversation_id = ?", conversationID).Count(&n).Error; err != nil {
		t.Fatalf("count messages: %v", err)
	}
	return n
}

func TestDeleteConversationCascades(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	conv := seedConversation(t, db, 1, "first question", "second question")

	r := gin.New()
	r.Use(asUser("1"))
	r.DELETE("/conversations/:conversation_id", DeleteConversation(db))
	r.GET("/conversations/:conversation_id", GetConversationMessages(db))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/conversations/%d", conv.ID), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected delete to succeed, got %d: %s", w.Code, w.Body.String())
	}

	if n := messageCount(t, db, conv.ID); n != 0 {
		t.Fatalf("expected cascade to remove all messages, %d left", n)
	}

	// fetching the deleted conversation yields nothing
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/conversations/%d", conv.ID), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected fetch after delete to return not found, got %d", w.Code)
	}
}

func TestDeleteConversationEnforcesOwner(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	conv := seedConversation(t, db, 1, "keep me")

	r := gin.New()
	r.Use(asUser("2"))
	r.DELETE("/conversations/:conversation_id", DeleteConversation(db))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/conversations/%d", conv.ID), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected delete by non-owner rejected, got %d", w.Code)
	}
	if n := messageCount(t, db, conv.ID); n != 1 {
		t.Fatalf("expected messages untouched, %d left", n)
	}
}

func TestDeleteAllConversations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := openTestDB(t)
	c1 := seedConversation(t, db, 1, "a", "b")
	c2 := seedConversation(t, db, 1, "c")
	other := seedConversation(t, db, 2, "not mine")

	r := gin.New()
	r.Use(asUser("1"))
	r.DELETE("/conversations", DeleteAllConversations(db))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/conversations", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected wipe to succeed, got %d", w.Code)
	}

	if n := messageCount(t, db, c1.ID) + messageCount(t, db, c2.ID); n != 0 {
		t.Fatalf("expected caller's messages removed, %d left", n)
	}
	if n := messageCount(t, db, other.ID); n != 1 {
		t.Fatalf("expected other user's conversation untouched, %d left", n)
	}
}
