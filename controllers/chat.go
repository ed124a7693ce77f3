package controllers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"EchoAI/middleware"
	"EchoAI/pkg/cache"
	"EchoAI/pkg/config"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

// wireTurn is the history shape the front end sends: ordered parts of text.
type wireTurn struct {
	Role  string `json:"role"`
	Parts []struct {
		Text string `json:"text"`
	} `json:"parts"`
}

func historyFromWire(turns []wireTurn) []svc.ChatMessage {
	out := make([]svc.ChatMessage, 0, len(turns))
	for _, t := range turns {
		texts := make([]string, 0, len(t.Parts))
		for _, p := range t.Parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		if len(texts) == 0 {
			continue
		}
		out = append(out, svc.ChatMessage{Role: t.Role, Text: strings.Join(texts, " ")})
	}
	return out
}

func callerKey(c *gin.Context) string {
	userIDStr, _ := c.Get(middleware.ContextUserIDKey)
	if uid, ok := userIDStr.(string); ok && uid != "" {
		return uid
	}
	return c.ClientIP()
}

type chatTextBody struct {
	Message        string     `json:"message"`
	History        []wireTurn `json:"history"`
	SystemPrompt   string     `json:"system_prompt"`
	ConversationID *uint      `json:"conversation_id"`
}

// ChatText handles the single-shot text chat endpoint.
func ChatText(text *svc.TextChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if text == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		var body chatTextBody
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
			return
		}
		if !middleware.DuplicateGuard(callerKey(c), body.Message) {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "duplicate message, please wait"})
			return
		}

		req := svc.TextChatRequest{
			Message:        body.Message,
			History:        historyFromWire(body.History),
			SystemPrompt:   body.SystemPrompt,
			ConversationID: body.ConversationID,
		}

		// stateless asks are served from cache when possible
		var ck string
		if len(req.History) == 0 && req.ConversationID == nil && req.SystemPrompt == "" {
			ck = cache.KeyFromStrings("chat-final", callerKey(c), strings.ToLower(strings.TrimSpace(body.Message)))
			if v, ok := cache.Default().Get(ck); ok {
				if cached, ok2 := v.(string); ok2 && cached != "" {
					c.JSON(http.StatusOK, gin.H{"success": true, "text": cached})
					return
				}
			}
		}

		resp, err := text.ChatText(c.Request.Context(), req)
		if err != nil {
			log.Printf("[chat] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}

		if ck != "" && resp != "" {
			cache.Default().Set(ck, resp, time.Duration(config.ChatCacheTTLSeconds)*time.Second)
		}

		// first message of a conversation triggers the detached title task
		if body.ConversationID != nil && len(body.History) == 0 {
			text.ScheduleTitle(*body.ConversationID, body.Message)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "text": resp})
	}
}

// ChatTextStream streams the reply over SSE:
// - event: delta (multiple) with partial text chunks
// - event: done (once) when finished
func ChatTextStream(text *svc.TextChatService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if text == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		var body chatTextBody
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Message) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
			return
		}
		if !middleware.DuplicateGuard(callerKey(c), body.Message) {
			c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "error": "duplicate message, please wait"})
			return
		}

		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no") // nginx buffering off

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.String(http.StatusInternalServerError, "streaming unsupported")
			return
		}

		req := svc.TextChatRequest{
			Message:        body.Message,
			History:        historyFromWire(body.History),
			SystemPrompt:   body.SystemPrompt,
			ConversationID: body.ConversationID,
		}

		onDelta := func(chunk string) {
			esc := strings.ReplaceAll(chunk, "\n", "\\n")
			fmt.Fprintf(c.Writer, "event: delta\n")
			fmt.Fprintf(c.Writer, "data: %s\n\n", esc)
			flusher.Flush()
		}

		if _, err := text.StreamChatText(c.Request.Context(), req, onDelta); err != nil {
			log.Printf("[chat] stream error: %v", err)
			fmt.Fprintf(c.Writer, "event: error\n")
			fmt.Fprintf(c.Writer, "data: %s\n\n", strings.ReplaceAll(err.Error(), "\n", " "))
			flusher.Flush()
			return
		}

		if body.ConversationID != nil && len(body.History) == 0 {
			text.ScheduleTitle(*body.ConversationID, body.Message)
		}

		fmt.Fprintf(c.Writer, "event: done\n")
		fmt.Fprintf(c.Writer, "data: {\"ok\": true}\n\n")
		flusher.Flush()
	}
}
