package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"EchoAI/models"
	"EchoAI/pkg/config"
	"EchoAI/pkg/observability"
	"EchoAI/pkg/tasks"
	utils "EchoAI/pkg/utills"

	"gorm.io/gorm"
)

const baseInstruction = "You are a helpful conversational assistant. Stay in character for the persona you are given. IMPORTANT: You must ALWAYS reply in the SAME LANGUAGE as the user's last message."

// TextChatService handles single-shot text chat, message persistence, and the
// detached title-generation side task.
type TextChatService struct {
	db      *gorm.DB
	gem     *GeminiClient
	runner  *tasks.Runner
	metrics *observability.Metrics
}

func NewTextChatService(db *gorm.DB, gem *GeminiClient, runner *tasks.Runner) *TextChatService {
	return &TextChatService{db: db, gem: gem, runner: runner}
}

// WithMetrics attaches side-task instrumentation. Optional; nil-safe without it.
func (s *TextChatService) WithMetrics(m *observability.Metrics) *TextChatService {
	s.metrics = m
	return s
}

type TextChatRequest struct {
	Message        string
	History        []ChatMessage
	SystemPrompt   string
	ConversationID *uint
}

// personaPreamble builds the fixed two-turn override exchange placed ahead of
// the real history.
func personaPreamble(systemPrompt string) []ChatMessage {
	instruction := baseInstruction
	if sp := strings.TrimSpace(systemPrompt); sp != "" {
		instruction = fmt.Sprintf("%s ALSO, ADOPT THIS PERSONALITY: %s", baseInstruction, sp)
	}
	return []ChatMessage{
		{Role: "user", Text: fmt.Sprintf("[SYSTEM override]: %s. Confirm understanding.", instruction)},
		{Role: "model", Text: "Understood. I will adopt the requested personality and always answer in the language of the user's last message."},
	}
}

// sanitizeHistory keeps only well-formed text turns with a known role.
func sanitizeHistory(history []ChatMessage) []ChatMessage {
	out := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "model" {
			role = "user"
		}
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		out = append(out, ChatMessage{Role: role, Text: m.Text})
	}
	return out
}

func (s *TextChatService) buildTurns(req TextChatRequest) []ChatMessage {
	turns := personaPreamble(req.SystemPrompt)
	turns = append(turns, sanitizeHistory(req.History)...)
	turns = append(turns, ChatMessage{Role: "user", Text: req.Message})
	return turns
}

// ChatText runs one request/response cycle and persists both sides of the
// exchange when a conversation id is supplied.
func (s *TextChatService) ChatText(ctx context.Context, req TextChatRequest) (string, error) {
	resp, err := s.gem.GenerateWithChat(ctx, s.buildTurns(req))
	if err != nil {
		return "", err
	}
	resp = strings.TrimSpace(resp)
	s.persistExchange(req.ConversationID, req.Message, resp, models.MsgTypeText)
	return resp, nil
}

// StreamChatText is the SSE-backed variant; the final text is persisted once
// the stream ends.
func (s *TextChatService) StreamChatText(ctx context.Context, req TextChatRequest, onDelta func(string)) (string, error) {
	resp, err := s.gem.StreamWithChat(ctx, s.buildTurns(req), onDelta)
	if err != nil {
		return resp, err
	}
	resp = strings.TrimSpace(resp)
	s.persistExchange(req.ConversationID, req.Message, resp, models.MsgTypeText)
	return resp, nil
}

// persistExchange appends the user and model messages and touches the
// conversation timestamp. Best-effort: storage faults are logged, the primary
// response is never blocked on them.
func (s *TextChatService) persistExchange(conversationID *uint, userText, modelText, msgType string) {
	if s.db == nil || conversationID == nil {
		return
	}
	now := time.Now()
	userMsg := models.Message{ConversationID: *conversationID, Role: models.RoleUser, Content: userText, MsgType: msgType, Timestamp: now}
	if err := s.db.Create(&userMsg).Error; err != nil {
		log.Printf("[text] failed to save user message: %v", err)
		return
	}
	modelMsg := models.Message{ConversationID: *conversationID, Role: models.RoleModel, Content: modelText, MsgType: msgType, Timestamp: now}
	if err := s.db.Create(&modelMsg).Error; err != nil {
		log.Printf("[text] failed to save model message: %v", err)
	}
	if err := s.db.Model(&models.Conversation{}).
		Where("id = ?", *conversationID).
		Update("updated_at", now).Error; err != nil {
		log.Printf("[text] failed to touch conversation %d: %v", *conversationID, err)
	}
}

// ScheduleTitle spawns the best-effort title-generation task for a freshly
// started conversation. The caller never observes its outcome.
func (s *TextChatService) ScheduleTitle(conversationID uint, firstUserMsg string) {
	s.runner.Submit("title-generation", func() error {
		err := s.generateSummaryTitle(conversationID, firstUserMsg)
		if s.metrics != nil {
			result := "ok"
			if err != nil {
				result = "error"
			}
			s.metrics.TitleTasks.WithLabelValues(result).Inc()
		}
		return err
	})
}

func (s *TextChatService) generateSummaryTitle(conversationID uint, firstUserMsg string) error {
	if s.db == nil {
		return fmt.Errorf("no database")
	}
	title := utils.TruncateForTitle(firstUserMsg, config.TitleMaxChars)
	if title == "" {
		return nil
	}
	return s.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("title", title).Error
}
