package services

import (
	"strings"
	"testing"
)

func TestPersonaPreambleShape(t *testing.T) {
	pre := personaPreamble("")
	if len(pre) != 2 {
		t.Fatalf("expected 2 preamble turns, got %d", len(pre))
	}
	if pre[0].Role != "user" || pre[1].Role != "model" {
		t.Fatalf("expected user then model roles, got %s/%s", pre[0].Role, pre[1].Role)
	}
	if !strings.Contains(pre[0].Text, "[SYSTEM override]") {
		t.Fatalf("expected override marker in first turn")
	}
	if strings.Contains(pre[0].Text, "ADOPT THIS PERSONALITY") {
		t.Fatalf("expected no persona clause without a system prompt")
	}
}

func TestPersonaPreambleWithPersona(t *testing.T) {
	pre := personaPreamble("a pirate captain")
	if !strings.Contains(pre[0].Text, "a pirate captain") {
		t.Fatalf("expected persona text inside the instruction")
	}
}

func TestSanitizeHistory(t *testing.T) {
	in := []ChatMessage{
		{Role: "user", Text: "hello"},
		{Role: "MODEL", Text: "hi"},
		{Role: "assistant", Text: "weird role"},
		{Role: "user", Text: "   "},
		{Role: "model", Text: ""},
	}
	out := sanitizeHistory(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 surviving turns, got %d", len(out))
	}
	if out[1].Role != "model" {
		t.Fatalf("expected role normalized to lowercase, got %q", out[1].Role)
	}
	// unknown roles are coerced to user rather than dropped
	if out[2].Role != "user" {
		t.Fatalf("expected unknown role coerced to user, got %q", out[2].Role)
	}
}

func TestBuildTurnsOrder(t *testing.T) {
	s := NewTextChatService(nil, nil, nil)
	turns := s.buildTurns(TextChatRequest{
		Message: "newest question",
		History: []ChatMessage{{Role: "user", Text: "old question"}, {Role: "model", Text: "old answer"}},
	})
	// preamble (2) + history (2) + new message (1)
	if len(turns) != 5 {
		t.Fatalf("expected 5 turns, got %d", len(turns))
	}
	if turns[4].Text != "newest question" || turns[4].Role != "user" {
		t.Fatalf("expected the new message last, got %+v", turns[4])
	}
	if turns[2].Text != "old question" {
		t.Fatalf("expected history after the preamble, got %+v", turns[2])
	}
}
