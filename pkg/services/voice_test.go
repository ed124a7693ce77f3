package services

import (
	"encoding/base64"
	"errors"
	"testing"

	"EchoAI/pkg/audio"
	"EchoAI/pkg/live"
)

func TestComposeTurnsNoInput(t *testing.T) {
	s := NewVoiceChatService()
	_, err := s.composeTurns(VoiceChatRequest{Message: "   "})
	if !errors.Is(err, live.ErrNoInput) {
		t.Fatalf("expected ErrNoInput for blank request, got %v", err)
	}
}

func TestComposeTurnsBadBase64(t *testing.T) {
	s := NewVoiceChatService()
	_, err := s.composeTurns(VoiceChatRequest{AudioBase64: "!!not-base64!!"})
	if err == nil {
		t.Fatalf("expected decode error for malformed audio input")
	}
}

func TestComposeTurnsTextOnly(t *testing.T) {
	s := NewVoiceChatService()
	turns, err := s.composeTurns(VoiceChatRequest{Message: "hello", Language: "en"})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	// preamble (2) + user turn (1)
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	last := turns[len(turns)-1]
	if last.Role != "user" || len(last.Parts) != 1 || last.Parts[0].Text != "hello" {
		t.Fatalf("unexpected user turn: %+v", last)
	}
}

func TestComposeTurnsStripsWAVHeader(t *testing.T) {
	pcm := []byte{9, 9, 9, 9, 9, 9, 9, 9}
	wav := audio.WrapWAV(pcm, audio.DefaultFormat())

	s := NewVoiceChatService()
	turns, err := s.composeTurns(VoiceChatRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(wav),
		MimeType:    "audio/wav",
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	last := turns[len(turns)-1]
	if len(last.Parts) != 1 {
		t.Fatalf("expected one audio part, got %d", len(last.Parts))
	}
	got := last.Parts[0].AudioData
	if len(got) != len(pcm) {
		t.Fatalf("expected container header stripped, got %d bytes", len(got))
	}
	if last.Parts[0].MimeType != inputAudioMIME {
		t.Fatalf("expected input MIME %q, got %q", inputAudioMIME, last.Parts[0].MimeType)
	}
}

func TestComposeTurnsKeepsRawPCM(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	s := NewVoiceChatService()
	turns, err := s.composeTurns(VoiceChatRequest{
		AudioBase64: base64.StdEncoding.EncodeToString(pcm),
		MimeType:    "audio/pcm;rate=16000",
	})
	if err != nil {
		t.Fatalf("compose failed: %v", err)
	}
	last := turns[len(turns)-1]
	if len(last.Parts[0].AudioData) != len(pcm) {
		t.Fatalf("expected raw PCM kept intact")
	}
}

func TestVoicePreambleDefaultsLanguage(t *testing.T) {
	pre := voicePreamble("")
	if len(pre) != 2 {
		t.Fatalf("expected 2 preamble turns, got %d", len(pre))
	}
	if pre[0].Role != "user" || pre[1].Role != "model" {
		t.Fatalf("expected user then model roles")
	}
}
