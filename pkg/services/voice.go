package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"time"

	"EchoAI/pkg/audio"
	"EchoAI/pkg/config"
	"EchoAI/pkg/live"
	"EchoAI/pkg/observability"
)

const (
	defaultVoice   = "Charon"
	inputAudioMIME = "audio/pcm;rate=16000"
)

// VoiceChatService executes one duplex audio/text exchange per call on a fresh
// live connection. No connection is reused across calls.
type VoiceChatService struct {
	apiKey         string
	model          string
	endpoint       string // empty outside tests
	setupTimeout   time.Duration
	receiveTimeout time.Duration
	ttsTimeout     time.Duration
	metrics        *observability.Metrics
}

func NewVoiceChatService() *VoiceChatService {
	return &VoiceChatService{
		apiKey:         config.GeminiAPIKey,
		model:          config.GeminiLiveModel,
		setupTimeout:   time.Duration(config.LiveSetupTimeoutSeconds) * time.Second,
		receiveTimeout: time.Duration(config.LiveReceiveTimeoutSeconds) * time.Second,
		ttsTimeout:     time.Duration(config.TTSReceiveTimeoutSeconds) * time.Second,
	}
}

// WithMetrics attaches session instrumentation. Optional; nil-safe without it.
func (s *VoiceChatService) WithMetrics(m *observability.Metrics) *VoiceChatService {
	s.metrics = m
	return s
}

// dial opens the session and records setup latency when instrumented.
func (s *VoiceChatService) dial(ctx context.Context, cfg live.Config) (*live.Session, error) {
	t0 := time.Now()
	sess, err := live.Dial(ctx, cfg)
	if err == nil && s.metrics != nil {
		s.metrics.ObserveLiveSetup(time.Since(t0))
	}
	return sess, err
}

type VoiceChatRequest struct {
	Message     string
	Voice       string
	Language    string
	History     []ChatMessage
	AudioBase64 string
	MimeType    string
}

type VoiceChatResult struct {
	Text string
	WAV  []byte
}

// voicePreamble is the spoken-mode counterpart of the text persona preamble.
func voicePreamble(language string) []live.Turn {
	if language == "" {
		language = "vi"
	}
	return []live.Turn{
		{Role: "user", Parts: []live.TurnPart{{Text: fmt.Sprintf("SYSTEM COMMAND: You are a natural voice assistant. Keep answers conversational and concise. IMPORTANT: You must answer in %s language.", language)}}},
		{Role: "model", Parts: []live.TurnPart{{Text: fmt.Sprintf("UNDERSTOOD. I will answer conversationally and only in %s.", language)}}},
	}
}

// composeTurns assembles preamble + sanitized text history + the new user turn.
// Audio input is base64-decoded and its WAV container header stripped when the
// declared MIME says it carries one.
func (s *VoiceChatService) composeTurns(req VoiceChatRequest) ([]live.Turn, error) {
	var userParts []live.TurnPart
	if msg := strings.TrimSpace(req.Message); msg != "" {
		userParts = append(userParts, live.TurnPart{Text: msg})
	}
	if req.AudioBase64 != "" {
		raw, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			return nil, fmt.Errorf("voice: decode audio input: %w", err)
		}
		if strings.Contains(strings.ToLower(req.MimeType), "wav") && audio.HasWAVHeader(raw) {
			raw = audio.StripWAVHeader(raw)
		}
		if len(raw) > 0 {
			userParts = append(userParts, live.TurnPart{AudioData: raw, MimeType: inputAudioMIME})
		}
	}
	if len(userParts) == 0 {
		return nil, live.ErrNoInput
	}

	turns := voicePreamble(req.Language)
	for _, m := range sanitizeHistory(req.History) {
		turns = append(turns, live.Turn{Role: m.Role, Parts: []live.TurnPart{{Text: m.Text}}})
	}
	turns = append(turns, live.Turn{Role: "user", Parts: userParts})
	return turns, nil
}

// ChatWithVoice runs the full session cycle: connect, setup, send, collect,
// package. Any fault after setup surfaces as a failure; partial responses from
// timeouts are packaged, not raised.
func (s *VoiceChatService) ChatWithVoice(ctx context.Context, req VoiceChatRequest) (VoiceChatResult, error) {
	turns, err := s.composeTurns(req)
	if err != nil {
		return VoiceChatResult{}, err
	}

	voice := req.Voice
	if voice == "" {
		voice = defaultVoice
	}
	sess, err := s.dial(ctx, live.Config{
		APIKey:         s.apiKey,
		Model:          s.model,
		Voice:          voice,
		Endpoint:       s.endpoint,
		SetupTimeout:   s.setupTimeout,
		ReceiveTimeout: s.receiveTimeout,
	})
	if err != nil {
		return VoiceChatResult{}, err
	}
	defer sess.Close()

	if err := sess.Send(turns); err != nil {
		return VoiceChatResult{}, err
	}
	collected := sess.Collect()
	log.Printf("[voice] session %s: %d audio chunks, %d text bytes", sess.State(), len(collected.AudioChunks), len(collected.Text))

	text, wav := live.Package(collected)
	return VoiceChatResult{Text: text, WAV: wav}, nil
}

// TextToSpeech performs a pure read-aloud cycle with a tighter receive window.
func (s *VoiceChatService) TextToSpeech(ctx context.Context, text, voice string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, live.ErrNoInput
	}
	if voice == "" {
		voice = defaultVoice
	}
	sess, err := s.dial(ctx, live.Config{
		APIKey:         s.apiKey,
		Model:          s.model,
		Voice:          voice,
		Endpoint:       s.endpoint,
		SetupTimeout:   s.setupTimeout,
		ReceiveTimeout: s.ttsTimeout,
	})
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	turn := live.Turn{Role: "user", Parts: []live.TurnPart{{Text: "Please read this text aloud: " + text}}}
	if err := sess.Send([]live.Turn{turn}); err != nil {
		return nil, err
	}
	collected := sess.Collect()
	_, wav := live.Package(collected)
	return wav, nil
}
