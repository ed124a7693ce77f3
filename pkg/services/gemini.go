package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"EchoAI/pkg/config"
)

// GeminiClient wraps the generativelanguage REST endpoints used for text chat,
// vision OCR, and the translation fallback.
type GeminiClient struct {
	apiKey  string
	enabled bool
	baseURL string
}

const geminiBaseURL = "https://generativelanguage.googleapis.com"

var (
	ErrGeminiDisabled = errors.New("gemini is disabled via config")
	ErrServiceUnavail = errors.New("dependent service failed to initialize")
)

func NewGeminiClient() *GeminiClient {
	return &GeminiClient{
		apiKey:  config.GeminiAPIKey,
		enabled: config.IsGeminiEnabled,
		baseURL: geminiBaseURL,
	}
}

// NewGeminiClientAt binds the client to an explicit endpoint base and marks it
// usable regardless of the config switches. Used against test servers.
func NewGeminiClientAt(base, apiKey string) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, enabled: true, baseURL: base}
}

type ChatMessage struct {
	Role string
	Text string
}

// blockNoneSafety mirrors the relaxed safety settings the service runs with.
func blockNoneSafety() []any {
	categories := []string{
		"HARM_CATEGORY_HARASSMENT",
		"HARM_CATEGORY_HATE_SPEECH",
		"HARM_CATEGORY_SEXUALLY_EXPLICIT",
		"HARM_CATEGORY_DANGEROUS_CONTENT",
	}
	settings := make([]any, 0, len(categories))
	for _, c := range categories {
		settings = append(settings, map[string]any{"category": c, "threshold": "BLOCK_NONE"})
	}
	return settings
}

func (s *GeminiClient) ready() error {
	if !s.enabled {
		log.Printf("[gemini] disabled via config (IsGeminiEnabled=false)")
		return ErrGeminiDisabled
	}
	if strings.TrimSpace(s.apiKey) == "" {
		log.Printf("[gemini] GEMINI_API_KEY is not set")
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	return nil
}

func chatPayload(chat []ChatMessage) []byte {
	contents := make([]any, 0, len(chat))
	for _, m := range chat {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if role != "user" && role != "model" {
			role = "user"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": []any{map[string]any{"text": m.Text}},
		})
	}
	reqBody := map[string]any{
		"contents":       contents,
		"safetySettings": blockNoneSafety(),
		"generationConfig": map[string]any{
			"temperature":     0.7,
			"maxOutputTokens": 2048,
			"topK":            40,
			"topP":            0.9,
		},
	}
	body, _ := json.Marshal(reqBody)
	return body
}

// GenerateWithChat runs one non-streaming generateContent call over the full
// turn list and returns the first text part.
func (s *GeminiClient) GenerateWithChat(ctx context.Context, chat []ChatMessage) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.callGenerateContent(ctx, config.GeminiTextModel, chatPayload(chat))
}

// GeneratePrompt is the single-turn convenience used by the translation
// fallback and title probes.
func (s *GeminiClient) GeneratePrompt(ctx context.Context, prompt string) (string, error) {
	return s.GenerateWithChat(ctx, []ChatMessage{{Role: "user", Text: prompt}})
}

// GenerateVision sends a prompt plus one inline image to the text model.
func (s *GeminiClient) GenerateVision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	reqBody := map[string]any{
		"contents": []any{map[string]any{
			"role": "user",
			"parts": []any{
				map[string]any{"text": prompt},
				map[string]any{"inlineData": map[string]any{
					"mimeType": mimeType,
					"data":     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
		"safetySettings": blockNoneSafety(),
	}
	body, _ := json.Marshal(reqBody)
	return s.callGenerateContent(ctx, config.GeminiTextModel, body)
}

// StreamWithChat runs streamGenerateContent, forwarding partial text to
// onDelta and returning the concatenated answer.
func (s *GeminiClient) StreamWithChat(ctx context.Context, chat []ChatMessage, onDelta func(string)) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	return s.callStreamGenerateContent(ctx, config.GeminiTextModel, chatPayload(chat), onDelta)
}

func (s *GeminiClient) callGenerateContent(ctx context.Context, model string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", s.baseURL, model, s.apiKey)
	log.Printf("[gemini] using model %s", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBytes)))
	}

	var parsed map[string]any
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return strings.TrimSpace(string(respBytes)), nil
	}
	if txt := firstCandidateText(parsed); txt != "" {
		return strings.TrimSpace(txt), nil
	}
	return strings.TrimSpace(string(respBytes)), nil
}

func (s *GeminiClient) callStreamGenerateContent(ctx context.Context, model string, body []byte, onDelta func(string)) (string, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:streamGenerateContent?key=%s", s.baseURL, model, s.apiKey)
	log.Printf("[gemini] streaming model %s", model)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	full := strings.Builder{}
	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "data:") {
			line = strings.TrimSpace(line[5:])
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			continue
		}
		if txt := firstCandidateText(obj); txt != "" {
			full.WriteString(txt)
			if onDelta != nil {
				onDelta(txt)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("stream read error: %w", err)
	}
	return full.String(), nil
}

func firstCandidateText(parsed map[string]any) string {
	cands, ok := parsed["candidates"].([]any)
	if !ok || len(cands) == 0 {
		return ""
	}
	first, ok := cands[0].(map[string]any)
	if !ok {
		return ""
	}
	content, ok := first["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return ""
	}
	for _, p := range parts {
		if pm, ok := p.(map[string]any); ok {
			if txt, ok := pm["text"].(string); ok && strings.TrimSpace(txt) != "" {
				return txt
			}
		}
	}
	return ""
}
