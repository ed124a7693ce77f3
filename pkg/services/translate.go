package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"EchoAI/pkg/cache"
	"EchoAI/pkg/config"
)

const translateEndpoint = "https://translate.googleapis.com/translate_a/single"

// TranslateService resolves text translation through the public translate
// endpoint first and falls back to a Gemini prompt when that fails. Results
// are cached.
type TranslateService struct {
	gem *GeminiClient
}

func NewTranslateService(gem *GeminiClient) *TranslateService {
	return &TranslateService{gem: gem}
}

func (s *TranslateService) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no text provided")
	}
	if sourceLang == "" {
		sourceLang = "auto"
	}

	ck := cache.KeyFromStrings("translate", sourceLang, targetLang, text)
	if v, ok := cache.Default().Get(ck); ok {
		if cached, ok2 := v.(string); ok2 && cached != "" {
			return cached, nil
		}
	}

	out, err := s.callTranslateEndpoint(ctx, text, sourceLang, targetLang)
	if err != nil {
		log.Printf("[translate] endpoint failed: %v, falling back to gemini", err)
		prompt := fmt.Sprintf("Translate the following text from %s to %s. Return ONLY the translated text.\n\nText: %s", sourceLang, targetLang, text)
		out, err = s.gem.GeneratePrompt(ctx, prompt)
		if err != nil {
			return "", fmt.Errorf("translation failed: %w", err)
		}
	}
	out = strings.TrimSpace(out)
	if out != "" {
		cache.Default().Set(ck, out, time.Duration(config.ChatCacheTTLSeconds)*time.Second)
	}
	return out, nil
}

// callTranslateEndpoint hits the unauthenticated gtx endpoint. The response is
// a nested JSON array whose first element lists translated segments.
func (s *TranslateService) callTranslateEndpoint(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", sourceLang)
	q.Set("tl", targetLang)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, translateEndpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed []any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("unexpected response shape: %w", err)
	}
	if len(parsed) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := parsed[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected segment shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		pair, ok := seg.([]any)
		if !ok || len(pair) == 0 {
			continue
		}
		if t, ok := pair[0].(string); ok {
			b.WriteString(t)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translated segments")
	}
	return b.String(), nil
}
