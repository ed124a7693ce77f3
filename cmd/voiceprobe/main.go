package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"EchoAI/pkg/config"
	svc "EchoAI/pkg/services"
)

// voiceprobe is a one-shot smoke check for the live audio path. It opens a
// real session against the configured live model, asks it to speak a line,
// and writes the resulting WAV next to the binary.
func main() {
	// Trigger config init() to load env
	_ = config.AppEnv

	if config.GeminiAPIKey == "" {
		fmt.Println("[warn] GEMINI_API_KEY is empty – the live session will fail. Set it in .env")
	}

	text := strings.TrimSpace(strings.Join(os.Args[1:], " "))
	if text == "" {
		text = "Hello from the voice probe. If you can hear this, the live path works."
	}

	voice := strings.TrimSpace(os.Getenv("VOICEPROBE_VOICE"))

	timeoutSec := 60
	if s := strings.TrimSpace(os.Getenv("VOICEPROBE_TIMEOUT_SEC")); s != "" {
		if v, e := fmt.Sscanf(s, "%d", &timeoutSec); v == 0 || e != nil {
			timeoutSec = 60
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	defer cancel()

	vcs := svc.NewVoiceChatService()
	t0 := time.Now()
	wav, err := vcs.TextToSpeech(ctx, text, voice)
	dur := time.Since(t0)
	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}

	outPath := strings.TrimSpace(os.Getenv("VOICEPROBE_OUT"))
	if outPath == "" {
		outPath = filepath.Join(".", fmt.Sprintf("voiceprobe-%s.wav", time.Now().Format("20060102-150405")))
	}
	if err := os.WriteFile(outPath, wav, 0o644); err != nil {
		fmt.Println("failed to write WAV:", err)
		os.Exit(1)
	}

	fmt.Printf("ok: %d bytes in %dms (model=%s)\n", len(wav), dur.Milliseconds(), config.GeminiLiveModel)
	fmt.Println("saved:", outPath)
}
