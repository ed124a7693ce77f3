package controllers

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strings"

	"EchoAI/middleware"
	"EchoAI/pkg/audio"
	"EchoAI/pkg/live"
	"EchoAI/pkg/observability"
	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

type voiceChatBody struct {
	Message  string     `json:"message"`
	Voice    string     `json:"voice"`
	Language string     `json:"language"`
	History  []wireTurn `json:"history"`
	Audio    string     `json:"audio"`
	MimeType string     `json:"mime_type"`
}

// ChatVoice handles one full voice-chat cycle and returns text plus a
// base64-encoded WAV at 24kHz mono 16-bit.
func ChatVoice(voice *svc.VoiceChatService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if voice == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		var body voiceChatBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
			return
		}
		if body.Audio != "" {
			log.Printf("[voice] received audio input: %d chars (base64)", len(body.Audio))
		}

		// bound concurrent sessions per caller
		release := middleware.AcquireUserSlot(callerKey(c))
		defer release()

		result, err := voice.ChatWithVoice(c.Request.Context(), svc.VoiceChatRequest{
			Message:     body.Message,
			Voice:       body.Voice,
			Language:    body.Language,
			History:     historyFromWire(body.History),
			AudioBase64: body.Audio,
			MimeType:    body.MimeType,
		})
		if err != nil {
			observeVoiceOutcome(metrics, err)
			status := http.StatusInternalServerError
			if errors.Is(err, live.ErrNoInput) {
				status = http.StatusBadRequest
			}
			log.Printf("[voice] error: %v", err)
			c.JSON(status, gin.H{"success": false, "error": err.Error()})
			return
		}
		observeVoiceOutcome(metrics, nil)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"text":        result.Text,
			"audio":       base64.StdEncoding.EncodeToString(result.WAV),
			"format":      "wav",
			"sample_rate": audio.OutputSampleRate,
		})
	}
}

// TextToSpeech reads a text aloud and returns the WAV bytes base64-encoded.
func TextToSpeech(voice *svc.VoiceChatService, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if voice == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		var body struct {
			Text  string `json:"text"`
			Voice string `json:"voice"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "text is required"})
			return
		}

		release := middleware.AcquireUserSlot(callerKey(c))
		defer release()

		wav, err := voice.TextToSpeech(c.Request.Context(), body.Text, body.Voice)
		if err != nil {
			observeVoiceOutcome(metrics, err)
			log.Printf("[voice] tts error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		observeVoiceOutcome(metrics, nil)

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"audio":       base64.StdEncoding.EncodeToString(wav),
			"format":      "wav",
			"sample_rate": audio.OutputSampleRate,
		})
	}
}

func observeVoiceOutcome(metrics *observability.Metrics, err error) {
	if metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, live.ErrSetupTimeout):
		outcome = "setup_timeout"
	case errors.Is(err, live.ErrSetupRejected):
		outcome = "setup_rejected"
	case errors.Is(err, live.ErrNoInput):
		outcome = "no_input"
	default:
		outcome = "error"
	}
	metrics.LiveSessions.WithLabelValues(outcome).Inc()
}
