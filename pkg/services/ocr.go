package services

import (
	"context"
	"fmt"
	"strings"
)

const ocrPrompt = "Extract ALL text visible in this image. Return only the extracted text, preserving line breaks. If no text is present, reply exactly: No text detected"

// OCRService forwards an uploaded image to the vision-capable text model and
// returns the extracted text.
type OCRService struct {
	gem *GeminiClient
}

func NewOCRService(gem *GeminiClient) *OCRService {
	return &OCRService{gem: gem}
}

func (s *OCRService) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image")
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	out, err := s.gem.GenerateVision(ctx, ocrPrompt, image, mimeType)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "No text detected", nil
	}
	return out, nil
}
