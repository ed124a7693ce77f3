package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
)

const maxImageUploadBytes = 5 * 1024 * 1024

var allowedImageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ReadImageUpload validates and reads one multipart image upload. The bytes
// are kept in memory only; nothing is persisted.
func ReadImageUpload(file multipart.File, header *multipart.FileHeader) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	fallbackMIME, ok := allowedImageExts[ext]
	if !ok {
		return nil, "", fmt.Errorf("invalid file type. Only JPG, PNG, GIF, WEBP allowed")
	}
	if header.Size > maxImageUploadBytes {
		return nil, "", fmt.Errorf("file too large. Maximum size is 5MB")
	}

	data, err := io.ReadAll(io.LimitReader(file, maxImageUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxImageUploadBytes {
		return nil, "", fmt.Errorf("file too large. Maximum size is 5MB")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = fallbackMIME
	}
	return data, mimeType, nil
}
