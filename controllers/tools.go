package controllers

import (
	"log"
	"net/http"
	"strings"

	svc "EchoAI/pkg/services"

	"github.com/gin-gonic/gin"
)

// OCR extracts text from an uploaded image via the vision model.
func OCR(ocr *svc.OCRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ocr == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No image uploaded"})
			return
		}
		defer file.Close()

		data, mimeType, err := svc.ReadImageUpload(file, header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
			return
		}

		text, err := ocr.ExtractText(c.Request.Context(), data, mimeType)
		if err != nil {
			log.Printf("[ocr] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "text": text})
	}
}

// Translate converts text between language codes.
func Translate(tr *svc.TranslateService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tr == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Service not initialized"})
			return
		}

		var body struct {
			Text   string `json:"text"`
			Source string `json:"source"`
			Target string `json:"target"`
		}
		if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No text provided"})
			return
		}
		if body.Source == "" {
			body.Source = "auto"
		}
		if body.Target == "" {
			body.Target = "vi"
		}

		result, err := tr.Translate(c.Request.Context(), body.Text, body.Source, body.Target)
		if err != nil {
			log.Printf("[translate] error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "text": result})
	}
}
