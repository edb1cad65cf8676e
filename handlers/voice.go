package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/models"
)

type voiceGenerateRequest struct {
	Text    string `json:"text" binding:"required"`
	VoiceID string `json:"voice_id" binding:"required"`
}

type voicePreviewRequest struct {
	VoiceID string `json:"voice_id" binding:"required"`
}

// HandleListVoices returns the prebuilt voice catalog. Cached at the router.
func (s *Service) HandleListVoices(c *gin.Context) {
	c.JSON(http.StatusOK, models.Voices)
}

// HandleVoiceGenerate synthesizes speech and returns the WAV container.
// The input's character count lands on the caller's quota.
func (s *Service) HandleVoiceGenerate(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req voiceGenerateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text and voice_id are required"})
		return
	}

	result, err := s.Orch.Speech(c.Request.Context(), sess, req.Text, req.VoiceID)
	if err != nil {
		writeGenerationError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="voice.wav"`)
	c.Header("X-Char-Count", strconv.Itoa(result.CharCount))
	c.Data(http.StatusOK, "audio/wav", result.WAV)
}

// HandleVoicePreview plays the fixed sample phrase. Never counted.
func (s *Service) HandleVoicePreview(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req voicePreviewRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voice_id is required"})
		return
	}

	result, err := s.Orch.Preview(c.Request.Context(), sess, req.VoiceID)
	if err != nil {
		writeGenerationError(c, err)
		return
	}

	c.Data(http.StatusOK, "audio/wav", result.WAV)
}
