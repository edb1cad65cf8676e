package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vincent-petithory/dataurl"

	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/models"
)

type imageGenerateRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	AspectRatio string `json:"aspect_ratio"`
}

// HandleImageGenerate renders a prompt to one image, returned as a data URL
// the frontend can drop straight into an img tag.
func (s *Service) HandleImageGenerate(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req imageGenerateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "1:1"
	}
	if !models.ValidAspectRatio(req.AspectRatio) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aspect ratio"})
		return
	}

	img, err := s.Orch.Image(c.Request.Context(), sess, req.Prompt, req.AspectRatio)
	if err != nil {
		writeGenerationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mime_type": img.MimeType,
		"image":     dataurl.New(img.Data, img.MimeType).String(),
	})
}
