package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/models"
	"github.com/GEAN1412/voxvideo-studio/payment"
)

// HandleListProfiles returns every profile, newest first. Admin only.
func (s *Service) HandleListProfiles(c *gin.Context) {
	profiles, err := s.Profiles.ListProfiles(c.Request.Context())
	if err != nil {
		logger.Get().Error("failed to list profiles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list profiles"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

type approveRequest struct {
	Email   string `json:"email" binding:"required"`
	Feature string `json:"feature" binding:"required"`
}

// HandleApprove marks a pending payment as approved and grants the named
// feature a subscription term starting now.
func (s *Service) HandleApprove(c *gin.Context) {
	var req approveRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and feature are required"})
		return
	}

	expiry, err := s.Payments.Approve(c.Request.Context(), req.Email, models.Feature(req.Feature))
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrInvalidFeature):
			c.JSON(http.StatusBadRequest, gin.H{"error": "feature must be voice or image"})
		case errors.Is(err, db.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		default:
			logger.Get().Error("failed to approve payment",
				zap.String("email", req.Email),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve payment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"subscribed_until": expiry.Format(time.RFC3339),
	})
}
