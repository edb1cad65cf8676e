package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/payment"
)

type paymentConfirmRequest struct {
	Reference string `json:"reference" binding:"required"`
}

// HandlePaymentConfirm records a bank transfer reference and moves the
// profile into the pending state until an admin reviews it.
func (s *Service) HandlePaymentConfirm(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req paymentConfirmRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		return
	}

	if err := s.Payments.SubmitReference(c.Request.Context(), sess.Email, req.Reference); err != nil {
		switch {
		case errors.Is(err, payment.ErrEmptyReference):
			c.JSON(http.StatusBadRequest, gin.H{"error": "reference is required"})
		case errors.Is(err, db.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		default:
			writeGenerationError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": "pending"})
}
