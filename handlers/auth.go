package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/session"
)

type loginRequest struct {
	Email string `json:"email" binding:"required"`
}

// HandleLogin signs a user in, registering a fresh profile on first contact.
// There is no password; the email is the whole identity.
func (s *Service) HandleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	profile, token, err := s.Sessions.LoginOrRegister(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, session.ErrInvalidEmail) || errors.Is(err, session.ErrBurnerEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Get().Error("login failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed, check your connection"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "profile": profile})
}

// HandleLogout exists for symmetry; sessions are stateless tokens, so the
// client discarding its token is the actual logout.
func (s *Service) HandleLogout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HandleGetProfile is the refresh target the UI polls while a generation
// tab is open.
func (s *Service) HandleGetProfile(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	profile, err := s.Sessions.Resolve(c.Request.Context(), sess)
	if err != nil {
		logger.Get().Error("failed to resolve profile", zap.String("email", sess.Email), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}
