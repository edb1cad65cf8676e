package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/genai"
	"github.com/GEAN1412/voxvideo-studio/generation"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/models"
	"github.com/GEAN1412/voxvideo-studio/payment"
	"github.com/GEAN1412/voxvideo-studio/session"
	"github.com/GEAN1412/voxvideo-studio/worker"
)

// ProfileStore is the read side handlers need directly; mutation goes
// through the payment workflow and the orchestrator.
type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	ListProfiles(ctx context.Context) ([]models.UserProfile, error)
}

// Service bundles the dependencies of the HTTP surface.
type Service struct {
	Sessions *session.Manager
	Profiles ProfileStore
	Payments *payment.Workflow
	Orch     *generation.Orchestrator
	Pool     *worker.Pool
}

// writeGenerationError maps a failed user action to a response. Quota
// exhaustion is a routing signal to the payment flow, not an error banner;
// credential rejections are flagged so the client can prompt for a new key.
func writeGenerationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, generation.ErrPaymentRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":            "Free quota exhausted",
			"payment_required": true,
		})
	case errors.Is(err, generation.ErrEmptyInput),
		errors.Is(err, generation.ErrUnknownVoice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, genai.ErrCredential):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":            "The generation API rejected the configured credentials",
			"credential_error": true,
		})
	case errors.Is(err, genai.ErrNoAudio),
		errors.Is(err, genai.ErrNoImage),
		errors.Is(err, genai.ErrNoVideo):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation produced no result, please try again"})
	case errors.Is(err, generation.ErrRenderDeadline):
		c.JSON(http.StatusBadGateway, gin.H{"error": "The render took too long and was abandoned"})
	case errors.Is(err, db.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
	default:
		logger.Get().Error("generation request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Generation failed, check your connection and try again"})
	}
}
