package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/middleware"
	"github.com/GEAN1412/voxvideo-studio/models"
	"github.com/GEAN1412/voxvideo-studio/sse"
	"github.com/GEAN1412/voxvideo-studio/worker"
)

type videoGenerateRequest struct {
	Prompt      string `json:"prompt" binding:"required"`
	AspectRatio string `json:"aspect_ratio"`
	Resolution  string `json:"resolution"`
}

// HandleVideoGenerate enqueues a render job and returns its ID immediately.
// Clients follow progress over the job's event stream and collect the file
// from the result endpoint once the done event arrives.
func (s *Service) HandleVideoGenerate(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req videoGenerateRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "prompt is required"})
		return
	}
	if req.AspectRatio == "" {
		req.AspectRatio = "16:9"
	}
	if !models.ValidAspectRatio(req.AspectRatio) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid aspect ratio"})
		return
	}
	if req.Resolution == "" {
		req.Resolution = "720p"
	}
	if !models.ValidResolution(req.Resolution) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resolution"})
		return
	}

	job := worker.VideoJob{
		ID:          uuid.NewString(),
		Session:     sess,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Resolution:  req.Resolution,
	}
	if err := s.Pool.Submit(job); err != nil {
		logger.Get().Warn("video queue full", zap.String("email", sess.Email))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Render queue is full, try again shortly"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": job.ID})
}

// HandleVideoEvents streams progress events for a render job over SSE.
func (s *Service) HandleVideoEvents(c *gin.Context) {
	if _, ok := middleware.CurrentSession(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	jobID := c.Param("id")
	stream := sse.Open(jobID)
	defer sse.CloseStream(jobID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "Streaming unsupported!")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	writeEvent := func(w io.Writer, ev sse.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			logger.Get().Error("failed to marshal event", zap.Error(err))
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-stream.Events:
			if !ok {
				return false
			}
			writeEvent(w, ev)
			return ev.Type == sse.EventProgress
		case <-stream.Done:
			// The done signal can win the race against the terminal
			// event still sitting in the buffer. Flush it before closing.
			for {
				select {
				case ev := <-stream.Events:
					writeEvent(w, ev)
				default:
					return false
				}
			}
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// HandleVideoResult hands out the finished MP4 for a job. The blob is
// released exactly once, so a retry after a successful download sees 404.
func (s *Service) HandleVideoResult(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	jobID := c.Param("id")
	blob, err := s.Pool.Result(jobID, sess.Email)
	if err != nil {
		switch {
		case errors.Is(err, worker.ErrJobNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		case errors.Is(err, worker.ErrJobNotReady):
			c.JSON(http.StatusConflict, gin.H{"error": "Job is still rendering"})
		default:
			writeGenerationError(c, err)
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="video.mp4"`)
	c.Data(http.StatusOK, "video/mp4", blob)
}
