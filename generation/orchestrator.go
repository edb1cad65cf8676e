// Package generation gates every synthesis call behind the entitlement
// rules, runs it against the generation API, and persists the usage it
// consumed. The video path manages the long-running render operation by
// polling until completion.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/audio"
	"github.com/GEAN1412/voxvideo-studio/entitlement"
	"github.com/GEAN1412/voxvideo-studio/genai"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/models"
	"github.com/GEAN1412/voxvideo-studio/session"
)

var (
	// ErrPaymentRequired signals quota exhaustion without an active
	// subscription. It is an expected outcome that routes the user to the
	// payment flow, not a fault.
	ErrPaymentRequired = errors.New("free quota exhausted: payment required")

	// ErrRenderDeadline is returned when a video job is still running after
	// the last allowed poll.
	ErrRenderDeadline = errors.New("video render did not finish in time")

	ErrEmptyInput   = errors.New("input text cannot be empty")
	ErrUnknownVoice = errors.New("unknown voice id")
)

// ProfileStore is the slice of the profile store the orchestrator touches.
type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	AddCharUsage(ctx context.Context, email string, n int) error
	AddImageUsage(ctx context.Context, email string, n int) error
}

// Generator is the external synthesis API.
type Generator interface {
	GenerateSpeech(ctx context.Context, text, voiceID string) ([]byte, error)
	GenerateImage(ctx context.Context, prompt, aspectRatio string) (*genai.GeneratedImage, error)
	SubmitVideoJob(ctx context.Context, prompt, aspectRatio, resolution string) (string, error)
	GetVideoOperation(ctx context.Context, handle string) (*genai.VideoOperation, error)
	FetchVideo(ctx context.Context, resultURI string) ([]byte, error)
}

// Progress messages rotated through the video poll loop. Cosmetic; the
// client just needs something human to show while the render runs.
var videoProgressMessages = []string{
	"Warming up the render farm...",
	"Storyboarding your prompt...",
	"Rendering frames...",
	"Color grading and upscaling...",
	"Stitching the final cut...",
}

type Orchestrator struct {
	Store        ProfileStore
	Gen          Generator
	Entitlements entitlement.Evaluator
	Now          func() time.Time

	// Video poll tuning. MaxPolls bounds the loop so an abandoned job
	// cannot leak a goroutine forever.
	PollInterval time.Duration
	MaxPolls     int
}

func NewOrchestrator(store ProfileStore, gen Generator, ev entitlement.Evaluator) *Orchestrator {
	return &Orchestrator{
		Store:        store,
		Gen:          gen,
		Entitlements: ev,
		Now:          time.Now,
		PollInterval: 10 * time.Second,
		MaxPolls:     90,
	}
}

// SpeechResult carries the raw samples plus a WAV container for download.
type SpeechResult struct {
	PCM        []byte
	WAV        []byte
	SampleRate int
	CharCount  int
}

// Speech synthesizes text with the chosen voice. The character length of the
// input counts against the free quota unless the caller is subscribed or
// admin; admin usage is never recorded.
func (o *Orchestrator) Speech(ctx context.Context, sess session.Session, text, voiceID string) (*SpeechResult, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	if _, ok := models.VoiceByID(voiceID); !ok {
		return nil, ErrUnknownVoice
	}
	charCount := utf8.RuneCountInString(text)

	profile, err := o.Store.GetProfileByEmail(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	if !o.Entitlements.Evaluate(profile, models.FeatureVoice, charCount, o.Now()).Allowed() {
		return nil, ErrPaymentRequired
	}

	result, err := o.synthesizeSpeech(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	result.CharCount = charCount

	if !sess.Admin {
		if err := o.Store.AddCharUsage(ctx, sess.Email, charCount); err != nil {
			// The generation already succeeded; losing the increment is the
			// accepted inconsistency, not a reason to fail the request.
			logger.Get().Error("failed to record character usage",
				zap.String("email", sess.Email),
				zap.Int("chars", charCount),
				zap.Error(err))
		}
	}
	return result, nil
}

// Preview plays the fixed sample phrase with a voice. Previews bypass the
// quota check and never touch the character counter.
func (o *Orchestrator) Preview(ctx context.Context, sess session.Session, voiceID string) (*SpeechResult, error) {
	if _, ok := models.VoiceByID(voiceID); !ok {
		return nil, ErrUnknownVoice
	}
	return o.synthesizeSpeech(ctx, models.PreviewPhrase, voiceID)
}

func (o *Orchestrator) synthesizeSpeech(ctx context.Context, text, voiceID string) (*SpeechResult, error) {
	pcm, err := o.Gen.GenerateSpeech(ctx, text, voiceID)
	if err != nil {
		return nil, err
	}
	wavBytes, err := audio.EncodeWAV(pcm, genai.SpeechSampleRate, genai.SpeechChannels)
	if err != nil {
		return nil, fmt.Errorf("failed to encode WAV: %w", err)
	}
	return &SpeechResult{PCM: pcm, WAV: wavBytes, SampleRate: genai.SpeechSampleRate}, nil
}

// Image renders a prompt to a single image, counting one request against the
// free image quota for non-admin users.
func (o *Orchestrator) Image(ctx context.Context, sess session.Session, prompt, aspectRatio string) (*genai.GeneratedImage, error) {
	if prompt == "" {
		return nil, ErrEmptyInput
	}

	profile, err := o.Store.GetProfileByEmail(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	if !o.Entitlements.Evaluate(profile, models.FeatureImage, 1, o.Now()).Allowed() {
		return nil, ErrPaymentRequired
	}

	img, err := o.Gen.GenerateImage(ctx, prompt, aspectRatio)
	if err != nil {
		return nil, err
	}

	if !sess.Admin {
		if err := o.Store.AddImageUsage(ctx, sess.Email, 1); err != nil {
			logger.Get().Error("failed to record image usage",
				zap.String("email", sess.Email),
				zap.Error(err))
		}
	}
	return img, nil
}

// Video runs the full long-running render: entitlement check, job
// submission, fixed-interval polling with rotating progress messages, and
// the final result fetch. Video has no free tier; only admins and voice
// subscribers get through. The poll loop stops on context cancellation or
// after MaxPolls attempts.
func (o *Orchestrator) Video(ctx context.Context, sess session.Session, prompt, aspectRatio, resolution string, progress func(string)) ([]byte, error) {
	if prompt == "" {
		return nil, ErrEmptyInput
	}

	profile, err := o.Store.GetProfileByEmail(ctx, sess.Email)
	if err != nil {
		return nil, err
	}
	if !o.Entitlements.Evaluate(profile, models.FeatureVideo, 1, o.Now()).Allowed() {
		return nil, ErrPaymentRequired
	}

	handle, err := o.Gen.SubmitVideoJob(ctx, prompt, aspectRatio, resolution)
	if err != nil {
		return nil, err
	}
	logger.Get().Info("video job submitted",
		zap.String("email", sess.Email),
		zap.String("operation", handle))

	op, err := o.pollVideo(ctx, handle, progress)
	if err != nil {
		return nil, err
	}
	if op.ResultURI == "" {
		return nil, genai.ErrNoVideo
	}
	return o.Gen.FetchVideo(ctx, op.ResultURI)
}

func (o *Orchestrator) pollVideo(ctx context.Context, handle string, progress func(string)) (*genai.VideoOperation, error) {
	for attempt := 0; attempt < o.MaxPolls; attempt++ {
		if progress != nil {
			progress(videoProgressMessages[attempt%len(videoProgressMessages)])
		}

		op, err := o.Gen.GetVideoOperation(ctx, handle)
		if err != nil {
			return nil, err
		}
		if op.Done {
			return op, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.PollInterval):
		}
	}
	return nil, ErrRenderDeadline
}
