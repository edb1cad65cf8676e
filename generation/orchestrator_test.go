package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEAN1412/voxvideo-studio/entitlement"
	"github.com/GEAN1412/voxvideo-studio/genai"
	"github.com/GEAN1412/voxvideo-studio/models"
	"github.com/GEAN1412/voxvideo-studio/session"
)

const adminEmail = "admin@voxvideo.com"

type fakeStore struct {
	profiles     map[string]*models.UserProfile
	incrementErr error
}

func newFakeStore(emails ...string) *fakeStore {
	s := &fakeStore{profiles: map[string]*models.UserProfile{}}
	for _, e := range emails {
		s.profiles[e] = &models.UserProfile{Email: e, PaymentStatus: models.PaymentStatusNone}
	}
	return s
}

func (s *fakeStore) GetProfileByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	p, ok := s.profiles[email]
	if !ok {
		return nil, errors.New("profile not found")
	}
	copied := *p
	return &copied, nil
}

func (s *fakeStore) AddCharUsage(_ context.Context, email string, n int) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.profiles[email].CharCount += n
	return nil
}

func (s *fakeStore) AddImageUsage(_ context.Context, email string, n int) error {
	if s.incrementErr != nil {
		return s.incrementErr
	}
	s.profiles[email].ImageCount += n
	return nil
}

type fakeGenerator struct {
	speechErr error
	imageErr  error
	submitErr error

	polls      int
	doneAfter  int
	resultURI  string
	videoBytes []byte

	speechCalls []string
}

func (g *fakeGenerator) GenerateSpeech(_ context.Context, text, voiceID string) ([]byte, error) {
	if g.speechErr != nil {
		return nil, g.speechErr
	}
	g.speechCalls = append(g.speechCalls, text)
	// Two bytes per rune keeps EncodeWAV happy.
	return make([]byte, 2*len([]rune(text))), nil
}

func (g *fakeGenerator) GenerateImage(_ context.Context, prompt, aspectRatio string) (*genai.GeneratedImage, error) {
	if g.imageErr != nil {
		return nil, g.imageErr
	}
	return &genai.GeneratedImage{MimeType: "image/png", Data: []byte("png")}, nil
}

func (g *fakeGenerator) SubmitVideoJob(_ context.Context, prompt, aspectRatio, resolution string) (string, error) {
	if g.submitErr != nil {
		return "", g.submitErr
	}
	return "operations/op-1", nil
}

func (g *fakeGenerator) GetVideoOperation(_ context.Context, handle string) (*genai.VideoOperation, error) {
	g.polls++
	if g.polls < g.doneAfter {
		return &genai.VideoOperation{Handle: handle}, nil
	}
	return &genai.VideoOperation{Handle: handle, Done: true, ResultURI: g.resultURI}, nil
}

func (g *fakeGenerator) FetchVideo(_ context.Context, resultURI string) ([]byte, error) {
	return g.videoBytes, nil
}

func newOrchestrator(store ProfileStore, gen Generator) *Orchestrator {
	o := NewOrchestrator(store, gen, entitlement.Evaluator{AdminEmail: adminEmail})
	o.PollInterval = time.Millisecond
	return o
}

func user(email string) session.Session {
	return session.Session{Email: email}
}

func admin() session.Session {
	return session.Session{Email: adminEmail, Admin: true}
}

func TestSpeechIncrementsUsageThenDenies(t *testing.T) {
	store := newFakeStore("user@x.com")
	gen := &fakeGenerator{}
	o := newOrchestrator(store, gen)
	ctx := context.Background()

	text500 := make([]rune, 500)
	for i := range text500 {
		text500[i] = 'a'
	}

	res, err := o.Speech(ctx, user("user@x.com"), string(text500), "Kore")
	require.NoError(t, err)
	assert.Equal(t, 500, res.CharCount)
	assert.Equal(t, 500, store.profiles["user@x.com"].CharCount)
	assert.NotEmpty(t, res.WAV)

	// 500 + 600 = 1100 > 1000: denied, counter untouched, payment flow.
	text600 := make([]rune, 600)
	for i := range text600 {
		text600[i] = 'b'
	}
	_, err = o.Speech(ctx, user("user@x.com"), string(text600), "Kore")
	assert.ErrorIs(t, err, ErrPaymentRequired)
	assert.Equal(t, 500, store.profiles["user@x.com"].CharCount)
}

func TestSpeechAdminNeverCounted(t *testing.T) {
	store := newFakeStore(adminEmail)
	o := newOrchestrator(store, &fakeGenerator{})

	_, err := o.Speech(context.Background(), admin(), "unlimited admin text", "Puck")
	require.NoError(t, err)
	assert.Zero(t, store.profiles[adminEmail].CharCount)
}

func TestPreviewNeverChangesCharCount(t *testing.T) {
	store := newFakeStore("user@x.com")
	store.profiles["user@x.com"].CharCount = 1000 // quota already exhausted
	gen := &fakeGenerator{}
	o := newOrchestrator(store, gen)

	res, err := o.Preview(context.Background(), user("user@x.com"), "Zephyr")
	require.NoError(t, err)
	assert.NotEmpty(t, res.WAV)
	assert.Equal(t, 1000, store.profiles["user@x.com"].CharCount)
	assert.Equal(t, []string{models.PreviewPhrase}, gen.speechCalls)
}

func TestSpeechRejectsUnknownVoice(t *testing.T) {
	o := newOrchestrator(newFakeStore("user@x.com"), &fakeGenerator{})

	_, err := o.Speech(context.Background(), user("user@x.com"), "hello", "NotAVoice")
	assert.ErrorIs(t, err, ErrUnknownVoice)
}

func TestSpeechCredentialErrorPassesThrough(t *testing.T) {
	store := newFakeStore("user@x.com")
	gen := &fakeGenerator{speechErr: genai.ErrCredential}
	o := newOrchestrator(store, gen)

	_, err := o.Speech(context.Background(), user("user@x.com"), "hello", "Kore")
	assert.ErrorIs(t, err, genai.ErrCredential)
	assert.Zero(t, store.profiles["user@x.com"].CharCount)
}

func TestSpeechPersistenceFailureStillReturnsAudio(t *testing.T) {
	store := newFakeStore("user@x.com")
	store.incrementErr = errors.New("connection reset")
	o := newOrchestrator(store, &fakeGenerator{})

	res, err := o.Speech(context.Background(), user("user@x.com"), "hello", "Kore")
	require.NoError(t, err)
	assert.NotEmpty(t, res.WAV)
}

func TestImageQuotaBoundary(t *testing.T) {
	store := newFakeStore("user@x.com")
	o := newOrchestrator(store, &fakeGenerator{})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := o.Image(ctx, user("user@x.com"), "a cat", "1:1")
		require.NoError(t, err, "image %d", i+1)
	}
	assert.Equal(t, 5, store.profiles["user@x.com"].ImageCount)

	_, err := o.Image(ctx, user("user@x.com"), "one more cat", "1:1")
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestImageSubscriptionBypassesExhaustedQuota(t *testing.T) {
	store := newFakeStore("user@x.com")
	expiry := time.Now().Add(29 * 24 * time.Hour)
	store.profiles["user@x.com"].ImageCount = 5
	store.profiles["user@x.com"].ImageSubscribedUntil = &expiry
	o := newOrchestrator(store, &fakeGenerator{})

	_, err := o.Image(context.Background(), user("user@x.com"), "a cat", "1:1")
	assert.NoError(t, err)
}

func TestVideoRequiresVoiceSubscription(t *testing.T) {
	store := newFakeStore("user@x.com")
	imgExpiry := time.Now().Add(24 * time.Hour)
	store.profiles["user@x.com"].ImageSubscribedUntil = &imgExpiry
	o := newOrchestrator(store, &fakeGenerator{})

	_, err := o.Video(context.Background(), user("user@x.com"), "a coastline", "16:9", "720p", nil)
	assert.ErrorIs(t, err, ErrPaymentRequired)
}

func TestVideoPollsUntilDoneWithRotatingProgress(t *testing.T) {
	store := newFakeStore("user@x.com")
	expiry := time.Now().Add(24 * time.Hour)
	store.profiles["user@x.com"].VoiceSubscribedUntil = &expiry

	gen := &fakeGenerator{doneAfter: 4, resultURI: "https://dl/video.mp4", videoBytes: []byte("mp4")}
	o := newOrchestrator(store, gen)

	var messages []string
	blob, err := o.Video(context.Background(), user("user@x.com"), "a coastline", "16:9", "720p", func(msg string) {
		messages = append(messages, msg)
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4"), blob)
	assert.Equal(t, 4, gen.polls)

	// The first three ticks carry three distinct ordered messages.
	require.GreaterOrEqual(t, len(messages), 3)
	assert.Equal(t, videoProgressMessages[0], messages[0])
	assert.Equal(t, videoProgressMessages[1], messages[1])
	assert.Equal(t, videoProgressMessages[2], messages[2])
}

func TestVideoDoneWithoutResultIsContentFailure(t *testing.T) {
	store := newFakeStore(adminEmail)
	gen := &fakeGenerator{doneAfter: 1} // done immediately, no URI
	o := newOrchestrator(store, gen)

	_, err := o.Video(context.Background(), admin(), "a coastline", "16:9", "720p", nil)
	assert.ErrorIs(t, err, genai.ErrNoVideo)
}

func TestVideoMaxPollsExceeded(t *testing.T) {
	store := newFakeStore(adminEmail)
	gen := &fakeGenerator{doneAfter: 100}
	o := newOrchestrator(store, gen)
	o.MaxPolls = 3

	_, err := o.Video(context.Background(), admin(), "a coastline", "16:9", "720p", nil)
	assert.ErrorIs(t, err, ErrRenderDeadline)
	assert.Equal(t, 3, gen.polls)
}

func TestVideoCancelledBetweenPolls(t *testing.T) {
	store := newFakeStore(adminEmail)
	gen := &fakeGenerator{doneAfter: 100}
	o := newOrchestrator(store, gen)
	o.PollInterval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := o.Video(ctx, admin(), "a coastline", "16:9", "720p", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVideoSubmitFailureSurfacesImmediately(t *testing.T) {
	store := newFakeStore(adminEmail)
	gen := &fakeGenerator{submitErr: errors.New("dial tcp: connection refused")}
	o := newOrchestrator(store, gen)

	_, err := o.Video(context.Background(), admin(), "a coastline", "16:9", "720p", nil)
	require.Error(t, err)
	assert.Zero(t, gen.polls)
}
