package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/models"
)

type fakeStore struct {
	profiles map[string]*models.UserProfile
	creates  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: map[string]*models.UserProfile{}}
}

func (s *fakeStore) GetProfileByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	p, ok := s.profiles[email]
	if !ok {
		return nil, db.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeStore) CreateProfile(_ context.Context, email string) (*models.UserProfile, error) {
	s.creates++
	p := &models.UserProfile{
		Email:         email,
		PaymentStatus: models.PaymentStatusNone,
		CreatedAt:     time.Now(),
	}
	s.profiles[email] = p
	return p, nil
}

func newManager(store ProfileStore) *Manager {
	return NewManager(store, []byte("test-secret"), "admin@voxvideo.com")
}

func TestLoginOrRegisterCreatesZeroedProfile(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	profile, token, err := m.LoginOrRegister(context.Background(), "new@x.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.Equal(t, "new@x.com", profile.Email)
	assert.Zero(t, profile.CharCount)
	assert.Zero(t, profile.ImageCount)
	assert.Equal(t, models.PaymentStatusNone, profile.PaymentStatus)
}

func TestLoginOrRegisterIsIdempotent(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	first, _, err := m.LoginOrRegister(context.Background(), "user@x.com")
	require.NoError(t, err)
	first.CharCount = 500

	second, _, err := m.LoginOrRegister(context.Background(), "user@x.com")
	require.NoError(t, err)

	assert.Equal(t, 1, store.creates)
	assert.Equal(t, 500, second.CharCount)
}

func TestLoginNormalizesEmail(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	profile, _, err := m.LoginOrRegister(context.Background(), "  User@X.com ")
	require.NoError(t, err)
	assert.Equal(t, "user@x.com", profile.Email)
}

func TestLoginRejectsInvalidEmail(t *testing.T) {
	m := newManager(newFakeStore())

	_, _, err := m.LoginOrRegister(context.Background(), "not-an-email")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestLoginRejectsBurnerEmail(t *testing.T) {
	m := newManager(newFakeStore())

	_, _, err := m.LoginOrRegister(context.Background(), "someone@mailinator.com")
	assert.ErrorIs(t, err, ErrBurnerEmail)
}

func TestTokenRoundTrip(t *testing.T) {
	m := newManager(newFakeStore())

	_, token, err := m.LoginOrRegister(context.Background(), "user@x.com")
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user@x.com", claims.Email)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	m := newManager(newFakeStore())
	_, token, err := m.LoginOrRegister(context.Background(), "user@x.com")
	require.NoError(t, err)

	other := NewManager(newFakeStore(), []byte("different-secret"), "admin@voxvideo.com")
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionForFlagsAdmin(t *testing.T) {
	m := newManager(newFakeStore())

	assert.True(t, m.SessionFor("admin@voxvideo.com").Admin)
	assert.False(t, m.SessionFor("user@x.com").Admin)
}

func TestResolveRecreatesMissingProfile(t *testing.T) {
	store := newFakeStore()
	m := newManager(store)

	profile, err := m.Resolve(context.Background(), Session{Email: "ghost@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "ghost@x.com", profile.Email)
	assert.Equal(t, 1, store.creates)
}
