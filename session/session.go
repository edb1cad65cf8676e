// Package session resolves "who is asking" for every gated operation. Login
// and first-time registration are the same operation, keyed by email with no
// password; the issued JWT is the client's durable record of the identity.
// The resolved Session value is passed explicitly into entitlement and
// orchestration calls so nothing reads identity from ambient state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lindell/go-burner-email-providers/burner"
	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/db"
	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/models"
)

var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrBurnerEmail  = errors.New("disposable email addresses are not accepted")
	ErrInvalidToken = errors.New("invalid session token")
)

const tokenIssuer = "voxvideo-studio"

// Session is the explicit identity passed into entitlement and orchestration
// calls.
type Session struct {
	Email string
	Admin bool
}

// ProfileStore is the slice of the profile store the manager needs.
type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, email string) (*models.UserProfile, error)
}

type Manager struct {
	Store      ProfileStore
	Secret     []byte
	AdminEmail string
	TokenTTL   time.Duration
}

func NewManager(store ProfileStore, secret []byte, adminEmail string) *Manager {
	return &Manager{
		Store:      store,
		Secret:     secret,
		AdminEmail: adminEmail,
		TokenTTL:   30 * 24 * time.Hour,
	}
}

// LoginOrRegister fetches the profile for an email, creating one with zeroed
// counters on first contact, and issues a session token. Calling it twice
// with the same email returns the same profile.
func (m *Manager) LoginOrRegister(ctx context.Context, email string) (*models.UserProfile, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !govalidator.IsEmail(email) {
		return nil, "", ErrInvalidEmail
	}
	if burner.IsBurnerEmail(email) {
		return nil, "", ErrBurnerEmail
	}

	profile, err := m.Store.GetProfileByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, db.ErrProfileNotFound) {
			return nil, "", err
		}
		profile, err = m.Store.CreateProfile(ctx, email)
		if err != nil {
			return nil, "", err
		}
		logger.Get().Info("registered new profile", zap.String("email", email))
	}

	token, err := m.issueToken(email)
	if err != nil {
		return nil, "", err
	}
	return profile, token, nil
}

func (m *Manager) issueToken(email string) (string, error) {
	now := time.Now()
	claims := &models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.TokenTTL)),
		},
		Email: email,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies a session token and returns its claims.
func (m *Manager) ParseToken(tokenString string) (*models.SessionClaims, error) {
	claims := &models.SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.Secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != tokenIssuer || claims.Email == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SessionFor builds the explicit session value for an authenticated email.
func (m *Manager) SessionFor(email string) Session {
	return Session{Email: email, Admin: email == m.AdminEmail}
}

// Resolve maps an authenticated identity to its current profile. A profile
// missing for a verified identity is recreated rather than erroring, keeping
// login-or-register semantics.
func (m *Manager) Resolve(ctx context.Context, sess Session) (*models.UserProfile, error) {
	profile, err := m.Store.GetProfileByEmail(ctx, sess.Email)
	if errors.Is(err, db.ErrProfileNotFound) {
		return m.Store.CreateProfile(ctx, sess.Email)
	}
	return profile, err
}
