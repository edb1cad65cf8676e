package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/GEAN1412/voxvideo-studio/models"
)

// ErrProfileNotFound is returned when no profile row exists for an email.
var ErrProfileNotFound = errors.New("profile not found")

const profileColumns = `email, char_count, image_count, voice_premium_expiry, image_premium_expiry, payment_status, last_payment_ref, created_at`

func scanProfile(row interface{ Scan(...any) error }) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	var voiceExpiry, imageExpiry sql.NullTime
	var ref sql.NullString
	err := row.Scan(&p.Email, &p.CharCount, &p.ImageCount, &voiceExpiry, &imageExpiry, &p.PaymentStatus, &ref, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if voiceExpiry.Valid {
		t := voiceExpiry.Time
		p.VoiceSubscribedUntil = &t
	}
	if imageExpiry.Valid {
		t := imageExpiry.Time
		p.ImageSubscribedUntil = &t
	}
	if ref.Valid {
		p.LastPaymentRef = ref.String
	}
	return p, nil
}

// GetProfileByEmail fetches a single profile by exact email match.
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		WHERE email = $1
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error getting profile for %s: %v", email, err)
	}
	return p, nil
}

// CreateProfile inserts a fresh profile with zeroed counters and no payment
// history.
func (s *Store) CreateProfile(ctx context.Context, email string) (*models.UserProfile, error) {
	query := `
		INSERT INTO profiles (email, char_count, image_count, payment_status)
		VALUES ($1, 0, 0, $2)
		RETURNING ` + profileColumns + `
	`
	p, err := scanProfile(s.db.QueryRowContext(ctx, query, email, models.PaymentStatusNone))
	if err != nil {
		return nil, fmt.Errorf("error creating profile for %s: %v", email, err)
	}
	return p, nil
}

// ListProfiles returns every profile, newest first, for the admin dashboard.
func (s *Store) ListProfiles(ctx context.Context) ([]models.UserProfile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing profiles: %v", err)
	}
	defer rows.Close()

	profiles := []models.UserProfile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning profile row: %v", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing profiles: %v", err)
	}
	return profiles, nil
}

// AddCharUsage bumps the cumulative character counter in a single UPDATE so
// that concurrent generations from two sessions cannot lose an increment.
func (s *Store) AddCharUsage(ctx context.Context, email string, n int) error {
	return s.addUsage(ctx, email, "char_count", n)
}

// AddImageUsage bumps the cumulative image counter atomically.
func (s *Store) AddImageUsage(ctx context.Context, email string, n int) error {
	return s.addUsage(ctx, email, "image_count", n)
}

func (s *Store) addUsage(ctx context.Context, email, column string, n int) error {
	query := fmt.Sprintf(`
		UPDATE profiles
		SET %s = %s + $1
		WHERE email = $2
	`, column, column)
	res, err := s.db.ExecContext(ctx, query, n, email)
	if err != nil {
		return fmt.Errorf("error incrementing %s for %s: %v", column, email, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// SetPaymentPending records a submitted payment reference and moves the
// profile to pending review.
func (s *Store) SetPaymentPending(ctx context.Context, email, ref string) error {
	query := `
		UPDATE profiles
		SET payment_status = $1, last_payment_ref = $2
		WHERE email = $3
	`
	res, err := s.db.ExecContext(ctx, query, models.PaymentStatusPending, ref, email)
	if err != nil {
		return fmt.Errorf("error updating payment status for %s: %v", email, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// ApproveFeature marks the payment approved and extends the subscription
// expiry of the one approved feature. The other feature's expiry is left
// alone.
func (s *Store) ApproveFeature(ctx context.Context, email string, feature models.Feature, expiry time.Time) error {
	column := "voice_premium_expiry"
	if feature == models.FeatureImage {
		column = "image_premium_expiry"
	}
	query := fmt.Sprintf(`
		UPDATE profiles
		SET payment_status = $1, %s = $2
		WHERE email = $3
	`, column)
	res, err := s.db.ExecContext(ctx, query, models.PaymentStatusApproved, expiry, email)
	if err != nil {
		return fmt.Errorf("error approving %s for %s: %v", feature, email, err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}
