package models

import "time"

// Free-tier ceilings before a subscription is required. Cumulative, never
// reset outside of admin or test intervention.
const (
	FreeCharLimit  = 1000
	FreeImageLimit = 5
)

// SubscriptionTerm is how long an admin approval unlocks a feature.
const SubscriptionTerm = 30 * 24 * time.Hour

type PaymentStatus string

const (
	PaymentStatusNone     PaymentStatus = "none"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
)

// Feature is one of the three generation modalities. Each tracks its own
// quota and subscription, except video, which has no free tier and unlocks
// off the voice subscription.
type Feature string

const (
	FeatureVoice Feature = "voice"
	FeatureImage Feature = "image"
	FeatureVideo Feature = "video"
)

func (f Feature) Valid() bool {
	switch f {
	case FeatureVoice, FeatureImage, FeatureVideo:
		return true
	}
	return false
}

// UserProfile mirrors one row of the profiles table.
type UserProfile struct {
	Email                 string        `json:"email"`
	CharCount             int           `json:"char_count"`
	ImageCount            int           `json:"image_count"`
	VoiceSubscribedUntil  *time.Time    `json:"voice_subscribed_until"`
	ImageSubscribedUntil  *time.Time    `json:"image_subscribed_until"`
	PaymentStatus         PaymentStatus `json:"payment_status"`
	LastPaymentRef        string        `json:"last_payment_ref"`
	CreatedAt             time.Time     `json:"created_at"`
}

// SubscribedAt reports whether the profile holds an active subscription for
// the feature at the given instant. Expiry exactly at now counts as lapsed.
func (p *UserProfile) SubscribedAt(feature Feature, now time.Time) bool {
	var expiry *time.Time
	switch feature {
	case FeatureImage:
		expiry = p.ImageSubscribedUntil
	default:
		// Video piggybacks on the voice subscription.
		expiry = p.VoiceSubscribedUntil
	}
	return expiry != nil && expiry.After(now)
}
