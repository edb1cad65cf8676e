// Package entitlement decides whether a profile may run a generation under
// free-quota or subscription rules. A denial is an expected outcome that
// routes the user to the payment flow, not an error.
package entitlement

import (
	"time"

	"github.com/GEAN1412/voxvideo-studio/models"
)

type Decision int

const (
	Allowed Decision = iota
	PaymentRequired
)

func (d Decision) Allowed() bool { return d == Allowed }

// Evaluator holds the designated administrator identity, which bypasses
// every quota and subscription check.
type Evaluator struct {
	AdminEmail string
}

// Evaluate applies the entitlement rules for one requested operation.
// incremental is the usage the operation would add: character count for
// voice, request count for images. Video has no free tier and unlocks off
// the voice subscription, never the image one.
func (e Evaluator) Evaluate(p *models.UserProfile, feature models.Feature, incremental int, now time.Time) Decision {
	if p.Email == e.AdminEmail {
		return Allowed
	}

	if feature == models.FeatureVideo {
		if p.SubscribedAt(models.FeatureVoice, now) {
			return Allowed
		}
		return PaymentRequired
	}

	if p.SubscribedAt(feature, now) {
		return Allowed
	}

	switch feature {
	case models.FeatureVoice:
		if p.CharCount+incremental <= models.FreeCharLimit {
			return Allowed
		}
	case models.FeatureImage:
		if p.ImageCount+incremental <= models.FreeImageLimit {
			return Allowed
		}
	}
	return PaymentRequired
}
