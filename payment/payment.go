// Package payment drives the manual bank-transfer confirmation flow:
// a denied user submits a transfer reference, an admin later matches the
// transfer and approves one feature for 30 days. There is no reject path;
// a pending submission stays pending until an admin acts.
package payment

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GEAN1412/voxvideo-studio/logger"
	"github.com/GEAN1412/voxvideo-studio/models"
)

var (
	ErrEmptyReference = errors.New("payment reference cannot be empty")
	ErrInvalidFeature = errors.New("feature must be voice or image")
)

// ProfileStore is the slice of the profile store the workflow mutates.
type ProfileStore interface {
	SetPaymentPending(ctx context.Context, email, ref string) error
	ApproveFeature(ctx context.Context, email string, feature models.Feature, expiry time.Time) error
}

type Workflow struct {
	Store ProfileStore
	Now   func() time.Time
}

func NewWorkflow(store ProfileStore) *Workflow {
	return &Workflow{Store: store, Now: time.Now}
}

// SubmitReference moves the profile to pending review and records the
// user-supplied transfer reference. Resubmission after a lapsed subscription
// is the expected re-entry into the cycle, so any current status is a valid
// starting point.
func (w *Workflow) SubmitReference(ctx context.Context, email, ref string) error {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ErrEmptyReference
	}
	if err := w.Store.SetPaymentPending(ctx, email, ref); err != nil {
		return err
	}
	logger.Get().Info("payment reference submitted",
		zap.String("email", email),
		zap.String("reference", ref))
	return nil
}

// Approve is the admin action that unlocks one feature. It sets the payment
// status to approved and pushes that feature's subscription expiry 30 days
// out; the other feature's expiry is untouched. Returns the new expiry.
func (w *Workflow) Approve(ctx context.Context, email string, feature models.Feature) (time.Time, error) {
	if feature != models.FeatureVoice && feature != models.FeatureImage {
		return time.Time{}, ErrInvalidFeature
	}
	expiry := w.Now().Add(models.SubscriptionTerm)
	if err := w.Store.ApproveFeature(ctx, email, feature, expiry); err != nil {
		return time.Time{}, err
	}
	logger.Get().Info("payment approved",
		zap.String("email", email),
		zap.String("feature", string(feature)),
		zap.Time("subscribed_until", expiry))
	return expiry, nil
}
