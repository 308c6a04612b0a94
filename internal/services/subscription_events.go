package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mechchat/referral-service/internal/dto"
)

// SubscriptionEventService routes inbound payment-collaborator events to the
// referral engine. Only a user's first-ever activation counts; renewals and
// unknown event types are acknowledged and ignored.
type SubscriptionEventService struct {
	referrals *ReferralService
}

func NewSubscriptionEventService(referrals *ReferralService) *SubscriptionEventService {
	return &SubscriptionEventService{referrals: referrals}
}

func (s *SubscriptionEventService) HandleWebhookEvent(event *dto.SubscriptionEvent) (*ConversionOutcome, error) {
	switch event.Type {
	case dto.EventSubscriptionFirstActivated:
		userID, err := uuid.Parse(event.UserID)
		if err != nil {
			// Redelivery cannot fix a malformed ID; treat it like an unknown user.
			return nil, fmt.Errorf("unparsable user_id %q: %w", event.UserID, ErrUserNotFound)
		}
		return s.referrals.RecordConversion(userID)
	case dto.EventSubscriptionRenewed:
		// Renewals never count again; the conversion guard would reject them
		// anyway, but there is no reason to open a transaction for it.
		return &ConversionOutcome{}, nil
	default:
		return &ConversionOutcome{}, nil
	}
}
