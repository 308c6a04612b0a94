package dto

import (
	"time"

	"github.com/google/uuid"
)

type ReferralSummaryResponse struct {
	ReferralCode       string                   `json:"referral_code"`
	TotalReferrals     int64                    `json:"total_referrals"`
	ConvertedReferrals int64                    `json:"converted_referrals"`
	CurrentCycle       int                      `json:"current_cycle"`
	CompletedCycles    int                      `json:"completed_cycles"`
	Progress           ReferralProgressResponse `json:"progress"`
	Rewards            []ReferralRewardResponse `json:"rewards"`
}

type ReferralProgressResponse struct {
	Current  int `json:"current"`
	Required int `json:"required"`
}

type ReferralRewardResponse struct {
	ID          uuid.UUID  `json:"id"`
	ReferredID  uuid.UUID  `json:"referred_id"`
	RewardCycle int        `json:"reward_cycle"`
	RewardType  string     `json:"reward_type"`
	RewardValue int        `json:"reward_value"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AwardedAt   *time.Time `json:"awarded_at,omitempty"`
}

type AdminProgressResponse struct {
	ReferrerID        uuid.UUID `json:"referrer_id"`
	RewardCycle       int       `json:"reward_cycle"`
	CurrentReferrals  int       `json:"current_referrals"`
	RequiredReferrals int       `json:"required_referrals"`
	UpdatedAt         time.Time `json:"updated_at"`
}
