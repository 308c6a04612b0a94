package models

import (
	"time"

	"github.com/google/uuid"
)

// RewardStatus is the lifecycle state of a ledger entry. Rewards are created
// as awarded today; pending exists so a manual-approval step can be added
// without a migration.
type RewardStatus string

const (
	RewardStatusPending RewardStatus = "pending"
	RewardStatusAwarded RewardStatus = "awarded"
)

// ReferralProgress tracks one referrer's current reward cycle. There is one
// row per referrer; the row write-lock is what serializes concurrent
// conversions for the same referrer.
type ReferralProgress struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"referrer_id"`
	RewardCycle       int       `gorm:"not null;default:1" json:"reward_cycle"`
	CurrentReferrals  int       `gorm:"not null;default:0" json:"current_referrals"`
	RequiredReferrals int       `gorm:"not null" json:"required_referrals"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ReferralReward is an append-only ledger row recording a granted reward.
// Rows are never updated or deleted.
type ReferralReward struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID  uuid.UUID `gorm:"type:uuid;not null;index" json:"referrer_id"`
	// ReferredID is the conversion that closed the cycle. Informational: the
	// reward is for the cumulative threshold, not this referral alone.
	ReferredID  uuid.UUID    `gorm:"type:uuid;not null" json:"referred_id"`
	RewardCycle int          `gorm:"not null" json:"reward_cycle"`
	RewardType  string       `gorm:"size:50;not null" json:"reward_type"`
	RewardValue int          `gorm:"not null" json:"reward_value"`
	Status      RewardStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	AwardedAt   *time.Time   `json:"awarded_at,omitempty"`
}

// ReferralConversion is the idempotency guard: at most one row per referred
// user, ever. Webhook retries and re-subscriptions hit the primary key and
// count nothing. Rows are never deleted; they are the audit trail that
// counting is exactly-once.
type ReferralConversion struct {
	ReferredUserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"referred_user_id"`
	ReferrerID     uuid.UUID `gorm:"type:uuid;not null;index" json:"referrer_id"`
	CountedAt      time.Time `gorm:"not null" json:"counted_at"`
}
