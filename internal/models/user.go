package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the account record. The referral engine owns only the referral
// columns; everything else belongs to the account side of the platform.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255" json:"email,omitempty"`
	Password  string    `gorm:"not null" json:"-"`
	Role      string    `gorm:"size:20;default:'user'" json:"role"`
	IsBlocked bool      `gorm:"default:false" json:"-"`

	// ReferralCode is assigned inside the registration transaction, so no
	// user is ever visible without one.
	ReferralCode string `gorm:"size:12;not null;uniqueIndex" json:"referral_code"`
	// ReferredBy is set at most once, during registration, and never changed.
	ReferredBy *uuid.UUID `gorm:"type:uuid;index" json:"-"`

	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// HasActiveSubscription reports whether the subscription is active at now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u.SubscriptionExpiresAt != nil && u.SubscriptionExpiresAt.After(now)
}

// ExtendedExpiry computes the expiry after granting days of subscription time.
// An active subscription is extended from its current expiry; a lapsed or
// absent one restarts from now. Rewards stack, they never overwrite.
func (u *User) ExtendedExpiry(days int, now time.Time) time.Time {
	base := now
	if u.HasActiveSubscription(now) {
		base = *u.SubscriptionExpiresAt
	}
	return base.AddDate(0, 0, days)
}
