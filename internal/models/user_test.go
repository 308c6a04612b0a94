package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasActiveSubscription(t *testing.T) {
	now := time.Now().UTC()

	var user User
	assert.False(t, user.HasActiveSubscription(now), "no expiry means no subscription")

	past := now.AddDate(0, 0, -1)
	user.SubscriptionExpiresAt = &past
	assert.False(t, user.HasActiveSubscription(now))

	future := now.AddDate(0, 0, 1)
	user.SubscriptionExpiresAt = &future
	assert.True(t, user.HasActiveSubscription(now))
}

func TestExtendedExpiryStacks(t *testing.T) {
	now := time.Now().UTC()

	t.Run("no subscription starts from now", func(t *testing.T) {
		var user User
		assert.Equal(t, now.AddDate(0, 0, 30), user.ExtendedExpiry(30, now))
	})

	t.Run("active subscription extends from its expiry", func(t *testing.T) {
		expiry := now.AddDate(0, 0, 10)
		user := User{SubscriptionExpiresAt: &expiry}
		assert.Equal(t, expiry.AddDate(0, 0, 30), user.ExtendedExpiry(30, now))
	})

	t.Run("lapsed subscription restarts from now", func(t *testing.T) {
		expiry := now.AddDate(0, 0, -10)
		user := User{SubscriptionExpiresAt: &expiry}
		assert.Equal(t, now.AddDate(0, 0, 30), user.ExtendedExpiry(30, now))
	})
}
