package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3, cfg.ReferralRequired)
	assert.Equal(t, 30, cfg.ReferralRewardDays)
	assert.Equal(t, "subscription_days", cfg.ReferralRewardType)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REFERRAL_REQUIRED", "5")
	t.Setenv("REFERRAL_REWARD_DAYS", "7")
	t.Setenv("JWT_ACCESS_EXPIRY", "30m")

	cfg := Load()
	assert.Equal(t, 5, cfg.ReferralRequired)
	assert.Equal(t, 7, cfg.ReferralRewardDays)
	assert.Equal(t, 30*time.Minute, cfg.JWTAccessExpiry)
}

func TestLoadRejectsGarbageValues(t *testing.T) {
	t.Setenv("REFERRAL_REQUIRED", "zero")
	t.Setenv("REFERRAL_REWARD_DAYS", "-1")
	t.Setenv("JWT_ACCESS_EXPIRY", "soon")

	cfg := Load()
	assert.Equal(t, 3, cfg.ReferralRequired)
	assert.Equal(t, 30, cfg.ReferralRewardDays)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessExpiry)
}

func TestRequiredForCycleIsConstant(t *testing.T) {
	cfg := &Config{ReferralRequired: 3}

	for cycle := 1; cycle <= 5; cycle++ {
		assert.Equal(t, 3, cfg.RequiredForCycle(cycle))
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBUser:     "referral",
		DBPassword: "secret",
		DBName:     "referral_db",
		DBSSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "sslmode=require")
}
