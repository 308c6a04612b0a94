package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mechchat/referral-service/internal/models"
	"gorm.io/gorm"
)

const (
	referralCodePrefix    = "REF"
	referralCodeAlphabet  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	referralCodeRandomLen = 5
)

// ErrCodeSpaceExhausted means repeated collisions on code generation. That is
// an operator problem (collision space too small), never a user-facing one.
var ErrCodeSpaceExhausted = errors.New("referral code space exhausted")

// GenerateUniqueCode produces an 8-character shareable code (REF + 5 random
// chars, ambiguous glyphs excluded) and verifies it against the referral_code
// uniqueness constraint. Runs inside the caller's transaction so the code is
// assigned before the new user is visible to anyone.
func GenerateUniqueCode(tx *gorm.DB, maxAttempts int) (string, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		code, err := randomReferralCode()
		if err != nil {
			return "", fmt.Errorf("failed to generate referral code: %w", err)
		}

		var count int64
		if err := tx.Model(&models.User{}).Where("referral_code = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check referral code uniqueness: %w", err)
		}
		if count == 0 {
			return code, nil
		}
		slog.Warn("referral code collision", "attempt", attempt)
	}
	return "", ErrCodeSpaceExhausted
}

func randomReferralCode() (string, error) {
	buf := make([]byte, referralCodeRandomLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, referralCodeRandomLen)
	for i, b := range buf {
		out[i] = referralCodeAlphabet[int(b)%len(referralCodeAlphabet)]
	}
	return referralCodePrefix + string(out), nil
}
