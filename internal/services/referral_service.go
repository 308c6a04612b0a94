package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mechchat/referral-service/internal/config"
	"github.com/mechchat/referral-service/internal/dto"
	"github.com/mechchat/referral-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrSelfReferral        = errors.New("self-referral is not allowed")
)

// RewardNotification is the payload signalled to the notification collaborator.
type RewardNotification struct {
	ReferrerID  uuid.UUID `json:"referrer_id"`
	RewardType  string    `json:"reward_type"`
	RewardValue int       `json:"reward_value"`
	RewardCycle int       `json:"reward_cycle"`
}

// RewardNotifier delivers the "reward granted" signal after the transaction
// has committed. Implementations are best-effort: failures are logged, never
// propagated, and never retried here; the ledger is authoritative.
type RewardNotifier interface {
	RewardGranted(n RewardNotification)
}

// ConversionOutcome reports what a subscription-activation event changed.
type ConversionOutcome struct {
	Counted     bool
	CycleClosed bool
	Reward      *models.ReferralReward
}

type ReferralService struct {
	db       *gorm.DB
	cfg      *config.Config
	notifier RewardNotifier
}

func NewReferralService(db *gorm.DB, cfg *config.Config, notifier RewardNotifier) *ReferralService {
	return &ReferralService{db: db, cfg: cfg, notifier: notifier}
}

// ResolveReferrer validates an inbound referral code during registration and
// returns the referrer's ID. An empty code means no referrer, which is fine;
// an unknown code blocks registration. Runs inside the registration
// transaction so the referred_by link commits atomically with the new user.
func (s *ReferralService) ResolveReferrer(tx *gorm.DB, code string, newUserID uuid.UUID) (*uuid.UUID, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, nil
	}

	var referrer models.User
	if err := tx.Where("referral_code = ?", code).First(&referrer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, fmt.Errorf("failed to look up referral code: %w", err)
	}

	if referrer.ID == newUserID {
		// Codes are assigned before anyone can reference them, so this is a
		// broken caller, not bad user input.
		slog.Error("self-referral attempt", "user_id", newUserID, "code", code)
		return nil, ErrSelfReferral
	}

	return &referrer.ID, nil
}

// RecordConversion counts a referred user's first-ever subscription activation
// toward their referrer's current cycle, and closes the cycle when the
// threshold is reached. The whole sequence runs in one transaction: the row
// write-lock on referral_progress serializes concurrent conversions for the
// same referrer, and the referral_conversions primary key makes retries and
// duplicate webhook deliveries count nothing.
func (s *ReferralService) RecordConversion(referredUserID uuid.UUID) (*ConversionOutcome, error) {
	outcome := &ConversionOutcome{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var referred models.User
		if err := tx.First(&referred, "id = ?", referredUserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load referred user: %w", err)
		}
		if referred.ReferredBy == nil {
			return nil
		}
		referrerID := *referred.ReferredBy

		var referrer models.User
		if err := tx.First(&referrer, "id = ?", referrerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				slog.Warn("referrer no longer exists, conversion not counted",
					"referrer_id", referrerID, "referred_user_id", referredUserID)
				return nil
			}
			return fmt.Errorf("failed to load referrer: %w", err)
		}
		if referrer.IsBlocked {
			// Frozen: nothing is counted and no conversion record is consumed,
			// so the event can still count if the referrer is unblocked later.
			slog.Warn("referrer is blocked, conversion not counted",
				"referrer_id", referrerID, "referred_user_id", referredUserID)
			return nil
		}

		conversion := models.ReferralConversion{
			ReferredUserID: referredUserID,
			ReferrerID:     referrerID,
			CountedAt:      time.Now().UTC(),
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referred_user_id"}},
			DoNothing: true,
		}).Create(&conversion)
		if res.Error != nil {
			return fmt.Errorf("failed to record conversion: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Already counted once in this user's lifetime.
			return nil
		}
		outcome.Counted = true

		if err := s.ensureProgress(tx, referrerID); err != nil {
			return err
		}

		// The UPDATE takes the row lock; a concurrent conversion for the same
		// referrer blocks here until this transaction commits.
		if err := tx.Model(&models.ReferralProgress{}).
			Where("referrer_id = ?", referrerID).
			Update("current_referrals", gorm.Expr("current_referrals + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment referral progress: %w", err)
		}

		var progress models.ReferralProgress
		if err := tx.First(&progress, "referrer_id = ?", referrerID).Error; err != nil {
			return fmt.Errorf("failed to reload referral progress: %w", err)
		}
		if progress.CurrentReferrals < progress.RequiredReferrals {
			return nil
		}

		reward, err := s.award(tx, &progress, referredUserID)
		if err != nil {
			return err
		}
		outcome.CycleClosed = true
		outcome.Reward = reward
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Signal only after the commit is durable. The notifier is best-effort;
	// its failure must not undo or retry the reward.
	if outcome.CycleClosed && s.notifier != nil {
		s.notifier.RewardGranted(RewardNotification{
			ReferrerID:  outcome.Reward.ReferrerID,
			RewardType:  outcome.Reward.RewardType,
			RewardValue: outcome.Reward.RewardValue,
			RewardCycle: outcome.Reward.RewardCycle,
		})
	}

	return outcome, nil
}

// ensureProgress lazily creates the referrer's progress row for cycle 1.
func (s *ReferralService) ensureProgress(tx *gorm.DB, referrerID uuid.UUID) error {
	seed := models.ReferralProgress{
		ID:                uuid.New(),
		ReferrerID:        referrerID,
		RewardCycle:       1,
		CurrentReferrals:  0,
		RequiredReferrals: s.cfg.RequiredForCycle(1),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "referrer_id"}},
		DoNothing: true,
	}).Create(&seed).Error
	if err != nil {
		return fmt.Errorf("failed to create referral progress: %w", err)
	}
	return nil
}

// award closes the current cycle inside the caller's transaction: it writes
// the ledger row, extends the referrer's subscription and rolls the progress
// into the next cycle. Any error aborts the whole conversion transaction, so
// a failed award is as if the conversion was never recorded.
func (s *ReferralService) award(tx *gorm.DB, progress *models.ReferralProgress, triggeringReferredID uuid.UUID) (*models.ReferralReward, error) {
	now := time.Now().UTC()

	reward := models.ReferralReward{
		ID:          uuid.New(),
		ReferrerID:  progress.ReferrerID,
		ReferredID:  triggeringReferredID,
		RewardCycle: progress.RewardCycle,
		RewardType:  s.cfg.ReferralRewardType,
		RewardValue: s.cfg.ReferralRewardDays,
		Status:      models.RewardStatusAwarded,
		AwardedAt:   &now,
	}
	if err := tx.Create(&reward).Error; err != nil {
		return nil, fmt.Errorf("failed to create reward: %w", err)
	}

	var referrer models.User
	if err := tx.First(&referrer, "id = ?", progress.ReferrerID).Error; err != nil {
		return nil, fmt.Errorf("failed to load referrer for award: %w", err)
	}
	newExpiry := referrer.ExtendedExpiry(reward.RewardValue, now)
	if err := tx.Model(&referrer).Update("subscription_expires_at", newExpiry).Error; err != nil {
		return nil, fmt.Errorf("failed to extend subscription: %w", err)
	}

	nextCycle := progress.RewardCycle + 1
	err := tx.Model(&models.ReferralProgress{}).
		Where("referrer_id = ?", progress.ReferrerID).
		Updates(map[string]interface{}{
			"reward_cycle":       nextCycle,
			"current_referrals":  0,
			"required_referrals": s.cfg.RequiredForCycle(nextCycle),
		}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to roll referral cycle: %w", err)
	}

	slog.Info("referral reward granted",
		"referrer_id", progress.ReferrerID,
		"cycle", progress.RewardCycle,
		"reward_value", reward.RewardValue)
	return &reward, nil
}

// GetProgress returns the referrer's current cycle state. Referrers with no
// counted conversions yet get a zero-value cycle 1 without creating a row.
func (s *ReferralService) GetProgress(referrerID uuid.UUID) (*models.ReferralProgress, error) {
	var progress models.ReferralProgress
	err := s.db.First(&progress, "referrer_id = ?", referrerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ReferralProgress{
			ReferrerID:        referrerID,
			RewardCycle:       1,
			CurrentReferrals:  0,
			RequiredReferrals: s.cfg.RequiredForCycle(1),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral progress: %w", err)
	}
	return &progress, nil
}

// ListRewards returns the referrer's ledger entries in cycle order.
func (s *ReferralService) ListRewards(referrerID uuid.UUID) ([]models.ReferralReward, error) {
	var rewards []models.ReferralReward
	err := s.db.Where("referrer_id = ?", referrerID).
		Order("reward_cycle ASC").
		Find(&rewards).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	return rewards, nil
}

// Summary builds the referral panel data for one user: their shareable code,
// referral counts, current cycle progress and reward history.
func (s *ReferralService) Summary(userID uuid.UUID) (*dto.ReferralSummaryResponse, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	var totalReferrals int64
	if err := s.db.Model(&models.User{}).Where("referred_by = ?", userID).Count(&totalReferrals).Error; err != nil {
		return nil, fmt.Errorf("failed to count referrals: %w", err)
	}

	var converted int64
	if err := s.db.Model(&models.ReferralConversion{}).Where("referrer_id = ?", userID).Count(&converted).Error; err != nil {
		return nil, fmt.Errorf("failed to count conversions: %w", err)
	}

	progress, err := s.GetProgress(userID)
	if err != nil {
		return nil, err
	}

	rewards, err := s.ListRewards(userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.ReferralSummaryResponse{
		ReferralCode:       user.ReferralCode,
		TotalReferrals:     totalReferrals,
		ConvertedReferrals: converted,
		CurrentCycle:       progress.RewardCycle,
		CompletedCycles:    len(rewards),
		Progress: dto.ReferralProgressResponse{
			Current:  progress.CurrentReferrals,
			Required: progress.RequiredReferrals,
		},
		Rewards: make([]dto.ReferralRewardResponse, 0, len(rewards)),
	}
	for _, r := range rewards {
		resp.Rewards = append(resp.Rewards, dto.ReferralRewardResponse{
			ID:          r.ID,
			ReferredID:  r.ReferredID,
			RewardCycle: r.RewardCycle,
			RewardType:  r.RewardType,
			RewardValue: r.RewardValue,
			Status:      string(r.Status),
			CreatedAt:   r.CreatedAt,
			AwardedAt:   r.AwardedAt,
		})
	}
	return resp, nil
}
