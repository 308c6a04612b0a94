package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mechchat/referral-service/internal/dto"
	"github.com/mechchat/referral-service/internal/middleware"
	"github.com/mechchat/referral-service/internal/services"
)

type ReferralHandler struct {
	referralService *services.ReferralService
}

func NewReferralHandler(referralService *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referralService: referralService}
}

// Summary returns the calling user's referral panel: code, counts, current
// cycle progress and reward history.
func (h *ReferralHandler) Summary(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	resp, err := h.referralService.Summary(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch referral data",
		})
	}

	return c.JSON(resp)
}

// AdminProgress is the read-only admin view of one referrer's current cycle.
func (h *ReferralHandler) AdminProgress(c *fiber.Ctx) error {
	referrerID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	progress, err := h.referralService.GetProgress(referrerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch referral progress",
		})
	}

	return c.JSON(dto.AdminProgressResponse{
		ReferrerID:        progress.ReferrerID,
		RewardCycle:       progress.RewardCycle,
		CurrentReferrals:  progress.CurrentReferrals,
		RequiredReferrals: progress.RequiredReferrals,
		UpdatedAt:         progress.UpdatedAt,
	})
}

// AdminRewards lists one referrer's reward ledger in cycle order.
func (h *ReferralHandler) AdminRewards(c *fiber.Ctx) error {
	referrerID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user id",
		})
	}

	rewards, err := h.referralService.ListRewards(referrerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch rewards",
		})
	}

	out := make([]dto.ReferralRewardResponse, 0, len(rewards))
	for _, r := range rewards {
		out = append(out, dto.ReferralRewardResponse{
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
	return c.JSON(fiber.Map{"rewards": out, "total": len(out)})
}
