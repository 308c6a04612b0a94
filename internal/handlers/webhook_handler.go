package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/mechchat/referral-service/internal/config"
	"github.com/mechchat/referral-service/internal/dto"
	"github.com/mechchat/referral-service/internal/services"
)

type WebhookHandler struct {
	events *services.SubscriptionEventService
	cfg    *config.Config
}

func NewWebhookHandler(events *services.SubscriptionEventService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{events: events, cfg: cfg}
}

// HandleSubscription receives subscription lifecycle events from the payment
// collaborator. Deliveries may repeat; the engine's idempotency guard makes
// retries safe, so a 5xx here just means "redeliver later".
func (h *WebhookHandler) HandleSubscription(c *fiber.Ctx) error {
	if h.cfg.WebhookToken == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.cfg.WebhookToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var webhook dto.SubscriptionWebhook
	if err := c.BodyParser(&webhook); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	outcome, err := h.events.HandleWebhookEvent(&webhook.Event)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Unknown user: redelivery cannot fix this, so fail non-retryably.
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Unknown user",
			})
		}
		slog.Error("webhook processing failed",
			"event_type", webhook.Event.Type, "user_id", webhook.Event.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed",
		"event_type", webhook.Event.Type,
		"counted", outcome.Counted,
		"cycle_closed", outcome.CycleClosed)
	return c.JSON(dto.WebhookAckResponse{
		Received:    true,
		Counted:     outcome.Counted,
		CycleClosed: outcome.CycleClosed,
	})
}
