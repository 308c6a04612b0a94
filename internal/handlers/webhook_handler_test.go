package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mechchat/referral-service/internal/config"
	"github.com/mechchat/referral-service/internal/dto"
	"github.com/mechchat/referral-service/internal/handlers"
	"github.com/mechchat/referral-service/internal/models"
	"github.com/mechchat/referral-service/internal/services"
	"github.com/mechchat/referral-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testWebhookToken = "whk_test_token"

func newWebhookApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{
		ReferralRequired:   3,
		ReferralRewardDays: 30,
		ReferralRewardType: "subscription_days",
		WebhookToken:       testWebhookToken,
	}
	referrals := services.NewReferralService(db, cfg, nil)
	events := services.NewSubscriptionEventService(referrals)
	handler := handlers.NewWebhookHandler(events, cfg)

	app := fiber.New()
	app.Post("/api/webhooks/subscription", handler.HandleSubscription)
	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, code string, referredBy *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     "user_" + code,
		Password:     "irrelevant",
		ReferralCode: code,
		ReferredBy:   referredBy,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func postWebhook(t *testing.T, app *fiber.App, token string, payload dto.SubscriptionWebhook) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/subscription", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func activationEvent(userID string) dto.SubscriptionWebhook {
	return dto.SubscriptionWebhook{
		APIVersion: "1",
		Event: dto.SubscriptionEvent{
			Type:   dto.EventSubscriptionFirstActivated,
			ID:     "evt_" + uuid.NewString(),
			UserID: userID,
		},
	}
}

func decodeAck(t *testing.T, resp *http.Response) dto.WebhookAckResponse {
	t.Helper()
	defer resp.Body.Close()
	var ack dto.WebhookAckResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	return ack
}

func TestWebhookRequiresToken(t *testing.T) {
	app, _ := newWebhookApp(t)

	resp := postWebhook(t, app, "", activationEvent(uuid.NewString()))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = postWebhook(t, app, "wrong-token", activationEvent(uuid.NewString()))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebhookCountsActivation(t *testing.T) {
	app, db := newWebhookApp(t)
	referrer := seedUser(t, db, "REFAAAAA", nil)
	referred := seedUser(t, db, "REFBBBBB", &referrer.ID)

	resp := postWebhook(t, app, testWebhookToken, activationEvent(referred.ID.String()))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ack := decodeAck(t, resp)
	assert.True(t, ack.Received)
	assert.True(t, ack.Counted)
	assert.False(t, ack.CycleClosed)
}

func TestWebhookDuplicateDeliveryIsAcknowledged(t *testing.T) {
	app, db := newWebhookApp(t)
	referrer := seedUser(t, db, "REFAAAAA", nil)
	referred := seedUser(t, db, "REFBBBBB", &referrer.ID)

	event := activationEvent(referred.ID.String())

	resp := postWebhook(t, app, testWebhookToken, event)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decodeAck(t, resp).Counted)

	// Redelivery succeeds but counts nothing.
	resp = postWebhook(t, app, testWebhookToken, event)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ack := decodeAck(t, resp)
	assert.True(t, ack.Received)
	assert.False(t, ack.Counted)
}

func TestWebhookClosesCycle(t *testing.T) {
	app, db := newWebhookApp(t)
	referrer := seedUser(t, db, "REFAAAAA", nil)

	for i := 0; i < 3; i++ {
		referred := seedUser(t, db, fmt.Sprintf("REFBBBB%d", i), &referrer.ID)
		resp := postWebhook(t, app, testWebhookToken, activationEvent(referred.ID.String()))
		require.Equal(t, http.StatusOK, resp.StatusCode)

		ack := decodeAck(t, resp)
		assert.Equal(t, i == 2, ack.CycleClosed)
	}

	var rewards int64
	require.NoError(t, db.Model(&models.ReferralReward{}).Count(&rewards).Error)
	assert.Equal(t, int64(1), rewards)
}

func TestWebhookUnknownUserIsNotRetryable(t *testing.T) {
	app, _ := newWebhookApp(t)

	resp := postWebhook(t, app, testWebhookToken, activationEvent(uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postWebhook(t, app, testWebhookToken, activationEvent("not-a-uuid"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebhookIgnoresRenewals(t *testing.T) {
	app, db := newWebhookApp(t)
	referrer := seedUser(t, db, "REFAAAAA", nil)
	referred := seedUser(t, db, "REFBBBBB", &referrer.ID)

	resp := postWebhook(t, app, testWebhookToken, dto.SubscriptionWebhook{
		APIVersion: "1",
		Event: dto.SubscriptionEvent{
			Type:   dto.EventSubscriptionRenewed,
			UserID: referred.ID.String(),
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ack := decodeAck(t, resp)
	assert.True(t, ack.Received)
	assert.False(t, ack.Counted)
}
