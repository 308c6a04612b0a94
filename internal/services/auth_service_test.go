package services_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mechchat/referral-service/internal/dto"
	"github.com/mechchat/referral-service/internal/models"
	"github.com/mechchat/referral-service/internal/services"
	"github.com/mechchat/referral-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAuthService(t *testing.T) (*services.AuthService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := testConfig()
	cfg.JWTSecret = "test-secret"
	cfg.JWTAccessExpiry = 15 * time.Minute
	cfg.JWTRefreshExpiry = 168 * time.Hour
	referrals := services.NewReferralService(db, cfg, nil)
	return services.NewAuthService(db, cfg, referrals), db
}

func TestRegisterAssignsReferralCode(t *testing.T) {
	auth, db := newAuthService(t)

	resp, err := auth.Register(&dto.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.True(t, strings.HasPrefix(resp.User.ReferralCode, "REF"))

	var user models.User
	require.NoError(t, db.First(&user, "id = ?", resp.User.ID).Error)
	assert.Nil(t, user.ReferredBy)
	assert.NotEqual(t, "password123", user.Password, "password must be stored hashed")
}

func TestRegisterWithReferralCode(t *testing.T) {
	auth, db := newAuthService(t)

	referrerResp, err := auth.Register(&dto.RegisterRequest{
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	referredResp, err := auth.Register(&dto.RegisterRequest{
		Username:     "bob",
		Password:     "password123",
		ReferralCode: referrerResp.User.ReferralCode,
	})
	require.NoError(t, err)

	var referred models.User
	require.NoError(t, db.First(&referred, "id = ?", referredResp.User.ID).Error)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrerResp.User.ID, *referred.ReferredBy)
}

func TestRegisterWithInvalidReferralCode(t *testing.T) {
	auth, db := newAuthService(t)

	_, err := auth.Register(&dto.RegisterRequest{
		Username:     "bob",
		Password:     "password123",
		ReferralCode: "REFNOPE1",
	})
	assert.ErrorIs(t, err, services.ErrInvalidReferralCode)

	// The rejected registration must leave no user behind.
	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	auth, _ := newAuthService(t)

	_, err := auth.Register(&dto.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, err = auth.Register(&dto.RegisterRequest{Username: "alice", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	auth, db := newAuthService(t)

	_, err := auth.Register(&dto.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := auth.Login(&dto.LoginRequest{Username: "alice", Password: "password123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(&dto.LoginRequest{Username: "alice", Password: "wrong-password"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := auth.Login(&dto.LoginRequest{Username: "mallory", Password: "password123"})
		assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	})

	t.Run("blocked account", func(t *testing.T) {
		require.NoError(t, db.Model(&models.User{}).Where("username = ?", "alice").Update("is_blocked", true).Error)
		_, err := auth.Login(&dto.LoginRequest{Username: "alice", Password: "password123"})
		assert.ErrorIs(t, err, services.ErrUserBlocked)
	})
}

func TestRefreshRotatesToken(t *testing.T) {
	auth, _ := newAuthService(t)

	reg, err := auth.Register(&dto.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	refreshed, err := auth.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, refreshed.RefreshToken)

	// The consumed token is revoked.
	_, err = auth.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestLogoutRevokesToken(t *testing.T) {
	auth, _ := newAuthService(t)

	reg, err := auth.Register(&dto.RegisterRequest{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, auth.Logout(&dto.LogoutRequest{RefreshToken: reg.RefreshToken}))

	_, err = auth.Refresh(&dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}
