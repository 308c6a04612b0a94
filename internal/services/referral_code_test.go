package services_test

import (
	"testing"

	"github.com/mechchat/referral-service/internal/services"
	"github.com/mechchat/referral-service/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUniqueCodeFormat(t *testing.T) {
	db := testutil.NewDB(t)

	code, err := services.GenerateUniqueCode(db, 5)
	require.NoError(t, err)

	assert.Len(t, code, 8)
	assert.Equal(t, "REF", code[:3])
	for _, ch := range code[3:] {
		assert.NotContains(t, "01ILO", string(ch), "ambiguous glyphs are excluded")
		assert.True(t, (ch >= 'A' && ch <= 'Z') || (ch >= '2' && ch <= '9'))
	}
}

func TestGenerateUniqueCodeAvoidsTakenCodes(t *testing.T) {
	db := testutil.NewDB(t)

	taken := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := services.GenerateUniqueCode(db, 5)
		require.NoError(t, err)
		assert.False(t, taken[code])
		taken[code] = true
		createUser(t, db, code, nil)
	}
}
