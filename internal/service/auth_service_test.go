package service

import (
	"testing"
	"time"

	"smarteventscape/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParseToken(t *testing.T) {
	token, exp, err := SignToken("test-secret", 42, models.RoleAdmin, 60)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(60*time.Minute), exp, 5*time.Second)

	userID, role, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, _, err := SignToken("test-secret", 42, models.RoleUser, 60)
	require.NoError(t, err)

	_, _, err = ParseToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenExpired(t *testing.T) {
	token, _, err := SignToken("test-secret", 42, models.RoleUser, -1)
	require.NoError(t, err)

	_, _, err = ParseToken("test-secret", token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenGarbage(t *testing.T) {
	_, _, err := ParseToken("test-secret", "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
