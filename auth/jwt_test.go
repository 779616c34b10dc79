package auth

import (
	"testing"
	"time"

	"farmtrace/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *models.User {
	return &models.User{
		UserID: "user-test",
		Email:  "test@farmtrace.dev",
		Role:   models.RoleFarmer,
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := NewJWTManager("test-secret", 30*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-test", claims.UserID)
	assert.Equal(t, "test@farmtrace.dev", claims.Email)
	assert.Equal(t, models.RoleFarmer, claims.Role)
	assert.Equal(t, "farmtrace-api", claims.Issuer)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	m := NewJWTManager("test-secret", 30*time.Minute, 7*24*time.Hour)
	other := NewJWTManager("other-secret", 30*time.Minute, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	m := NewJWTManager("test-secret", -time.Minute, 7*24*time.Hour)

	token, err := m.GenerateToken(testUser())
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}

func TestExtractToken(t *testing.T) {
	token, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = ExtractToken("")
	assert.Error(t, err)

	_, err = ExtractToken("Basic abc")
	assert.Error(t, err)
}
