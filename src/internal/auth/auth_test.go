package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cookbookd/cookbookd/src/internal/database/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, CheckPasswordHash("wrong password", hash))
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewAuthService("test-secret", "cookbookd", time.Hour)

	user := &models.User{
		ID:    uuid.New(),
		Email: "cook@example.com",
	}

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "cook@example.com", claims.Email)
	assert.Equal(t, "cookbookd", claims.Issuer)
}

func TestValidateTokenRejectsWrongKey(t *testing.T) {
	issuing := NewAuthService("secret-one", "cookbookd", time.Hour)
	verifying := NewAuthService("secret-two", "cookbookd", time.Hour)

	token, _, err := issuing.GenerateToken(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = verifying.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	svc := NewAuthService("test-secret", "cookbookd", time.Hour)
	svc.tokenTTL = -time.Minute

	token, _, err := svc.GenerateToken(&models.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService("test-secret", "cookbookd", time.Hour)

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
