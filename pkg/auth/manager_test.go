package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pawsitter/backend/internal/config"
	"github.com/pawsitter/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m, err := NewManager(config.JWTConfig{SigningKey: "secret", AccessTokenTTL: time.Minute})
	require.NoError(t, err)

	id := uuid.New()
	token, ttl, err := m.NewJWT(id, domain.UserRoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, ttl)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, claims.Role)

	got, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestManager_RejectsForeignAndExpiredTokens(t *testing.T) {
	m, err := NewManager(config.JWTConfig{SigningKey: "secret", AccessTokenTTL: time.Minute})
	require.NoError(t, err)
	other, err := NewManager(config.JWTConfig{SigningKey: "other", AccessTokenTTL: time.Minute})
	require.NoError(t, err)

	token, _, err := other.NewJWT(uuid.New(), domain.UserRoleSitter)
	require.NoError(t, err)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	expired, _, err := (&Manager{signingKey: "secret", accessTokenTTL: -time.Minute}).NewJWT(uuid.New(), domain.UserRoleSitter)
	require.NoError(t, err)
	_, err = m.Parse(expired)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestNewManager_Validates(t *testing.T) {
	_, err := NewManager(config.JWTConfig{AccessTokenTTL: time.Minute})
	assert.Error(t, err)
	_, err = NewManager(config.JWTConfig{SigningKey: "secret"})
	assert.Error(t, err)
}
