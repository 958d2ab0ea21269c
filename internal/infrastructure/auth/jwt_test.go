package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studioops/backend/internal/infrastructure/config"
)

func newTestJWTService(expiration time.Duration) *JWTService {
	return NewJWTService(config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing",
		TokenExpiration: expiration,
		Issuer:          "studioops-test",
	})
}

func TestJWTService_GenerateAndValidate(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	p := Principal{
		ID:   uuid.New(),
		Role: RoleCustomer,
		Name: "Ada Lovelace",
	}

	token, err := svc.GenerateToken(p)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, RoleCustomer, got.Role)
	assert.Equal(t, "Ada Lovelace", got.Name)
	assert.False(t, got.IsAdmin())
}

func TestJWTService_AdminRole(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateToken(Principal{ID: uuid.New(), Role: RoleAdmin, Name: "ops"})
	require.NoError(t, err)

	got, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
}

func TestJWTService_InvalidRole(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	_, err := svc.GenerateToken(Principal{ID: uuid.New(), Role: Role("superuser")})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestJWTService_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(-time.Minute)

	token, err := svc.GenerateToken(Principal{ID: uuid.New(), Role: RoleCustomer})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	svc := newTestJWTService(time.Hour)
	other := NewJWTService(config.JWTConfig{
		Secret:          "a-completely-different-secret",
		TokenExpiration: time.Hour,
		Issuer:          "studioops-test",
	})

	token, err := svc.GenerateToken(Principal{ID: uuid.New(), Role: RoleCustomer})
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_MalformedToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := svc.ValidateToken(raw)
		assert.Error(t, err, "token %q", raw)
	}
}

func TestJWTService_TamperedToken(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateToken(Principal{ID: uuid.New(), Role: RoleCustomer})
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("x", len(parts[2]))

	_, err = svc.ValidateToken(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
