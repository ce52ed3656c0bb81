package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "test-access-secret-key-for-testing-purposes"
	testRefreshSecret = "test-refresh-secret-key-for-testing-purposes"
)

func newTestService() *Service {
	return NewService(testAccessSecret, testRefreshSecret, time.Hour, 24*time.Hour, 15*time.Minute)
}

func testIdentity() Identity {
	return Identity{
		OrganizationID: uuid.New(),
		Email:          "owner@irontemple.test",
		GymName:        "Iron Temple",
		Mode:           "EMPLOYEE",
	}
}

func TestGenerateAccessToken(t *testing.T) {
	service := newTestService()
	id := testIdentity()

	token, err := service.GenerateAccessToken(id)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, id.OrganizationID, claims.OrganizationID)
	assert.Equal(t, id.GymName, claims.GymName)
	assert.Equal(t, "EMPLOYEE", claims.Mode)
	assert.Equal(t, AccessToken, claims.TokenType)
	assert.True(t, claims.HasRole(RoleOperator))
	assert.False(t, claims.HasRole(RoleAdmin))
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestGenerateAdminToken(t *testing.T) {
	service := newTestService()

	token, err := service.GenerateAdminToken(testIdentity())
	require.NoError(t, err)

	claims, err := service.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.True(t, claims.HasRole(RoleAdmin))
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestRefreshTokensAreUnique(t *testing.T) {
	service := newTestService()
	id := testIdentity()

	first, err := service.GenerateRefreshToken(id)
	require.NoError(t, err)
	second, err := service.GenerateRefreshToken(id)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestValidateToken_WrongType(t *testing.T) {
	service := newTestService()
	id := testIdentity()

	refresh, err := service.GenerateRefreshToken(id)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(refresh)
	assert.Error(t, err)

	access, err := service.GenerateAccessToken(id)
	require.NoError(t, err)

	_, err = service.ValidateRefreshToken(access)
	assert.Error(t, err)
}

func TestValidateToken_Expired(t *testing.T) {
	service := NewService(testAccessSecret, testRefreshSecret, -time.Minute, time.Hour, time.Minute)

	token, err := service.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(token)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	assert.True(t, IsExpired(err))
}

func TestValidateToken_RejectsOtherSigningMethods(t *testing.T) {
	service := newTestService()
	claims := Claims{
		OrganizationID:   uuid.New(),
		TokenType:        AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: issuer, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = service.ValidateAccessToken(signed)
	assert.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	other := NewService("another-access-secret", testRefreshSecret, time.Hour, time.Hour, time.Minute)
	token, err := other.GenerateAccessToken(testIdentity())
	require.NoError(t, err)

	_, err = newTestService().ValidateAccessToken(token)
	assert.Error(t, err)
}
