package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/conjunto-service/internal/config"
	"github.com/spec-kit/conjunto-service/internal/domain"
)

func newTestTokenManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		JWTSecret:                 "test-secret",
		JWTRefreshSecret:          "test-refresh-secret",
		Issuer:                    "conjunto-service",
		AccessTokenTTLMinutes:     15,
		RefreshTokenTTLDays:       7,
		PasswordResetTTLMinutes:   30,
		EmailVerificationTTLHours: 24,
	})
}

func testUser() *domain.User {
	tenant := "cj0001"
	conjunto := "conj-1"
	return &domain.User{
		ID:         "user-1",
		Email:      "ana@ejemplo.com",
		FullName:   "Ana Residente",
		Role:       domain.RoleAdminConjunto,
		ConjuntoID: &conjunto,
		TenantID:   &tenant,
	}
}

func TestAuthTokensRoundTrip(t *testing.T) {
	tm := newTestTokenManager()
	user := testUser()

	tokens, err := tm.GenerateAuthTokens(user)
	require.NoError(t, err)
	assert.Equal(t, 15*60, tokens.ExpiresIn)

	claims := tm.VerifyAccessToken(tokens.AccessToken)
	require.NotNil(t, claims)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, domain.RoleAdminConjunto, claims.Role)
	require.NotNil(t, claims.TenantID)
	assert.Equal(t, "cj0001", *claims.TenantID)
	assert.Equal(t, user.FullName, claims.FullName)

	refresh := tm.VerifyRefreshToken(tokens.RefreshToken)
	require.NotNil(t, refresh)
	assert.Equal(t, user.ID, refresh.UserID)
}

func TestTokenKindsDoNotCross(t *testing.T) {
	tm := newTestTokenManager()
	tokens, err := tm.GenerateAuthTokens(testUser())
	require.NoError(t, err)

	assert.Nil(t, tm.VerifyAccessToken(tokens.RefreshToken))
	assert.Nil(t, tm.VerifyRefreshToken(tokens.AccessToken))
	assert.Nil(t, tm.VerifyPasswordResetToken(tokens.AccessToken))
}

func TestPurposeTokensAreNotInterchangeable(t *testing.T) {
	tm := newTestTokenManager()

	reset, err := tm.GeneratePasswordResetToken("user-1", "ana@ejemplo.com")
	require.NoError(t, err)
	verify, err := tm.GenerateEmailVerificationToken("user-1", "ana@ejemplo.com")
	require.NoError(t, err)

	claims := tm.VerifyPasswordResetToken(reset)
	require.NotNil(t, claims)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ana@ejemplo.com", claims.Email)

	// A valid signature is not enough, the purpose must match too.
	assert.Nil(t, tm.VerifyPasswordResetToken(verify))
	assert.Nil(t, tm.VerifyEmailVerificationToken(reset))
}

func TestVerifyRejectsOtherSecret(t *testing.T) {
	tm := newTestTokenManager()
	other := NewTokenManager(config.AuthConfig{
		JWTSecret:             "another-secret",
		JWTRefreshSecret:      "another-refresh-secret",
		Issuer:                "conjunto-service",
		AccessTokenTTLMinutes: 15,
		RefreshTokenTTLDays:   7,
	})

	tokens, err := other.GenerateAuthTokens(testUser())
	require.NoError(t, err)
	assert.Nil(t, tm.VerifyAccessToken(tokens.AccessToken))
	assert.Nil(t, tm.VerifyRefreshToken(tokens.RefreshToken))
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	tm := newTestTokenManager()
	issued := time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC)
	tm.now = func() time.Time { return issued }

	tokens, err := tm.GenerateAuthTokens(testUser())
	require.NoError(t, err)
	reset, err := tm.GeneratePasswordResetToken("user-1", "ana@ejemplo.com")
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(16 * time.Minute) }
	assert.Nil(t, tm.VerifyAccessToken(tokens.AccessToken))
	assert.NotNil(t, tm.VerifyRefreshToken(tokens.RefreshToken))

	tm.now = func() time.Time { return issued.Add(31 * time.Minute) }
	assert.Nil(t, tm.VerifyPasswordResetToken(reset))

	tm.now = func() time.Time { return issued.Add(8 * 24 * time.Hour) }
	assert.Nil(t, tm.VerifyRefreshToken(tokens.RefreshToken))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	tm := newTestTokenManager()
	assert.Nil(t, tm.VerifyAccessToken(""))
	assert.Nil(t, tm.VerifyAccessToken("not.a.jwt"))
	assert.Nil(t, tm.VerifyRefreshToken("not.a.jwt"))
	assert.Nil(t, tm.VerifyPasswordResetToken("not.a.jwt"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("segura123", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "segura123", hash)

	assert.NoError(t, ComparePassword(hash, "segura123"))
	assert.Error(t, ComparePassword(hash, "equivocada"))
}
