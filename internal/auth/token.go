package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/conjunto-service/internal/config"
	"github.com/spec-kit/conjunto-service/internal/domain"
)

// Audience strings keep the token kinds from being replayed against each
// other: an access token never verifies as a refresh token and vice versa.
const (
	audienceAccess  = "conjunto-users"
	audienceRefresh = "conjunto-refresh"
	audiencePurpose = "conjunto-tokens"
)

// TokenPurpose discriminates single-purpose tokens.
type TokenPurpose string

const (
	PurposePasswordReset     TokenPurpose = "password-reset"
	PurposeEmailVerification TokenPurpose = "email-verification"
)

// AccessClaims is the payload of short-lived access tokens.
type AccessClaims struct {
	UserID     string      `json:"userId"`
	Email      string      `json:"email"`
	Role       domain.Role `json:"rol"`
	ConjuntoID *string     `json:"conjuntoId,omitempty"`
	TenantID   *string     `json:"tenantId,omitempty"`
	FullName   string      `json:"nombreCompleto"`
	jwt.RegisteredClaims
}

// RefreshClaims carries only the user id, signed with a separate secret.
type RefreshClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// PurposeClaims is the payload of password-reset and email-verification tokens.
type PurposeClaims struct {
	UserID  string       `json:"userId"`
	Email   string       `json:"email"`
	Purpose TokenPurpose `json:"type"`
	jwt.RegisteredClaims
}

// AuthTokens bundles the pair issued on login.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// TokenManager issues and verifies all token kinds.
type TokenManager struct {
	secret        []byte
	refreshSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
	verifyTTL     time.Duration
	now           func() time.Time
}

// NewTokenManager builds a manager from auth configuration.
func NewTokenManager(cfg config.AuthConfig) *TokenManager {
	accessTTL := time.Duration(cfg.AccessTokenTTLMinutes) * time.Minute
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &TokenManager{
		secret:        []byte(cfg.JWTSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		issuer:        cfg.Issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      time.Duration(cfg.PasswordResetTTLMinutes) * time.Minute,
		verifyTTL:     time.Duration(cfg.EmailVerificationTTLHours) * time.Hour,
		now:           time.Now,
	}
}

// GenerateAuthTokens issues the access/refresh pair for a user.
func (tm *TokenManager) GenerateAuthTokens(user *domain.User) (*AuthTokens, error) {
	now := tm.now()
	access := &AccessClaims{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		ConjuntoID: user.ConjuntoID,
		TenantID:   user.TenantID,
		FullName:   user.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audienceAccess},
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, access).SignedString(tm.secret)
	if err != nil {
		return nil, err
	}

	refresh := &RefreshClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audienceRefresh},
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refresh).SignedString(tm.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(tm.accessTTL.Seconds()),
	}, nil
}

// VerifyAccessToken checks signature, issuer and audience. Returns nil on any
// failure: expired, malformed, wrong signature or wrong audience.
func (tm *TokenManager) VerifyAccessToken(tokenStr string) *AccessClaims {
	claims := &AccessClaims{}
	if !tm.parse(tokenStr, claims, tm.secret, audienceAccess) {
		return nil
	}
	return claims
}

// VerifyRefreshToken validates against the separate refresh secret/audience.
func (tm *TokenManager) VerifyRefreshToken(tokenStr string) *RefreshClaims {
	claims := &RefreshClaims{}
	if !tm.parse(tokenStr, claims, tm.refreshSecret, audienceRefresh) {
		return nil
	}
	return claims
}

// GeneratePasswordResetToken issues a short-lived single-purpose token.
func (tm *TokenManager) GeneratePasswordResetToken(userID, email string) (string, error) {
	return tm.generatePurposeToken(userID, email, PurposePasswordReset, tm.resetTTL)
}

// GenerateEmailVerificationToken issues a 24h single-purpose token.
func (tm *TokenManager) GenerateEmailVerificationToken(userID, email string) (string, error) {
	return tm.generatePurposeToken(userID, email, PurposeEmailVerification, tm.verifyTTL)
}

// VerifyPasswordResetToken rejects tokens whose purpose does not match, even
// when the signature is valid.
func (tm *TokenManager) VerifyPasswordResetToken(tokenStr string) *PurposeClaims {
	return tm.verifyPurposeToken(tokenStr, PurposePasswordReset)
}

// VerifyEmailVerificationToken rejects tokens whose purpose does not match.
func (tm *TokenManager) VerifyEmailVerificationToken(tokenStr string) *PurposeClaims {
	return tm.verifyPurposeToken(tokenStr, PurposeEmailVerification)
}

func (tm *TokenManager) generatePurposeToken(userID, email string, purpose TokenPurpose, ttl time.Duration) (string, error) {
	now := tm.now()
	claims := &PurposeClaims{
		UserID:  userID,
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    tm.issuer,
			Audience:  jwt.ClaimStrings{audiencePurpose},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) verifyPurposeToken(tokenStr string, expected TokenPurpose) *PurposeClaims {
	claims := &PurposeClaims{}
	if !tm.parse(tokenStr, claims, tm.secret, audiencePurpose) {
		return nil
	}
	if claims.Purpose != expected {
		return nil
	}
	return claims
}

func (tm *TokenManager) parse(tokenStr string, claims jwt.Claims, secret []byte, audience string) bool {
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	},
		jwt.WithIssuer(tm.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(tm.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	return true
}
