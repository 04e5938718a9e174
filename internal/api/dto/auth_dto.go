package dto

import (
	"time"

	"github.com/spec-kit/conjunto-service/internal/domain"
)

// RegisterRequest payload.
type RegisterRequest struct {
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=8"`
	FullName   string      `json:"nombreCompleto" validate:"required,min=3"`
	Role       domain.Role `json:"rol" validate:"required"`
	ConjuntoID *string     `json:"conjuntoId"`
	TenantID   *string     `json:"tenantId"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest payload.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest payload.
type ResetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"password" validate:"required,min=8"`
}

// VerifyEmailRequest payload.
type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

// UserResponse is the account's wire shape; the hash never leaves the server.
type UserResponse struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	FullName      string      `json:"nombreCompleto"`
	Role          domain.Role `json:"rol"`
	ConjuntoID    *string     `json:"conjuntoId"`
	TenantID      *string     `json:"tenantId"`
	Active        bool        `json:"activo"`
	EmailVerified bool        `json:"emailVerificado"`
	LastLoginAt   *time.Time  `json:"ultimoAcceso"`
	CreatedAt     time.Time   `json:"fechaCreacion"`
}

// LoginResponse bundles the account and its token pair.
type LoginResponse struct {
	User         UserResponse `json:"usuario"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int          `json:"expiresIn"`
}

// NewUserResponse maps the domain account.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		FullName:      user.FullName,
		Role:          user.Role,
		ConjuntoID:    user.ConjuntoID,
		TenantID:      user.TenantID,
		Active:        user.Active,
		EmailVerified: user.EmailVerified,
		LastLoginAt:   user.LastLoginAt,
		CreatedAt:     user.CreatedAt,
	}
}
