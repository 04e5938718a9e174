package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/conjunto-service/internal/api/dto"
	"github.com/spec-kit/conjunto-service/internal/auth"
	"github.com/spec-kit/conjunto-service/internal/service"
	"github.com/spec-kit/conjunto-service/internal/validation"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// RefreshTokenCookie is the http-only cookie carrying the refresh token.
const RefreshTokenCookie = "refresh-token"

// AuthHandler manages registration and credential endpoints.
type AuthHandler struct {
	service       *service.AuthService
	secureCookies bool
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, secureCookies bool, accessTTL, refreshTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		service:       authService,
		secureCookies: secureCookies,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Register POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	user, err := h.service.Register(c.Context(), service.RegisterInput{
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		Role:       req.Role,
		ConjuntoID: req.ConjuntoID,
		TenantID:   req.TenantID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	user, tokens, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSessionCookies(c, tokens.AccessToken, tokens.RefreshToken)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}})
}

// Refresh POST /auth/refresh. The token comes from the cookie or the body.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(RefreshTokenCookie)
	if token == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := c.BodyParser(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		return apperrors.NewUnauthorized("missing refresh token")
	}
	user, tokens, err := h.service.Refresh(c.Context(), token)
	if err != nil {
		return err
	}
	h.setSessionCookies(c, tokens.AccessToken, tokens.RefreshToken)
	return c.JSON(fiber.Map{"data": dto.LoginResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
	}})
}

// Logout POST /auth/logout.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.clearSessionCookies(c)
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "sesión cerrada"}})
}

// ForgotPassword POST /auth/forgot-password. Always success-shaped.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.ForgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	if err := h.service.ForgotPassword(c.Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"message": "si el correo existe, se enviaron instrucciones",
	}})
}

// ResetPassword POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	if err := h.service.ResetPassword(c.Context(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "contraseña actualizada"}})
}

// VerifyEmail POST /auth/verify-email.
func (h *AuthHandler) VerifyEmail(c *fiber.Ctx) error {
	var req dto.VerifyEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	if err := h.service.VerifyEmail(c.Context(), req.Token); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "correo verificado"}})
}

func (h *AuthHandler) setSessionCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	now := time.Now()
	c.Cookie(&fiber.Cookie{
		Name:     auth.AccessTokenCookie,
		Value:    accessToken,
		Expires:  now.Add(h.accessTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     RefreshTokenCookie,
		Value:    refreshToken,
		Expires:  now.Add(h.refreshTTL),
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: fiber.CookieSameSiteStrictMode,
		Path:     "/",
	})
}

func (h *AuthHandler) clearSessionCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	for _, name := range []string{auth.AccessTokenCookie, RefreshTokenCookie} {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Expires:  expired,
			HTTPOnly: true,
			Secure:   h.secureCookies,
			SameSite: fiber.CookieSameSiteStrictMode,
			Path:     "/",
		})
	}
}
