package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/conjunto-service/internal/auth"
	"github.com/spec-kit/conjunto-service/internal/domain"
	"github.com/spec-kit/conjunto-service/internal/events"
	"github.com/spec-kit/conjunto-service/internal/repository"
	apperrors "github.com/spec-kit/conjunto-service/pkg/util"
)

// invalidCredentials is the single message returned for every login failure
// so responses never reveal whether the account exists.
const invalidCredentials = "credenciales inválidas"

// LoginLimiter tracks failed login attempts per account.
type LoginLimiter interface {
	TooManyAttempts(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

type redisLoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	lockout     time.Duration
}

// NewRedisLoginLimiter builds a lockout counter over Redis. The counter
// expires after the lockout window, so a locked account frees itself.
func NewRedisLoginLimiter(client *redis.Client, maxAttempts int, lockout time.Duration) LoginLimiter {
	return &redisLoginLimiter{client: client, maxAttempts: maxAttempts, lockout: lockout}
}

func attemptsKey(email string) string {
	return "auth:attempts:" + strings.ToLower(email)
}

func (l *redisLoginLimiter) TooManyAttempts(ctx context.Context, email string) (bool, error) {
	count, err := l.client.Get(ctx, attemptsKey(email)).Int()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= l.maxAttempts, nil
}

func (l *redisLoginLimiter) RecordFailure(ctx context.Context, email string) error {
	key := attemptsKey(email)
	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return l.client.Expire(ctx, key, l.lockout).Err()
	}
	return nil
}

func (l *redisLoginLimiter) Reset(ctx context.Context, email string) error {
	return l.client.Del(ctx, attemptsKey(email)).Err()
}

// AuthService handles account registration and the credential flows.
type AuthService struct {
	users      repository.UserRepository
	conjuntos  repository.ConjuntoRepository
	tokens     *auth.TokenManager
	limiter    LoginLimiter
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	ConjuntoRepo repository.ConjuntoRepository
	Tokens       *auth.TokenManager
	Limiter      LoginLimiter
	Dispatcher   events.Dispatcher
	BcryptCost   int
}

// RegisterInput describes the account registration payload.
type RegisterInput struct {
	Email      string
	Password   string
	FullName   string
	Role       domain.Role
	ConjuntoID *string
	TenantID   *string
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		conjuntos:  deps.ConjuntoRepo,
		tokens:     deps.Tokens,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		bcryptCost: deps.BcryptCost,
		now:        time.Now,
	}
}

// Register creates an account and hands an email verification token to the
// notification path.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if err := validateRegister(input); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Role:         input.Role,
		ConjuntoID:   input.ConjuntoID,
		TenantID:     input.TenantID,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if token, err := s.tokens.GenerateEmailVerificationToken(user.ID, user.Email); err == nil {
		s.publish(ctx, events.Event{
			Type:     events.EventEmailVerifyIssued,
			EntityID: user.ID,
			Payload:  events.TokenIssuedPayload{Email: user.Email, Token: token},
		})
	}
	return user, nil
}

// Login verifies credentials and issues the token pair. Every failure path
// answers with the same message.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, *auth.AuthTokens, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil {
		locked, err := s.limiter.TooManyAttempts(ctx, email)
		if err == nil && locked {
			return nil, nil, apperrors.NewUnauthorized("demasiados intentos, intente más tarde")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		s.recordFailure(ctx, email)
		return nil, nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.recordFailure(ctx, email)
		return nil, nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if !user.Active {
		return nil, nil, apperrors.NewForbidden("account is inactive")
	}
	if user.TenantID != nil {
		conjunto, err := s.conjuntos.GetByTenantID(ctx, *user.TenantID)
		if err != nil {
			return nil, nil, apperrors.MapError(err)
		}
		if !conjunto.Active {
			return nil, nil, apperrors.NewForbidden("conjunto is inactive")
		}
	}

	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, email)
	}
	_ = s.users.UpdateLastLogin(ctx, user.ID, s.now())

	tokens, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.User, *auth.AuthTokens, error) {
	claims := s.tokens.VerifyRefreshToken(refreshToken)
	if claims == nil {
		return nil, nil, apperrors.NewUnauthorized("invalid or expired refresh token")
	}
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid or expired refresh token")
	}
	if !user.Active {
		return nil, nil, apperrors.NewForbidden("account is inactive")
	}
	tokens, err := s.tokens.GenerateAuthTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// ForgotPassword always reports success. When the account exists the reset
// token goes to the notification path, never into the response.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil || !user.Active {
		return nil
	}
	token, err := s.tokens.GeneratePasswordResetToken(user.ID, user.Email)
	if err != nil {
		return nil
	}
	s.publish(ctx, events.Event{
		Type:     events.EventPasswordResetIssued,
		EntityID: user.ID,
		Payload:  events.TokenIssuedPayload{Email: user.Email, Token: token},
	})
	return nil
}

// ResetPassword consumes a reset token and stores the new hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims := s.tokens.VerifyPasswordResetToken(token)
	if claims == nil {
		return apperrors.NewUnauthorized("invalid or expired reset token")
	}
	if len(newPassword) < 8 {
		return apperrors.NewValidationError("validation failed", map[string]any{
			"password": "must have at least 8 characters",
		})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		return apperrors.MapError(err)
	}
	if s.limiter != nil {
		_ = s.limiter.Reset(ctx, claims.Email)
	}
	return nil
}

// VerifyEmail consumes a verification token and marks the account verified.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	claims := s.tokens.VerifyEmailVerificationToken(token)
	if claims == nil {
		return apperrors.NewUnauthorized("invalid or expired verification token")
	}
	if err := s.users.MarkEmailVerified(ctx, claims.UserID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.limiter != nil {
		_ = s.limiter.RecordFailure(ctx, email)
	}
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now()
	_ = s.dispatcher.Publish(ctx, event)
}

func validateRegister(input RegisterInput) error {
	details := map[string]any{}
	email := strings.TrimSpace(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		details["email"] = "must be a valid email address"
	}
	if len(input.Password) < 8 {
		details["password"] = "must have at least 8 characters"
	}
	if utf8.RuneCountInString(strings.TrimSpace(input.FullName)) < 3 {
		details["nombreCompleto"] = "must have at least 3 characters"
	}
	if !input.Role.IsValid() {
		details["rol"] = fmt.Sprintf("%q is not a recognized role", string(input.Role))
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("validation failed", details)
	}
	return nil
}
