package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/pkg/errorutil"
)

const minPasswordLength = 8

// AuthService handles registration, login and password management.
type AuthService struct {
	users    repository.UserRepository
	resets   repository.PasswordResetRepository
	tokens   *auth.TokenManager
	hasher   *auth.PasswordHasher
	resetTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// AuthDependencies bundles collaborators for the auth service.
type AuthDependencies struct {
	UserRepo  repository.UserRepository
	ResetRepo repository.PasswordResetRepository
	Tokens    *auth.TokenManager
	Hasher    *auth.PasswordHasher
	ResetTTL  time.Duration
	Logger    *zap.Logger
}

// NewAuthService constructs the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	resetTTL := deps.ResetTTL
	if resetTTL <= 0 {
		resetTTL = 30 * time.Minute
	}
	return &AuthService{
		users:    deps.UserRepo,
		resets:   deps.ResetRepo,
		tokens:   deps.Tokens,
		hasher:   deps.Hasher,
		resetTTL: resetTTL,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// Register creates a customer account. Staff accounts are provisioned out of
// band, never through the public endpoint.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, errorutil.NewValidationError("name is required", nil)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, errorutil.NewValidationError("invalid email", map[string]any{"email": email})
	}
	if len(password) < minPasswordLength {
		return nil, errorutil.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errorutil.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.MapError(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, errorutil.MapError(err)
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errorutil.MapError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return user, nil
}

// Login verifies credentials and issues an access token. Unknown email and
// wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil, errorutil.NewUnauthorized("invalid credentials")
		}
		return "", nil, errorutil.MapError(err)
	}
	if !s.hasher.Compare(user.PasswordHash, password) {
		return "", nil, errorutil.NewUnauthorized("invalid credentials")
	}
	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", nil, errorutil.MapError(err)
	}
	return token, user, nil
}

// ChangePassword updates the caller's password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errorutil.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return errorutil.MapError(err)
	}
	if !s.hasher.Compare(user.PasswordHash, oldPassword) {
		return errorutil.NewUnauthorized("invalid credentials")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errorutil.MapError(err)
	}
	return errorutil.MapError(s.users.UpdatePassword(ctx, userID, hash))
}

// RequestPasswordReset creates a single-use reset token. The token is
// returned to the caller for delivery; whether the email exists is never
// revealed, so an unknown address yields an empty token and no error.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", errorutil.MapError(err)
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errorutil.MapError(err)
	}
	reset := &repository.PasswordReset{
		UserID:    user.ID,
		Token:     hex.EncodeToString(buf),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return "", errorutil.MapError(err)
	}
	return reset.Token, nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return errorutil.NewValidationError("password too short", map[string]any{"min_length": minPasswordLength})
	}
	reset, err := s.resets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewUnauthorized("invalid reset token")
		}
		return errorutil.MapError(err)
	}
	if reset.UsedAt != nil || s.now().After(reset.ExpiresAt) {
		return errorutil.NewUnauthorized("invalid reset token")
	}
	// MarkUsed is conditional on the token being unused; losing the race
	// means another confirm consumed it first.
	if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewUnauthorized("invalid reset token")
		}
		return errorutil.MapError(err)
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return errorutil.MapError(err)
	}
	return errorutil.MapError(s.users.UpdatePassword(ctx, reset.UserID, hash))
}

// GetProfile returns the caller's own user record.
func (s *AuthService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errorutil.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, errorutil.MapError(err)
	}
	return user, nil
}
