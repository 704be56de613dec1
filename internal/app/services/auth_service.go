package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	tokens "github.com/gatherly/gatherly/internal/pkg/auth"
	"github.com/gatherly/gatherly/internal/pkg/email"
	"github.com/rs/zerolog"
)

// DefaultResetTokenTTL is used when no reset token lifetime is configured.
const DefaultResetTokenTTL = time.Hour

// AuthService handles signup, login, token refresh and password resets.
type AuthService struct {
	users         UserStore
	refreshTokens RefreshTokenStore
	resetTokens   ResetTokenStore
	jwtService    *tokens.JWTService
	mailer        email.EmailService
	resetTokenTTL time.Duration
	logger        zerolog.Logger
}

func NewAuthService(
	users UserStore,
	refreshTokens RefreshTokenStore,
	resetTokens ResetTokenStore,
	jwtService *tokens.JWTService,
	mailer email.EmailService,
	resetTokenTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	if resetTokenTTL <= 0 {
		resetTokenTTL = DefaultResetTokenTTL
	}
	return &AuthService{
		users:         users,
		refreshTokens: refreshTokens,
		resetTokens:   resetTokens,
		jwtService:    jwtService,
		mailer:        mailer,
		resetTokenTTL: resetTokenTTL,
		logger:        logger,
	}
}

// validatePassword requires at least one letter and one digit; length is checked by
// request binding.
func validatePassword(field, password string) error {
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if len(password) < 8 {
		return apperrors.NewValidationError(field, "password must be at least 8 characters long")
	}
	if !hasLetter || !hasDigit {
		return apperrors.NewValidationError(field, "password must contain at least one letter and one digit")
	}
	return nil
}

// Signup creates a user together with its profile.
func (s *AuthService) Signup(ctx context.Context, req *dto.SignupRequest) (*models.User, error) {
	if err := validatePassword("password", req.Password); err != nil {
		return nil, err
	}

	hash, err := tokens.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	}
	profile := &models.Profile{IsOrganizer: req.IsOrganizer}
	if err := s.users.CreateWithProfile(ctx, user, profile); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("userId", user.ID).Str("username", user.Username).Msg("User registered")
	return user, nil
}

// Login checks credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !tokens.CheckPassword(user.Password, req.Password) {
		s.logger.Debug().Str("username", user.Username).Msg("Login with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	return s.issueTokens(ctx, user)
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*dto.AuthResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}
	if err := s.refreshTokens.CreateToken(ctx, pair.RefreshToken, user.ID, s.jwtService.RefreshTokenExpiry()); err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Token: dto.TokenResponse{
			AccessToken:           pair.AccessToken,
			TokenType:             "Bearer",
			ExpiresIn:             int64(pair.ExpiresIn),
			RefreshToken:          pair.RefreshToken,
			RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
		},
		User: dto.NewUserResponse(user),
	}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new pair issued.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	userID, err := s.refreshTokens.ValidateToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrTokenInvalid
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	if err := s.refreshTokens.RevokeToken(ctx, userID, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes refreshToken, or every token of the user when it is empty.
func (s *AuthService) Logout(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken == "" {
		return s.refreshTokens.RevokeAllUserTokens(ctx, userID)
	}
	return s.refreshTokens.RevokeToken(ctx, userID, refreshToken)
}

// RequestPasswordReset mails a reset link when the address belongs to an active user.
// Unknown addresses are not reported to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Debug().Msg("Password reset requested for unknown email")
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, err := tokens.GenerateResetToken()
	if err != nil {
		return err
	}
	if err := s.resetTokens.CreateToken(ctx, user.ID, token, time.Now().Add(s.resetTokenTTL)); err != nil {
		return err
	}

	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	if err := s.mailer.SendPasswordResetEmail(user.Email, name, token); err != nil {
		s.logger.Error().Err(err).Int64("userId", user.ID).Msg("Failed to send password reset email")
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

// ConfirmPasswordReset sets a new password and revokes all refresh tokens of the user.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validatePassword("newPassword", newPassword); err != nil {
		return err
	}
	userID, err := s.resetTokens.Consume(ctx, token)
	if err != nil {
		return err
	}
	hash, err := tokens.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.refreshTokens.RevokeAllUserTokens(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Int64("userId", userID).Msg("Failed to revoke tokens after password reset")
	}
	s.logger.Info().Int64("userId", userID).Msg("Password reset completed")
	return nil
}

// CleanupExpiredTokens removes expired refresh and reset tokens.
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) error {
	refresh, err := s.refreshTokens.CleanupExpiredTokens(ctx)
	if err != nil {
		return err
	}
	reset, err := s.resetTokens.DeleteExpiredTokens(ctx)
	if err != nil {
		return err
	}
	s.logger.Debug().Int64("refreshTokens", refresh).Int64("resetTokens", reset).Msg("Expired tokens removed")
	return nil
}
