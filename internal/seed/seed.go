// Package seed creates the data a fresh installation needs to be administered.
package seed

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	tokens "github.com/gatherly/gatherly/internal/pkg/auth"
)

// Admin describes the bootstrap superuser.
type Admin struct {
	Username string
	Email    string
	Password string
}

// UserCreator is satisfied by the user repository.
type UserCreator interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
}

// CreateDefaultData creates the configured superuser unless it already exists. An empty
// username or password disables seeding.
func CreateDefaultData(ctx context.Context, users UserCreator, admin Admin, lgr zerolog.Logger) error {
	username := strings.TrimSpace(admin.Username)
	if username == "" || admin.Password == "" {
		lgr.Debug().Msg("No admin account configured, skipping seed")
		return nil
	}

	_, err := users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		lgr.Debug().Str("username", username).Msg("Admin account already present")
		return nil
	case !errors.Is(err, apperrors.ErrUserNotFound):
		return err
	}

	hash, err := tokens.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	user := &models.User{
		Username:    username,
		Email:       strings.ToLower(strings.TrimSpace(admin.Email)),
		Password:    hash,
		IsStaff:     true,
		IsSuperuser: true,
	}
	profile := &models.Profile{IsOrganizer: true}

	err = users.CreateWithProfile(ctx, user, profile)
	if errors.Is(err, apperrors.ErrUsernameAlreadyExists) || errors.Is(err, apperrors.ErrEmailAlreadyExists) {
		lgr.Warn().Str("username", username).Msg("Admin account raced with another instance, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	lgr.Info().Int64("userID", user.ID).Str("username", username).Msg("Admin account created")
	return nil
}
