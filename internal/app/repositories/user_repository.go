package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/db"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/dberrors"
	"github.com/gatherly/gatherly/internal/pkg/logger"
)

const (
	usernameUniqueConstraint = "users_username_key"
	emailUniqueConstraint    = "users_email_key"
)

var userColumns = []string{
	"id", "username", "email", "password", "first_name", "last_name",
	"is_staff", "is_superuser", "is_active", "last_login_at", "created_at", "updated_at",
}

// UserRepository handles user database operations
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName,
		&u.IsStaff, &u.IsSuperuser, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateWithProfile inserts the user and its profile in one transaction and sets the
// generated ID on both.
func (r *UserRepository) CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		sql, args, err := psql.Insert("users").
			Columns("username", "email", "password", "first_name", "last_name", "is_staff", "is_superuser", "is_active").
			Values(user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.IsStaff, user.IsSuperuser, true).
			Suffix("RETURNING id, is_active, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create user query: %w", err)
		}

		err = tx.QueryRow(ctx, sql, args...).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			switch {
			case dberrors.IsDuplicateConstraintError(err, usernameUniqueConstraint):
				return apperrors.ErrUsernameAlreadyExists
			case dberrors.IsDuplicateConstraintError(err, emailUniqueConstraint):
				return apperrors.ErrEmailAlreadyExists
			}
			logger.Error().Err(err).Str("username", user.Username).Msg("Error creating user")
			return fmt.Errorf("error creating user: %w", err)
		}

		profile.UserID = user.ID
		sql, args, err = psql.Insert("profiles").
			Columns("user_id", "is_organizer", "notifications_opt_out", "about_me", "profile_picture").
			Values(profile.UserID, profile.IsOrganizer, profile.NotificationsOptOut, profile.AboutMe, profile.ProfilePicture).
			Suffix("RETURNING updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build create profile query: %w", err)
		}
		if err := tx.QueryRow(ctx, sql, args...).Scan(&profile.UpdatedAt); err != nil {
			return fmt.Errorf("error creating profile: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	sql, args, err := psql.Select(userColumns...).From("users").Where(column+" = ?", value).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}
	u, err := scanUser(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// GetByEmail matches case-insensitively.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "LOWER(email)", lower(email))
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	sql, args, err := psql.Update("users").
		Set("password", hash).
		Set("updated_at", squirrelNow).
		Where("id = ?", userID).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update password query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	sql, args, err := psql.Update("users").Set("last_login_at", at).Where("id = ?", userID).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update last login query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}
