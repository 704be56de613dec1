package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
)

// ProfileRepository handles profile database operations
type ProfileRepository struct {
	db *pgxpool.Pool
}

func NewProfileRepository(db *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileReturning = "RETURNING user_id, is_organizer, notifications_opt_out, about_me, profile_picture, updated_at"

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.UserID, &p.IsOrganizer, &p.NotificationsOptOut, &p.AboutMe, &p.ProfilePicture, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByUserID returns apperrors.ErrProfileNotFound when the user has no profile row.
func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	sql, args, err := psql.Select("user_id", "is_organizer", "notifications_opt_out", "about_me", "profile_picture", "updated_at").
		From("profiles").
		Where("user_id = ?", userID).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get profile query: %w", err)
	}
	p, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProfileNotFound
		}
		return nil, fmt.Errorf("error retrieving profile: %w", err)
	}
	return p, nil
}

// Save upserts p, so users created before profiles existed get one on first edit.
func (r *ProfileRepository) Save(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	sql, args, err := psql.Insert("profiles").
		Columns("user_id", "is_organizer", "notifications_opt_out", "about_me", "profile_picture").
		Values(p.UserID, p.IsOrganizer, p.NotificationsOptOut, p.AboutMe, p.ProfilePicture).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			is_organizer = EXCLUDED.is_organizer,
			notifications_opt_out = EXCLUDED.notifications_opt_out,
			about_me = EXCLUDED.about_me,
			profile_picture = EXCLUDED.profile_picture,
			updated_at = NOW() ` + profileReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build save profile query: %w", err)
	}
	saved, err := scanProfile(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, fmt.Errorf("error saving profile: %w", err)
	}
	return saved, nil
}
