package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/pkg/apperrors"
)

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	db *pgxpool.Pool
}

func NewPasswordResetTokenRepository(db *pgxpool.Pool) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{db: db}
}

// CreateToken stores token for userID, replacing any unused token of that user.
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1 AND used_at IS NULL`, userID); err != nil {
		return fmt.Errorf("error clearing previous reset tokens: %w", err)
	}

	const query = `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, userID, token, expiresAt); err != nil {
		return fmt.Errorf("error creating password reset token: %w", err)
	}
	return nil
}

// Consume marks token used and returns its owner. Unknown or expired tokens yield
// ErrInvalidPasswordResetToken, already used ones ErrPasswordResetTokenUsed.
func (r *PasswordResetTokenRepository) Consume(ctx context.Context, token string) (int64, error) {
	const query = `
		UPDATE password_reset_tokens
		SET used_at = NOW()
		WHERE token = $1 AND used_at IS NULL AND expires_at > NOW()
		RETURNING user_id
	`
	var userID int64
	err := r.db.QueryRow(ctx, query, token).Scan(&userID)
	if err == nil {
		return userID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("error consuming password reset token: %w", err)
	}

	var usedAt *time.Time
	err = r.db.QueryRow(ctx, `SELECT used_at FROM password_reset_tokens WHERE token = $1`, token).Scan(&usedAt)
	if err == nil && usedAt != nil {
		return 0, apperrors.ErrPasswordResetTokenUsed
	}
	return 0, apperrors.ErrInvalidPasswordResetToken
}

func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired password reset tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
