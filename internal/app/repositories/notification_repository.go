package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/db"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/logger"
)

var notificationColumns = []string{"id", "user_id", "event_id", "summary", "link", "read", "created_at"}

// NotificationRepository is the notification store.
type NotificationRepository struct {
	db *pgxpool.Pool
}

func NewNotificationRepository(db *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func scanNotification(row pgx.Row) (*models.Notification, error) {
	var n models.Notification
	if err := row.Scan(&n.ID, &n.UserID, &n.EventID, &n.Summary, &n.Link, &n.Read, &n.CreatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

// CreateBatch inserts all notifications in one transaction and returns the stored rows in
// input order. Either every row is written or none.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []models.Notification) ([]models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	stored := make([]models.Notification, 0, len(notifications))
	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, n := range notifications {
			sql, args, err := psql.Insert("notifications").
				Columns("user_id", "event_id", "summary", "link", "read").
				Values(n.UserID, n.EventID, n.Summary, n.Link, false).
				Suffix("RETURNING id, user_id, event_id, summary, link, read, created_at").
				ToSql()
			if err != nil {
				return fmt.Errorf("failed to build create notification query: %w", err)
			}
			batch.Queue(sql, args...)
		}

		results := tx.SendBatch(ctx, batch)
		for range notifications {
			n, err := scanNotification(results.QueryRow())
			if err != nil {
				_ = results.Close()
				return fmt.Errorf("error inserting notification: %w", err)
			}
			stored = append(stored, *n)
		}
		return results.Close()
	})
	if err != nil {
		logger.Error().Err(err).Int("count", len(notifications)).Msg("Error writing notifications")
		return nil, err
	}
	return stored, nil
}

// ListForUser returns one page of userID's notifications, newest first, plus the total.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, offset, limit uint64) ([]models.Notification, int64, error) {
	var total int64
	countSQL, countArgs, err := psql.Select("COUNT(*)").From("notifications").Where("user_id = ?", userID).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count notifications query: %w", err)
	}
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting notifications: %w", err)
	}

	sql, args, err := psql.Select(notificationColumns...).
		From("notifications").
		Where("user_id = ?", userID).
		OrderBy("created_at DESC", "id DESC").
		Offset(offset).
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list notifications query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing notifications: %w", err)
	}
	defer rows.Close()

	items := make([]models.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning notification: %w", err)
		}
		items = append(items, *n)
	}
	return items, total, rows.Err()
}

// CountUnread returns how many of userID's notifications are unread.
func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	sql, args, err := psql.Select("COUNT(*)").From("notifications").
		Where("user_id = ? AND read = FALSE", userID).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build unread query: %w", err)
	}
	var n int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting unread notifications: %w", err)
	}
	return n, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := psql.Select(notificationColumns...).From("notifications").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get notification query: %w", err)
	}
	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error retrieving notification: %w", err)
	}
	return n, nil
}

// MarkRead sets read on notification id and returns the updated row.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64) (*models.Notification, error) {
	sql, args, err := psql.Update("notifications").
		Set("read", true).
		Where("id = ?", id).
		Suffix("RETURNING id, user_id, event_id, summary, link, read, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build mark read query: %w", err)
	}
	n, err := scanNotification(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("error marking notification read: %w", err)
	}
	return n, nil
}
