package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/dberrors"
)

// AnnouncementRepository handles announcement database operations
type AnnouncementRepository struct {
	db *pgxpool.Pool
}

func NewAnnouncementRepository(db *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

const announcementReturning = "RETURNING id, event_id, author_id, title, body, created_at"

func scanAnnouncement(row pgx.Row) (*models.Announcement, error) {
	var a models.Announcement
	if err := row.Scan(&a.ID, &a.EventID, &a.AuthorID, &a.Title, &a.Body, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error) {
	sql, args, err := psql.Insert("announcements").
		Columns("event_id", "author_id", "title", "body").
		Values(a.EventID, a.AuthorID, a.Title, a.Body).
		Suffix(announcementReturning).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create announcement query: %w", err)
	}

	created, err := scanAnnouncement(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error creating announcement: %w", err)
	}
	return created, nil
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id int64) (*models.Announcement, error) {
	sql, args, err := psql.Select("id", "event_id", "author_id", "title", "body", "created_at").
		From("announcements").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get announcement query: %w", err)
	}
	a, err := scanAnnouncement(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAnnouncementNotFound
		}
		return nil, fmt.Errorf("error retrieving announcement: %w", err)
	}
	return a, nil
}

// List returns announcements newest first, optionally for one event.
func (r *AnnouncementRepository) List(ctx context.Context, eventID *int64) ([]models.Announcement, error) {
	b := psql.Select("id", "event_id", "author_id", "title", "body", "created_at").
		From("announcements").
		OrderBy("created_at DESC", "id DESC")
	if eventID != nil {
		b = b.Where(squirrel.Eq{"event_id": *eventID})
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list announcements query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing announcements: %w", err)
	}
	defer rows.Close()

	out := make([]models.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning announcement: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *AnnouncementRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("announcements").Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete announcement query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting announcement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAnnouncementNotFound
	}
	return nil
}
