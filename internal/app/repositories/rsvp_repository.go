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
	"github.com/gatherly/gatherly/internal/pkg/logger"
)

// RSVPUniqueConstraint guards one RSVP per user and event.
const RSVPUniqueConstraint = "rsvps_user_id_event_id_key"

var rsvpColumns = []string{"id", "user_id", "event_id", "status", "created_at"}

// RSVPRepository handles RSVP database operations
type RSVPRepository struct {
	db *pgxpool.Pool
}

func NewRSVPRepository(db *pgxpool.Pool) *RSVPRepository {
	return &RSVPRepository{db: db}
}

func scanRSVP(row pgx.Row) (*models.RSVP, error) {
	var r models.RSVP
	if err := row.Scan(&r.ID, &r.UserID, &r.EventID, &r.Status, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// Create stores rsvp. A second RSVP by the same user for the same event yields
// apperrors.ErrRSVPAlreadyExists.
func (r *RSVPRepository) Create(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error) {
	sql, args, err := psql.Insert("rsvps").
		Columns("user_id", "event_id", "status").
		Values(rsvp.UserID, rsvp.EventID, string(rsvp.Status)).
		Suffix("RETURNING id, user_id, event_id, status, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create rsvp query: %w", err)
	}

	created, err := scanRSVP(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		switch {
		case dberrors.IsDuplicateConstraintError(err, RSVPUniqueConstraint):
			return nil, apperrors.ErrRSVPAlreadyExists
		case dberrors.IsForeignKeyViolation(err):
			return nil, apperrors.ErrEventNotFound
		}
		logger.Error().Err(err).Int64("eventID", rsvp.EventID).Int64("userID", rsvp.UserID).Msg("Error creating rsvp")
		return nil, fmt.Errorf("error creating rsvp: %w", err)
	}
	return created, nil
}

func (r *RSVPRepository) GetByID(ctx context.Context, id int64) (*models.RSVP, error) {
	sql, args, err := psql.Select(rsvpColumns...).From("rsvps").Where("id = ?", id).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get rsvp query: %w", err)
	}

	rsvp, err := scanRSVP(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRSVPNotFound
		}
		return nil, fmt.Errorf("error retrieving rsvp: %w", err)
	}
	return rsvp, nil
}

// List returns RSVPs, optionally restricted to one event, oldest first.
func (r *RSVPRepository) List(ctx context.Context, eventID *int64) ([]models.RSVP, error) {
	b := psql.Select(rsvpColumns...).From("rsvps").OrderBy("created_at ASC", "id ASC")
	if eventID != nil {
		b = b.Where(squirrel.Eq{"event_id": *eventID})
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list rsvps query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing rsvps: %w", err)
	}
	defer rows.Close()

	rsvps := make([]models.RSVP, 0)
	for rows.Next() {
		rsvp, err := scanRSVP(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning rsvp row: %w", err)
		}
		rsvps = append(rsvps, *rsvp)
	}
	return rsvps, rows.Err()
}

func (r *RSVPRepository) UpdateStatus(ctx context.Context, id int64, status models.RSVPStatus) (*models.RSVP, error) {
	sql, args, err := psql.Update("rsvps").
		Set("status", string(status)).
		Where("id = ?", id).
		Suffix("RETURNING id, user_id, event_id, status, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build update rsvp query: %w", err)
	}

	rsvp, err := scanRSVP(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrRSVPNotFound
		}
		return nil, fmt.Errorf("error updating rsvp: %w", err)
	}
	return rsvp, nil
}

func (r *RSVPRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("rsvps").Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete rsvp query: %w", err)
	}
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error deleting rsvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrRSVPNotFound
	}
	return nil
}

// countsQuery groups RSVPs of eventIDs by event in a single aggregation.
func countsQuery(eventIDs []int64) squirrel.SelectBuilder {
	return psql.Select(
		"event_id",
		"COUNT(*) FILTER (WHERE status = 'going')",
		"COUNT(*) FILTER (WHERE status = 'maybe')",
		"COUNT(*) FILTER (WHERE status = 'not_going')",
	).
		From("rsvps").
		Where(squirrel.Eq{"event_id": eventIDs}).
		GroupBy("event_id")
}

// CountsForEvents returns going/maybe/not_going totals per event. Events without RSVPs
// are present with zero counts.
func (r *RSVPRepository) CountsForEvents(ctx context.Context, eventIDs []int64) (map[int64]models.RSVPCounts, error) {
	counts := make(map[int64]models.RSVPCounts, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}
	for _, id := range eventIDs {
		counts[id] = models.RSVPCounts{}
	}

	sql, args, err := countsQuery(eventIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rsvp counts query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error counting rsvps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var c models.RSVPCounts
		if err := rows.Scan(&id, &c.Going, &c.Maybe, &c.NotGoing); err != nil {
			return nil, fmt.Errorf("error scanning rsvp counts: %w", err)
		}
		counts[id] = c
	}
	return counts, rows.Err()
}

// GoingRecipients lists users with a going RSVP for eventID, with their email and
// notification preference.
func (r *RSVPRepository) GoingRecipients(ctx context.Context, eventID int64) ([]models.Recipient, error) {
	sql, args, err := psql.Select("u.id", "u.email", "COALESCE(p.notifications_opt_out, FALSE)").
		From("rsvps r").
		Join("users u ON u.id = r.user_id").
		LeftJoin("profiles p ON p.user_id = u.id").
		Where(squirrel.Eq{"r.event_id": eventID, "r.status": string(models.RSVPGoing)}).
		OrderBy("u.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build recipients query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing recipients: %w", err)
	}
	defer rows.Close()

	var recipients []models.Recipient
	for rows.Next() {
		var rc models.Recipient
		if err := rows.Scan(&rc.UserID, &rc.Email, &rc.OptedOut); err != nil {
			return nil, fmt.Errorf("error scanning recipient: %w", err)
		}
		recipients = append(recipients, rc)
	}
	return recipients, rows.Err()
}
