package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/db"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/logger"
)

// EventRepository handles event database operations
type EventRepository struct {
	db *pgxpool.Pool
}

func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

func scanEvent(row pgx.Row, extra ...any) (*models.Event, error) {
	var e models.Event
	dest := []any{
		&e.ID, &e.Title, &e.Description, &e.Perks, &e.StartTime, &e.EndTime,
		&e.LocationName, &e.Address, &e.Latitude, &e.Longitude, &e.MapLink,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &e, nil
}

// returningEvent is the RETURNING clause matching scanEvent.
var returningEvent = "RETURNING " + strings.Join(unprefixed(eventColumns), ", ")

func unprefixed(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = strings.TrimPrefix(c, "e.")
	}
	return out
}

// Create inserts ev and returns the stored row.
func (r *EventRepository) Create(ctx context.Context, ev *models.Event) (*models.Event, error) {
	sql, args, err := psql.Insert("events").
		Columns("title", "description", "perks", "start_time", "end_time",
			"location_name", "address", "latitude", "longitude", "map_link", "created_by").
		Values(ev.Title, ev.Description, ev.Perks, ev.StartTime, ev.EndTime,
			ev.LocationName, ev.Address, ev.Latitude, ev.Longitude, ev.MapLink, ev.CreatedBy).
		Suffix(returningEvent).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build create event query: %w", err)
	}

	created, err := scanEvent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		logger.Error().Err(err).Int64("createdBy", ev.CreatedBy).Msg("Error creating event")
		return nil, fmt.Errorf("error creating event: %w", err)
	}
	return created, nil
}

// List runs q and returns the events with their RSVP counts.
func (r *EventRepository) List(ctx context.Context, q *EventQuery) ([]models.EventWithCounts, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build event list query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing event list query")
		return nil, fmt.Errorf("error listing events: %w", err)
	}
	defer rows.Close()

	events := make([]models.EventWithCounts, 0)
	for rows.Next() {
		var counts models.RSVPCounts
		ev, err := scanEvent(rows, &counts.Going, &counts.Maybe, &counts.NotGoing)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		events = append(events, models.EventWithCounts{Event: *ev, Counts: counts})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

// GetWithCounts returns one event and its RSVP counts.
func (r *EventRepository) GetWithCounts(ctx context.Context, id int64) (*models.EventWithCounts, error) {
	events, err := r.List(ctx, NewEventQuery().ByID(id))
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, apperrors.ErrEventNotFound
	}
	return &events[0], nil
}

// GetByID returns the bare event row.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return getEvent(ctx, r.db, id, false)
}

func getEvent(ctx context.Context, q DBTX, id int64, forUpdate bool) (*models.Event, error) {
	b := psql.Select(eventColumns...).From("events e").Where("e.id = ?", id)
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build get event query: %w", err)
	}

	ev, err := scanEvent(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, fmt.Errorf("error retrieving event %d: %w", id, err)
	}
	return ev, nil
}

// Update locks event id, lets mutate edit a copy, writes it back and returns both the
// replaced and the stored row. An error from mutate aborts the transaction untouched.
func (r *EventRepository) Update(ctx context.Context, id int64, mutate func(ev *models.Event) error) (*models.EventChange, error) {
	var change models.EventChange

	err := db.WithTransaction(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		prev, err := getEvent(ctx, tx, id, true)
		if err != nil {
			return err
		}

		next := *prev
		if err := mutate(&next); err != nil {
			return err
		}

		sql, args, err := psql.Update("events").
			Set("title", next.Title).
			Set("description", next.Description).
			Set("perks", next.Perks).
			Set("start_time", next.StartTime).
			Set("end_time", next.EndTime).
			Set("location_name", next.LocationName).
			Set("address", next.Address).
			Set("latitude", next.Latitude).
			Set("longitude", next.Longitude).
			Set("map_link", next.MapLink).
			Set("updated_at", squirrelNow).
			Where("id = ?", id).
			Suffix(returningEvent).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build update event query: %w", err)
		}

		current, err := scanEvent(tx.QueryRow(ctx, sql, args...))
		if err != nil {
			return fmt.Errorf("error updating event %d: %w", id, err)
		}

		change = models.EventChange{Previous: prev, Current: current}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

// Delete removes the event; RSVPs, announcements and notifications cascade.
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := psql.Delete("events").Where("id = ?", id).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete event query: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("eventID", id).Msg("Error deleting event")
		return fmt.Errorf("error deleting event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrEventNotFound
	}
	return nil
}
