package repositories

import (
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/gatherly/gatherly/internal/app/models"
)

var eventColumns = []string{
	"e.id", "e.title", "e.description", "e.perks", "e.start_time", "e.end_time",
	"e.location_name", "e.address", "e.latitude", "e.longitude", "e.map_link",
	"e.created_by", "e.created_at", "e.updated_at",
}

// rsvpCountsSubquery aggregates all three statuses in one pass over rsvps.
const rsvpCountsSubquery = `(
	SELECT event_id,
		COUNT(*) FILTER (WHERE status = 'going') AS going,
		COUNT(*) FILTER (WHERE status = 'maybe') AS maybe,
		COUNT(*) FILTER (WHERE status = 'not_going') AS not_going
	FROM rsvps
	GROUP BY event_id
) rc ON rc.event_id = e.id`

// EventQuery is a lazily built events listing. Each method narrows the set and returns
// the query; nothing touches the database until EventRepository.List runs it.
type EventQuery struct {
	builder squirrel.SelectBuilder
}

// NewEventQuery selects every event with its RSVP counts.
func NewEventQuery() *EventQuery {
	cols := append(append([]string{}, eventColumns...),
		"COALESCE(rc.going, 0)", "COALESCE(rc.maybe, 0)", "COALESCE(rc.not_going, 0)")
	return &EventQuery{
		builder: psql.Select(cols...).
			From("events e").
			LeftJoin(rsvpCountsSubquery),
	}
}

// escapeLike escapes LIKE metacharacters so text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Search keeps events whose title, description, perks, location name or address contain
// text, ignoring case.
func (q *EventQuery) Search(text string) *EventQuery {
	pattern := "%" + escapeLike(text) + "%"
	q.builder = q.builder.Where(squirrel.Or{
		squirrel.ILike{"e.title": pattern},
		squirrel.ILike{"e.description": pattern},
		squirrel.ILike{"e.perks": pattern},
		squirrel.ILike{"e.location_name": pattern},
		squirrel.ILike{"e.address": pattern},
	})
	return q
}

// StartsFrom keeps events starting at or after t.
func (q *EventQuery) StartsFrom(t time.Time) *EventQuery {
	q.builder = q.builder.Where(squirrel.GtOrEq{"e.start_time": t})
	return q
}

// StartsUntil keeps events starting at or before t.
func (q *EventQuery) StartsUntil(t time.Time) *EventQuery {
	q.builder = q.builder.Where(squirrel.LtOrEq{"e.start_time": t})
	return q
}

func (q *EventQuery) CreatedBy(userID int64) *EventQuery {
	q.builder = q.builder.Where(squirrel.Eq{"e.created_by": userID})
	return q
}

// WithRSVP keeps events where userID has an RSVP with status.
func (q *EventQuery) WithRSVP(userID int64, status models.RSVPStatus) *EventQuery {
	q.builder = q.builder.Where(
		"EXISTS (SELECT 1 FROM rsvps r WHERE r.event_id = e.id AND r.user_id = ? AND r.status = ?)",
		userID, string(status),
	)
	return q
}

func (q *EventQuery) ByID(id int64) *EventQuery {
	q.builder = q.builder.Where(squirrel.Eq{"e.id": id})
	return q
}

// ToSql renders the statement in the default event order.
func (q *EventQuery) ToSql() (string, []interface{}, error) {
	return q.builder.OrderBy("e.start_time ASC", "e.id ASC").ToSql()
}
