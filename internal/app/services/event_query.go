package services

import (
	"context"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/repositories"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/geo"
	"github.com/gatherly/gatherly/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// DefaultRadiusKm applies when lat/lon are given without radius_km.
const DefaultRadiusKm = 25.0

// GeoPoint is a query point in degrees.
type GeoPoint struct {
	Lat float64
	Lon float64
}

// EventFilter is the parsed form of the event listing query string.
type EventFilter struct {
	Query     string
	DateFrom  *time.Time
	DateTo    *time.Time
	Mine      bool
	CreatedBy *int64
	RSVP      models.RSVPStatus
	Near      *GeoPoint
	RadiusKm  float64
}

// ParseEventFilter reads q, date_from, date_to, mine, created_by, rsvp, lat, lon and radius_km.
// created_by, mine and rsvp degrade silently; malformed dates and coordinates are rejected.
func ParseEventFilter(values url.Values) (EventFilter, error) {
	f := EventFilter{
		Query:    values.Get("q"),
		RadiusKm: DefaultRadiusKm,
	}

	for _, field := range []struct {
		name string
		dst  **time.Time
	}{{"date_from", &f.DateFrom}, {"date_to", &f.DateTo}} {
		raw := strings.TrimSpace(values.Get(field.name))
		if raw == "" {
			continue
		}
		t, ok := helpers.ParseDateTime(raw)
		if !ok {
			return EventFilter{}, apperrors.NewValidationError(field.name, "must be an ISO-8601 date or datetime")
		}
		*field.dst = &t
	}

	switch values.Get("mine") {
	case "1", "true", "True":
		f.Mine = true
	}

	if raw := values.Get("created_by"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			f.CreatedBy = &id
		}
	}

	if status := models.RSVPStatus(values.Get("rsvp")); status.Valid() {
		f.RSVP = status
	}

	lat, hasLat, err := parseFiniteFloat(values, "lat")
	if err != nil {
		return EventFilter{}, err
	}
	lon, hasLon, err := parseFiniteFloat(values, "lon")
	if err != nil {
		return EventFilter{}, err
	}
	radius, hasRadius, err := parseFiniteFloat(values, "radius_km")
	if err != nil {
		return EventFilter{}, err
	}
	if hasRadius {
		f.RadiusKm = radius
	}
	if hasLat && hasLon {
		f.Near = &GeoPoint{Lat: lat, Lon: lon}
	}

	return f, nil
}

func parseFiniteFloat(values url.Values, name string) (float64, bool, error) {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, apperrors.NewValidationError(name, "must be a finite number")
	}
	return v, true, nil
}

// EventQueryService answers the event listing.
type EventQueryService struct {
	events EventStore
	logger zerolog.Logger
}

func NewEventQueryService(events EventStore, logger zerolog.Logger) *EventQueryService {
	return &EventQueryService{events: events, logger: logger}
}

// BuildQuery composes the filters in their fixed order: text, date bounds, mine,
// created_by, rsvp. Counts are joined by the query itself.
func BuildQuery(identity auth.Identity, f EventFilter) *repositories.EventQuery {
	q := repositories.NewEventQuery()
	if f.Query != "" {
		q.Search(f.Query)
	}
	if f.DateFrom != nil {
		q.StartsFrom(*f.DateFrom)
	}
	if f.DateTo != nil {
		q.StartsUntil(*f.DateTo)
	}
	if f.Mine && identity.Authenticated {
		q.CreatedBy(identity.UserID)
	}
	if f.CreatedBy != nil {
		q.CreatedBy(*f.CreatedBy)
	}
	if f.RSVP != "" && identity.Authenticated {
		q.WithRSVP(identity.UserID, f.RSVP)
	}
	return q
}

// ListEvents runs the filtered listing. With a proximity point the whole candidate set is
// loaded into memory, sorted by distance and cut at the radius.
func (s *EventQueryService) ListEvents(ctx context.Context, identity auth.Identity, f EventFilter) ([]models.EventWithCounts, error) {
	events, err := s.events.List(ctx, BuildQuery(identity, f))
	if err != nil {
		return nil, err
	}
	if f.Near == nil {
		return events, nil
	}

	s.logger.Debug().
		Int("candidates", len(events)).
		Float64("radiusKm", f.RadiusKm).
		Msg("Materializing events for proximity filter")

	return withinRadius(events, *f.Near, f.RadiusKm), nil
}

// withinRadius sorts by distance from p (missing coordinates last) and keeps the events
// whose distance is at most radiusKm.
func withinRadius(events []models.EventWithCounts, p GeoPoint, radiusKm float64) []models.EventWithCounts {
	dist := make([]float64, len(events))
	order := make([]int, len(events))
	for i := range events {
		order[i] = i
		dist[i] = math.Inf(1)
		if events[i].HasCoordinates() {
			dist[i] = geo.HaversineKm(p.Lat, p.Lon, *events[i].Latitude, *events[i].Longitude)
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] < dist[order[b]] })

	out := make([]models.EventWithCounts, 0, len(events))
	for _, i := range order {
		if !events[i].HasCoordinates() || dist[i] > radiusKm {
			continue
		}
		ev := events[i]
		d := dist[i]
		ev.DistanceKm = &d
		out = append(out, ev)
	}
	return out
}
