package services

import (
	"context"
	"errors"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

// EventService handles event writes and single-event reads.
type EventService struct {
	events   EventStore
	listener EventChangeListener
	logger   zerolog.Logger
}

func NewEventService(events EventStore, listener EventChangeListener, logger zerolog.Logger) *EventService {
	return &EventService{events: events, listener: listener, logger: logger}
}

// CreateEvent stores a new event owned by the caller.
func (s *EventService) CreateEvent(ctx context.Context, identity auth.Identity, req *dto.CreateEventRequest) (*models.EventWithCounts, error) {
	if !auth.CanCreateEvent(identity) {
		return nil, apperrors.NewForbiddenError("only organizers can create events")
	}

	ev := &models.Event{
		Title:        req.Title,
		Description:  req.Description,
		Perks:        req.Perks,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		LocationName: req.LocationName,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		MapLink:      req.MapLink,
		CreatedBy:    identity.UserID,
	}
	ev.DeriveMapLink()

	created, err := s.events.Create(ctx, ev)
	if err != nil {
		s.logger.Error().Err(err).Int64("userId", identity.UserID).Msg("Failed to create event")
		return nil, err
	}

	s.logger.Info().Int64("eventId", created.ID).Int64("userId", identity.UserID).Msg("Event created")
	return &models.EventWithCounts{Event: *created}, nil
}

// GetEvent returns one event with its RSVP counts.
func (s *EventService) GetEvent(ctx context.Context, id int64) (*models.EventWithCounts, error) {
	return s.events.GetWithCounts(ctx, id)
}

// UpdateEvent applies a partial update as owner or staff. The change listener runs
// only after the update has committed.
func (s *EventService) UpdateEvent(ctx context.Context, identity auth.Identity, id int64, req *dto.UpdateEventRequest) (*models.EventWithCounts, error) {
	change, err := s.events.Update(ctx, id, func(ev *models.Event) error {
		if !auth.CanModifyEvent(identity, ev) {
			return apperrors.NewForbiddenError("only the owner or staff can edit this event")
		}
		req.ApplyTo(ev)
		ev.DeriveMapLink()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.listener != nil {
		if err := s.listener.OnEventCommitted(ctx, *change); err != nil {
			s.logger.Error().Err(err).Int64("eventId", id).Msg("Change notification failed after commit")
		}
	}

	updated, err := s.events.GetWithCounts(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrEventNotFound) {
			return nil, err
		}
		s.logger.Warn().Err(err).Int64("eventId", id).Msg("Reloading counts after update failed")
		return &models.EventWithCounts{Event: *change.Current}, nil
	}
	return updated, nil
}

// DeleteEvent removes an event as owner or staff; RSVPs, announcements and
// notifications cascade.
func (s *EventService) DeleteEvent(ctx context.Context, identity auth.Identity, id int64) error {
	ev, err := s.events.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModifyEvent(identity, ev) {
		return apperrors.NewForbiddenError("only the owner or staff can delete this event")
	}
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("eventId", id).Int64("userId", identity.UserID).Msg("Event deleted")
	return nil
}
