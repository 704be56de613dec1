package services

import (
	"context"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

type RSVPService struct {
	rsvps  RSVPStore
	logger zerolog.Logger
}

func NewRSVPService(rsvps RSVPStore, logger zerolog.Logger) *RSVPService {
	return &RSVPService{rsvps: rsvps, logger: logger}
}

// CreateRSVP records the caller's answer for an event. A second RSVP for the same event
// is a conflict.
func (s *RSVPService) CreateRSVP(ctx context.Context, identity auth.Identity, req *dto.CreateRSVPRequest) (*models.RSVP, error) {
	if !identity.Authenticated {
		return nil, apperrors.ErrUnauthenticated
	}
	if !req.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "must be one of going, maybe, not_going")
	}
	rsvp, err := s.rsvps.Create(ctx, &models.RSVP{
		UserID:  identity.UserID,
		EventID: req.EventID,
		Status:  req.Status,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("rsvpId", rsvp.ID).Int64("eventId", rsvp.EventID).Str("status", string(rsvp.Status)).Msg("RSVP created")
	return rsvp, nil
}

func (s *RSVPService) GetRSVP(ctx context.Context, id int64) (*models.RSVP, error) {
	return s.rsvps.GetByID(ctx, id)
}

// ListRSVPs returns all RSVPs, or those of one event when eventID is set.
func (s *RSVPService) ListRSVPs(ctx context.Context, eventID *int64) ([]models.RSVP, error) {
	return s.rsvps.List(ctx, eventID)
}

func (s *RSVPService) UpdateRSVP(ctx context.Context, identity auth.Identity, id int64, status models.RSVPStatus) (*models.RSVP, error) {
	if !status.Valid() {
		return nil, apperrors.NewValidationError("status", "must be one of going, maybe, not_going")
	}
	rsvp, err := s.rsvps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanModifyRSVP(identity, rsvp) {
		return nil, apperrors.NewForbiddenError("you can only change your own RSVP")
	}
	return s.rsvps.UpdateStatus(ctx, id, status)
}

func (s *RSVPService) DeleteRSVP(ctx context.Context, identity auth.Identity, id int64) error {
	rsvp, err := s.rsvps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CanModifyRSVP(identity, rsvp) {
		return apperrors.NewForbiddenError("you can only delete your own RSVP")
	}
	return s.rsvps.Delete(ctx, id)
}
