package services

import (
	"context"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/rs/zerolog"
)

type AnnouncementService struct {
	announcements AnnouncementStore
	events        EventStore
	listener      EventChangeListener
	logger        zerolog.Logger
}

func NewAnnouncementService(announcements AnnouncementStore, events EventStore, listener EventChangeListener, logger zerolog.Logger) *AnnouncementService {
	return &AnnouncementService{
		announcements: announcements,
		events:        events,
		listener:      listener,
		logger:        logger,
	}
}

// CreateAnnouncement posts to an event as its owner or staff and notifies going attendees.
func (s *AnnouncementService) CreateAnnouncement(ctx context.Context, identity auth.Identity, req *dto.CreateAnnouncementRequest) (*models.Announcement, error) {
	ev, err := s.events.GetByID(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !auth.CanAnnounce(identity, ev) {
		return nil, apperrors.NewForbiddenError("only the event owner or staff can post announcements")
	}

	a, err := s.announcements.Create(ctx, &models.Announcement{
		EventID:  ev.ID,
		AuthorID: identity.UserID,
		Title:    req.Title,
		Body:     req.Body,
	})
	if err != nil {
		return nil, err
	}

	if s.listener != nil {
		if err := s.listener.OnAnnouncementCreated(ctx, a, ev); err != nil {
			s.logger.Error().Err(err).Int64("announcementId", a.ID).Msg("Announcement notification failed after commit")
		}
	}
	return a, nil
}

func (s *AnnouncementService) GetAnnouncement(ctx context.Context, id int64) (*models.Announcement, error) {
	return s.announcements.GetByID(ctx, id)
}

func (s *AnnouncementService) ListAnnouncements(ctx context.Context, eventID *int64) ([]models.Announcement, error) {
	return s.announcements.List(ctx, eventID)
}

// DeleteAnnouncement is allowed for the author, the event owner and staff.
func (s *AnnouncementService) DeleteAnnouncement(ctx context.Context, identity auth.Identity, id int64) error {
	a, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return err
	}
	ev, err := s.events.GetByID(ctx, a.EventID)
	if err != nil {
		return err
	}
	if !auth.CanDeleteAnnouncement(identity, a, ev) {
		return apperrors.NewForbiddenError("you cannot delete this announcement")
	}
	return s.announcements.Delete(ctx, id)
}
