package services

import (
	"context"

	"github.com/gatherly/gatherly/internal/app/auth"
	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	"github.com/gatherly/gatherly/internal/pkg/helpers"
	"github.com/rs/zerolog"
)

// NotificationService exposes the caller's own notifications.
type NotificationService struct {
	notifications NotificationStore
	logger        zerolog.Logger
}

func NewNotificationService(notifications NotificationStore, logger zerolog.Logger) *NotificationService {
	return &NotificationService{notifications: notifications, logger: logger}
}

func (s *NotificationService) ListNotifications(ctx context.Context, identity auth.Identity, page, size int) (*dto.NotificationListResponse, error) {
	if !identity.Authenticated {
		return nil, apperrors.ErrUnauthenticated
	}
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	items, total, err := s.notifications.ListForUser(ctx, identity.UserID, offset, limit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notifications.CountUnread(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &dto.NotificationListResponse{
		Items:      items,
		Unread:     unread,
		Pagination: helpers.NewPaginationInfo(total, page, size),
	}, nil
}

// GetNotification hides other users' notifications behind not found.
func (s *NotificationService) GetNotification(ctx context.Context, identity auth.Identity, id int64) (*models.Notification, error) {
	n, err := s.notifications.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !auth.CanReadNotification(identity, n) {
		return nil, apperrors.ErrNotificationNotFound
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, identity auth.Identity, id int64) (*models.Notification, error) {
	if _, err := s.GetNotification(ctx, identity, id); err != nil {
		return nil, err
	}
	return s.notifications.MarkRead(ctx, id)
}
