package services

import (
	"context"
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/app/repositories"
	"github.com/gatherly/gatherly/internal/pkg/websocket"
)

// Storage ports. The pgx repositories satisfy them; tests use in-memory fakes.

type EventStore interface {
	Create(ctx context.Context, ev *models.Event) (*models.Event, error)
	List(ctx context.Context, q *repositories.EventQuery) ([]models.EventWithCounts, error)
	GetWithCounts(ctx context.Context, id int64) (*models.EventWithCounts, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Update(ctx context.Context, id int64, mutate func(ev *models.Event) error) (*models.EventChange, error)
	Delete(ctx context.Context, id int64) error
}

type RSVPStore interface {
	Create(ctx context.Context, rsvp *models.RSVP) (*models.RSVP, error)
	GetByID(ctx context.Context, id int64) (*models.RSVP, error)
	List(ctx context.Context, eventID *int64) ([]models.RSVP, error)
	UpdateStatus(ctx context.Context, id int64, status models.RSVPStatus) (*models.RSVP, error)
	Delete(ctx context.Context, id int64) error
}

// RecipientSource lists the going attendees of an event.
type RecipientSource interface {
	GoingRecipients(ctx context.Context, eventID int64) ([]models.Recipient, error)
}

type AnnouncementStore interface {
	Create(ctx context.Context, a *models.Announcement) (*models.Announcement, error)
	GetByID(ctx context.Context, id int64) (*models.Announcement, error)
	List(ctx context.Context, eventID *int64) ([]models.Announcement, error)
	Delete(ctx context.Context, id int64) error
}

// NotificationWriter persists a fan-out batch atomically.
type NotificationWriter interface {
	CreateBatch(ctx context.Context, notifications []models.Notification) ([]models.Notification, error)
}

type NotificationStore interface {
	NotificationWriter
	ListForUser(ctx context.Context, userID int64, offset, limit uint64) ([]models.Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Notification, error)
	MarkRead(ctx context.Context, id int64) (*models.Notification, error)
}

type UserStore interface {
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
	Save(ctx context.Context, p *models.Profile) (*models.Profile, error)
}

type RefreshTokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	ValidateToken(ctx context.Context, token string) (int64, error)
	RevokeToken(ctx context.Context, userID int64, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
	CleanupExpiredTokens(ctx context.Context) (int64, error)
}

type ResetTokenStore interface {
	CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error
	Consume(ctx context.Context, token string) (int64, error)
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// Broadcaster pushes a live notification to connected clients.
type Broadcaster interface {
	Broadcast(ctx context.Context, message *websocket.Message) error
}

// EventChangeListener receives committed event and announcement writes.
type EventChangeListener interface {
	OnEventCommitted(ctx context.Context, change models.EventChange) error
	OnAnnouncementCreated(ctx context.Context, announcement *models.Announcement, event *models.Event) error
}
