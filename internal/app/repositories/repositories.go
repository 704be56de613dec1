package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository               *UserRepository
	ProfileRepository            *ProfileRepository
	EventRepository              *EventRepository
	RSVPRepository               *RSVPRepository
	AnnouncementRepository       *AnnouncementRepository
	NotificationRepository       *NotificationRepository
	TokenRepository              *TokenRepository
	PasswordResetTokenRepository *PasswordResetTokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:               NewUserRepository(db),
		ProfileRepository:            NewProfileRepository(db),
		EventRepository:              NewEventRepository(db),
		RSVPRepository:               NewRSVPRepository(db),
		AnnouncementRepository:       NewAnnouncementRepository(db),
		NotificationRepository:       NewNotificationRepository(db),
		TokenRepository:              NewTokenRepository(db),
		PasswordResetTokenRepository: NewPasswordResetTokenRepository(db),
	}
}
