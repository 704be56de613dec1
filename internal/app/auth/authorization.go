package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
)

// Identity is the caller as seen by the permission predicates. The zero value is an
// anonymous caller.
type Identity struct {
	UserID        int64
	IsStaff       bool
	IsSuperuser   bool
	IsOrganizer   bool
	Authenticated bool
}

// Anonymous is the identity of a request without valid credentials.
var Anonymous = Identity{}

// CanCreateEvent: superusers and organizers.
func CanCreateEvent(id Identity) bool {
	return id.Authenticated && (id.IsSuperuser || id.IsOrganizer)
}

// CanModifyEvent: superusers, staff and the event's creator. Also used for delete.
func CanModifyEvent(id Identity, ev *models.Event) bool {
	if !id.Authenticated || ev == nil {
		return false
	}
	return id.IsSuperuser || id.IsStaff || ev.CreatedBy == id.UserID
}

// CanModifyRSVP: superusers and the RSVP's owner.
func CanModifyRSVP(id Identity, rsvp *models.RSVP) bool {
	if !id.Authenticated || rsvp == nil {
		return false
	}
	return id.IsSuperuser || rsvp.UserID == id.UserID
}

// CanAnnounce: staff, superusers and the event's creator.
func CanAnnounce(id Identity, ev *models.Event) bool {
	return CanModifyEvent(id, ev)
}

// CanDeleteAnnouncement adds the author to the announcers of ev.
func CanDeleteAnnouncement(id Identity, a *models.Announcement, ev *models.Event) bool {
	if !id.Authenticated || a == nil {
		return false
	}
	return a.AuthorID == id.UserID || CanAnnounce(id, ev)
}

// CanManageProfiles: superusers only.
func CanManageProfiles(id Identity) bool {
	return id.Authenticated && id.IsSuperuser
}

// CanReadNotification: only the recipient.
func CanReadNotification(id Identity, n *models.Notification) bool {
	return id.Authenticated && n != nil && n.UserID == id.UserID
}

// UserLookup and ProfileLookup are satisfied by the user and profile repositories.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Profile, error)
}

// AuthorizationService resolves a user ID into an Identity.
type AuthorizationService struct {
	users    UserLookup
	profiles ProfileLookup
}

func NewAuthorizationService(users UserLookup, profiles ProfileLookup) *AuthorizationService {
	return &AuthorizationService{users: users, profiles: profiles}
}

// LoadIdentity returns Anonymous for userID 0. A user without a profile row is treated as
// a non-organizer.
func (s *AuthorizationService) LoadIdentity(ctx context.Context, userID int64) (Identity, error) {
	if userID == 0 {
		return Anonymous, nil
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return Anonymous, apperrors.ErrUnauthenticated
		}
		return Anonymous, fmt.Errorf("load identity: %w", err)
	}
	if !user.IsActive {
		return Anonymous, apperrors.ErrAccountDisabled
	}

	id := Identity{
		UserID:        user.ID,
		IsStaff:       user.IsStaff,
		IsSuperuser:   user.IsSuperuser,
		Authenticated: true,
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	switch {
	case err == nil:
		id.IsOrganizer = profile.IsOrganizer
	case !errors.Is(err, apperrors.ErrProfileNotFound):
		return Anonymous, fmt.Errorf("load profile: %w", err)
	}
	return id, nil
}
