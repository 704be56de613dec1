package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
)

var (
	owner     = Identity{UserID: 1, Authenticated: true}
	stranger  = Identity{UserID: 2, Authenticated: true}
	staff     = Identity{UserID: 3, IsStaff: true, Authenticated: true}
	superuser = Identity{UserID: 4, IsSuperuser: true, Authenticated: true}
	organizer = Identity{UserID: 5, IsOrganizer: true, Authenticated: true}
)

func TestEventPredicates(t *testing.T) {
	ev := &models.Event{ID: 10, CreatedBy: owner.UserID}

	tests := []struct {
		name     string
		id       Identity
		create   bool
		modify   bool
		announce bool
	}{
		{"anonymous", Anonymous, false, false, false},
		{"owner", owner, false, true, true},
		{"stranger", stranger, false, false, false},
		{"staff", staff, false, true, true},
		{"superuser", superuser, true, true, true},
		{"organizer", organizer, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanCreateEvent(tt.id); got != tt.create {
				t.Errorf("CanCreateEvent = %v, want %v", got, tt.create)
			}
			if got := CanModifyEvent(tt.id, ev); got != tt.modify {
				t.Errorf("CanModifyEvent = %v, want %v", got, tt.modify)
			}
			if got := CanAnnounce(tt.id, ev); got != tt.announce {
				t.Errorf("CanAnnounce = %v, want %v", got, tt.announce)
			}
		})
	}
}

func TestRSVPAndNotificationPredicates(t *testing.T) {
	rsvp := &models.RSVP{ID: 1, UserID: owner.UserID}
	n := &models.Notification{ID: 1, UserID: owner.UserID}

	if !CanModifyRSVP(owner, rsvp) || !CanModifyRSVP(superuser, rsvp) {
		t.Error("owner and superuser must modify the rsvp")
	}
	if CanModifyRSVP(stranger, rsvp) || CanModifyRSVP(staff, rsvp) {
		t.Error("stranger and staff must not modify someone else's rsvp")
	}
	if !CanReadNotification(owner, n) || CanReadNotification(superuser, n) {
		t.Error("only the recipient reads a notification")
	}
	if !CanManageProfiles(superuser) || CanManageProfiles(staff) {
		t.Error("only superusers manage profiles")
	}
}

func TestCanDeleteAnnouncement(t *testing.T) {
	ev := &models.Event{CreatedBy: owner.UserID}
	a := &models.Announcement{AuthorID: stranger.UserID}

	if !CanDeleteAnnouncement(stranger, a, ev) {
		t.Error("author may delete")
	}
	if !CanDeleteAnnouncement(owner, a, ev) {
		t.Error("event owner may delete")
	}
	if CanDeleteAnnouncement(organizer, a, ev) {
		t.Error("unrelated organizer may not delete")
	}
}

type stubUsers map[int64]*models.User

func (s stubUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

type stubProfiles map[int64]*models.Profile

func (s stubProfiles) GetByUserID(_ context.Context, id int64) (*models.Profile, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, apperrors.ErrProfileNotFound
}

func TestLoadIdentity(t *testing.T) {
	svc := NewAuthorizationService(
		stubUsers{
			1: {ID: 1, IsActive: true, IsStaff: true},
			2: {ID: 2, IsActive: true},
			3: {ID: 3, IsActive: false},
		},
		stubProfiles{1: {UserID: 1, IsOrganizer: true}},
	)
	ctx := context.Background()

	id, err := svc.LoadIdentity(ctx, 1)
	if err != nil || !id.Authenticated || !id.IsStaff || !id.IsOrganizer {
		t.Fatalf("LoadIdentity(1) = %+v, %v", id, err)
	}

	id, err = svc.LoadIdentity(ctx, 2)
	if err != nil || id.IsOrganizer {
		t.Fatalf("missing profile should load as non-organizer: %+v, %v", id, err)
	}

	if _, err := svc.LoadIdentity(ctx, 3); !errors.Is(err, apperrors.ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
	if _, err := svc.LoadIdentity(ctx, 99); !errors.Is(err, apperrors.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if id, err := svc.LoadIdentity(ctx, 0); err != nil || id.Authenticated {
		t.Fatalf("expected anonymous, got %+v, %v", id, err)
	}
}
