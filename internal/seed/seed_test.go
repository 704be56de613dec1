package seed

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/gatherly/gatherly/internal/app/models"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	tokens "github.com/gatherly/gatherly/internal/pkg/auth"
)

type fakeUsers struct {
	existing  map[string]*models.User
	createErr error
	created   []*models.User
	profiles  []*models.Profile
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*models.User, error) {
	if u, ok := f.existing[username]; ok {
		return u, nil
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUsers) CreateWithProfile(_ context.Context, user *models.User, profile *models.Profile) error {
	if f.createErr != nil {
		return f.createErr
	}
	user.ID = int64(len(f.created) + 1)
	profile.UserID = user.ID
	f.created = append(f.created, user)
	f.profiles = append(f.profiles, profile)
	return nil
}

func init() {
	tokens.BcryptCost = bcrypt.MinCost
}

var quiet = zerolog.New(io.Discard)

func TestCreateDefaultDataCreatesSuperuser(t *testing.T) {
	users := &fakeUsers{existing: map[string]*models.User{}}
	admin := Admin{Username: "admin", Email: " Admin@Example.com ", Password: "changeme1"}

	if err := CreateDefaultData(context.Background(), users, admin, quiet); err != nil {
		t.Fatalf("CreateDefaultData() error = %v", err)
	}
	if len(users.created) != 1 {
		t.Fatalf("created %d users, want 1", len(users.created))
	}
	u := users.created[0]
	if !u.IsSuperuser || !u.IsStaff {
		t.Errorf("admin flags = staff %v superuser %v, want both", u.IsStaff, u.IsSuperuser)
	}
	if u.Email != "admin@example.com" {
		t.Errorf("email = %q, want lower-cased", u.Email)
	}
	if !tokens.CheckPassword(u.Password, admin.Password) {
		t.Error("stored password does not match")
	}
	if !users.profiles[0].IsOrganizer {
		t.Error("admin profile should be an organizer")
	}
}

func TestCreateDefaultDataSkips(t *testing.T) {
	users := &fakeUsers{existing: map[string]*models.User{"admin": {ID: 9, Username: "admin"}}}

	if err := CreateDefaultData(context.Background(), users, Admin{}, quiet); err != nil {
		t.Fatalf("unconfigured: error = %v", err)
	}
	if err := CreateDefaultData(context.Background(), users, Admin{Username: "admin", Password: "changeme1"}, quiet); err != nil {
		t.Fatalf("existing: error = %v", err)
	}
	if len(users.created) != 0 {
		t.Fatalf("created %d users, want 0", len(users.created))
	}
}

func TestCreateDefaultDataToleratesDuplicate(t *testing.T) {
	users := &fakeUsers{existing: map[string]*models.User{}, createErr: apperrors.ErrEmailAlreadyExists}
	if err := CreateDefaultData(context.Background(), users, Admin{Username: "admin", Password: "changeme1"}, quiet); err != nil {
		t.Fatalf("error = %v, want nil", err)
	}

	boom := errors.New("boom")
	users.createErr = boom
	if err := CreateDefaultData(context.Background(), users, Admin{Username: "admin", Password: "changeme1"}, quiet); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
}
