package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gatherly/gatherly/internal/app/models/dto"
	"github.com/gatherly/gatherly/internal/pkg/apperrors"
	tokens "github.com/gatherly/gatherly/internal/pkg/auth"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	users   *fakeUserStore
	refresh *fakeRefreshTokenStore
	reset   *fakeResetTokenStore
	mailer  *fakeMailer
	svc     *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cost := tokens.BcryptCost
	tokens.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { tokens.BcryptCost = cost })

	f := &authFixture{
		users:   newFakeUserStore(),
		refresh: newFakeRefreshTokenStore(),
		reset:   newFakeResetTokenStore(),
		mailer:  &fakeMailer{},
	}
	jwtService := tokens.NewJWTService(tokens.JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  15 * time.Minute,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "gatherly-test",
	})
	f.svc = NewAuthService(f.users, f.refresh, f.reset, jwtService, f.mailer, time.Hour, zerolog.Nop())
	return f
}

func (f *authFixture) signup(t *testing.T, username, email string) {
	t.Helper()
	_, err := f.svc.Signup(context.Background(), &dto.SignupRequest{
		Username: username,
		Email:    email,
		Password: "hunter22",
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
}

func TestSignupAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Signup(ctx, &dto.SignupRequest{
		Username:    "ada",
		Email:       "Ada@Example.com",
		Password:    "hunter22",
		IsOrganizer: true,
	})
	if err != nil {
		t.Fatalf("Signup() error = %v", err)
	}
	if user.Email != "ada@example.com" || user.Password == "hunter22" {
		t.Errorf("user stored as %+v", user)
	}
	if !f.users.profiles[user.ID].IsOrganizer {
		t.Error("profile organizer flag not stored")
	}

	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ada", Password: "wrong"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("wrong password error = %v", err)
	}
	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "nobody", Password: "hunter22"}); !errors.Is(err, apperrors.ErrInvalidCredentials) {
		t.Fatalf("unknown user error = %v", err)
	}

	resp, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ada", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token.AccessToken == "" || resp.Token.RefreshToken == "" || resp.User.Username != "ada" {
		t.Fatalf("login response = %+v", resp)
	}
	if _, ok := f.users.lastSeen[user.ID]; !ok {
		t.Error("last login not recorded")
	}
}

func TestSignupRejectsWeakPassword(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Signup(context.Background(), &dto.SignupRequest{Username: "bob", Email: "b@example.com", Password: "onlyletters"})
	if !errors.Is(err, apperrors.ErrValidationFailed) {
		t.Fatalf("error = %v, want validation failure", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "ada", "ada@example.com")

	login, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ada", Password: "hunter22"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	refreshed, err := f.svc.RefreshToken(ctx, login.Token.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken() error = %v", err)
	}
	if refreshed.Token.RefreshToken == login.Token.RefreshToken {
		t.Error("refresh token was not rotated")
	}
	if _, err := f.svc.RefreshToken(ctx, login.Token.RefreshToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("reused token error = %v, want revoked", err)
	}

	if err := f.svc.Logout(ctx, refreshed.User.ID, ""); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := f.svc.RefreshToken(ctx, refreshed.Token.RefreshToken); !errors.Is(err, apperrors.ErrTokenRevoked) {
		t.Fatalf("token after logout error = %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.signup(t, "ada", "ada@example.com")

	if err := f.svc.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("unknown email error = %v", err)
	}
	if len(f.mailer.resets) != 0 {
		t.Fatal("mail sent for unknown address")
	}

	if err := f.svc.RequestPasswordReset(ctx, "ada@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset() error = %v", err)
	}
	if len(f.mailer.resets) != 1 {
		t.Fatalf("sent %d reset mails, want 1", len(f.mailer.resets))
	}
	token := strings.TrimPrefix(f.mailer.resets[0], "ada@example.com:")

	if err := f.svc.ConfirmPasswordReset(ctx, token, "newpass99"); err != nil {
		t.Fatalf("ConfirmPasswordReset() error = %v", err)
	}
	if err := f.svc.ConfirmPasswordReset(ctx, token, "newpass99"); !errors.Is(err, apperrors.ErrPasswordResetTokenUsed) {
		t.Fatalf("reused reset token error = %v", err)
	}
	if _, err := f.svc.Login(ctx, &dto.LoginRequest{Username: "ada", Password: "newpass99"}); err != nil {
		t.Fatalf("login with new password error = %v", err)
	}
}
