package models

import "time"

// User is an account; staff and superuser flags drive authorization.
type User struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	Username    string     `json:"username" db:"username" example:"ada"`
	Email       string     `json:"email" db:"email" example:"ada@example.com"`
	Password    string     `json:"-" db:"password"`
	FirstName   string     `json:"firstName" db:"first_name" example:"Ada"`
	LastName    string     `json:"lastName" db:"last_name" example:"Lovelace"`
	IsStaff     bool       `json:"isStaff" db:"is_staff"`
	IsSuperuser bool       `json:"isSuperuser" db:"is_superuser"`
	IsActive    bool       `json:"isActive" db:"is_active"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Profile is the 1:1 extension of User created at signup.
type Profile struct {
	UserID              int64     `json:"userId" db:"user_id"`
	IsOrganizer         bool      `json:"isOrganizer" db:"is_organizer"`
	NotificationsOptOut bool      `json:"notificationsOptOut" db:"notifications_opt_out"`
	AboutMe             string    `json:"aboutMe" db:"about_me"`
	ProfilePicture      string    `json:"profilePicture" db:"profile_picture"`
	UpdatedAt           time.Time `json:"updatedAt" db:"updated_at"`
}

// RefreshToken is a server-side refresh token record.
type RefreshToken struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Token     string    `db:"token"`
	ExpiresAt time.Time `db:"expires_at"`
	Revoked   bool      `db:"revoked"`
	CreatedAt time.Time `db:"created_at"`
}

// PasswordResetToken is a single-use reset token.
type PasswordResetToken struct {
	ID        int64      `db:"id"`
	UserID    int64      `db:"user_id"`
	Token     string     `db:"token"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}
