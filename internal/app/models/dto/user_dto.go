package dto

import "github.com/gatherly/gatherly/internal/app/models"

type UserResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	IsStaff     bool   `json:"isStaff"`
	IsSuperuser bool   `json:"isSuperuser"`
}

func NewUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}

type ProfileResponse struct {
	UserID              int64  `json:"userId"`
	IsOrganizer         bool   `json:"isOrganizer"`
	NotificationsOptOut bool   `json:"notificationsOptOut"`
	AboutMe             string `json:"aboutMe"`
	ProfilePicture      string `json:"profilePicture"`
}

func NewProfileResponse(p *models.Profile) ProfileResponse {
	return ProfileResponse{
		UserID:              p.UserID,
		IsOrganizer:         p.IsOrganizer,
		NotificationsOptOut: p.NotificationsOptOut,
		AboutMe:             p.AboutMe,
		ProfilePicture:      p.ProfilePicture,
	}
}

// UpdateProfileRequest is a partial update; nil fields are left unchanged.
type UpdateProfileRequest struct {
	NotificationsOptOut *bool   `json:"notificationsOptOut"`
	AboutMe             *string `json:"aboutMe" binding:"omitempty,max=2000"`
	ProfilePicture      *string `json:"profilePicture" binding:"omitempty,max=500"`
	// IsOrganizer is honoured only for superusers.
	IsOrganizer *bool `json:"isOrganizer"`
}

type SetOrganizerRequest struct {
	IsOrganizer *bool `json:"isOrganizer" binding:"required"`
}
