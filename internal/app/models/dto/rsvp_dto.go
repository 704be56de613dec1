package dto

import "github.com/gatherly/gatherly/internal/app/models"

type CreateRSVPRequest struct {
	EventID int64             `json:"eventId" binding:"required,min=1"`
	Status  models.RSVPStatus `json:"status" binding:"required,oneof=going maybe not_going"`
}

type UpdateRSVPRequest struct {
	Status models.RSVPStatus `json:"status" binding:"required,oneof=going maybe not_going"`
}

type CreateAnnouncementRequest struct {
	EventID int64  `json:"eventId" binding:"required,min=1"`
	Title   string `json:"title" binding:"required,max=200"`
	Body    string `json:"body" binding:"required"`
}

// NotificationListResponse is one page of the caller's notifications.
type NotificationListResponse struct {
	Items      []models.Notification `json:"items"`
	Unread     int64                 `json:"unread"`
	Pagination PaginationInfo        `json:"pagination"`
}
