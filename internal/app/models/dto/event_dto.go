package dto

import (
	"time"

	"github.com/gatherly/gatherly/internal/app/models"
)

type CreateEventRequest struct {
	Title        string    `json:"title" binding:"required,max=200"`
	Description  string    `json:"description"`
	Perks        string    `json:"perks" binding:"max=200"`
	StartTime    time.Time `json:"startTime" binding:"required"`
	EndTime      time.Time `json:"endTime" binding:"required"`
	LocationName string    `json:"locationName" binding:"max=200"`
	Address      string    `json:"address" binding:"max=300"`
	Latitude     *float64  `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude    *float64  `json:"longitude" binding:"omitempty,min=-180,max=180"`
	MapLink      string    `json:"mapLink" binding:"omitempty,url,max=500"`
}

// UpdateEventRequest is used for PUT and PATCH; nil fields keep their stored value.
// ClearCoordinates removes both coordinates.
type UpdateEventRequest struct {
	Title            *string    `json:"title" binding:"omitempty,min=1,max=200"`
	Description      *string    `json:"description"`
	Perks            *string    `json:"perks" binding:"omitempty,max=200"`
	StartTime        *time.Time `json:"startTime"`
	EndTime          *time.Time `json:"endTime"`
	LocationName     *string    `json:"locationName" binding:"omitempty,max=200"`
	Address          *string    `json:"address" binding:"omitempty,max=300"`
	Latitude         *float64   `json:"latitude" binding:"omitempty,min=-90,max=90"`
	Longitude        *float64   `json:"longitude" binding:"omitempty,min=-180,max=180"`
	ClearCoordinates bool       `json:"clearCoordinates"`
	MapLink          *string    `json:"mapLink" binding:"omitempty,max=500"`
}

// ApplyTo copies the set fields onto ev.
func (r *UpdateEventRequest) ApplyTo(ev *models.Event) {
	if r.Title != nil {
		ev.Title = *r.Title
	}
	if r.Description != nil {
		ev.Description = *r.Description
	}
	if r.Perks != nil {
		ev.Perks = *r.Perks
	}
	if r.StartTime != nil {
		ev.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		ev.EndTime = *r.EndTime
	}
	if r.LocationName != nil {
		ev.LocationName = *r.LocationName
	}
	if r.Address != nil {
		ev.Address = *r.Address
	}
	if r.ClearCoordinates {
		ev.Latitude, ev.Longitude = nil, nil
	}
	if r.Latitude != nil {
		lat := *r.Latitude
		ev.Latitude = &lat
	}
	if r.Longitude != nil {
		lon := *r.Longitude
		ev.Longitude = &lon
	}
	if r.MapLink != nil {
		ev.MapLink = *r.MapLink
	}
}

type EventResponse struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Perks        string            `json:"perks"`
	StartTime    time.Time         `json:"startTime"`
	EndTime      time.Time         `json:"endTime"`
	LocationName string            `json:"locationName"`
	Address      string            `json:"address"`
	Latitude     *float64          `json:"latitude"`
	Longitude    *float64          `json:"longitude"`
	MapLink      string            `json:"mapLink"`
	CreatedBy    int64             `json:"createdBy"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
	Counts       models.RSVPCounts `json:"rsvpCounts"`
	DistanceKm   *float64          `json:"distanceKm,omitempty"`
}

func NewEventResponse(e *models.EventWithCounts) EventResponse {
	return EventResponse{
		ID:           e.ID,
		Title:        e.Title,
		Description:  e.Description,
		Perks:        e.Perks,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		LocationName: e.LocationName,
		Address:      e.Address,
		Latitude:     e.Latitude,
		Longitude:    e.Longitude,
		MapLink:      e.MapLink,
		CreatedBy:    e.CreatedBy,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
		Counts:       e.Counts,
		DistanceKm:   e.DistanceKm,
	}
}

func NewEventListResponse(events []models.EventWithCounts) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		out = append(out, NewEventResponse(&events[i]))
	}
	return out
}
