package models

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const mapsBaseURL = "https://maps.google.com/?q="

// Event is an organizer-created gathering. Latitude and Longitude are optional.
type Event struct {
	ID           int64     `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Perks        string    `json:"perks" db:"perks"`
	StartTime    time.Time `json:"startTime" db:"start_time"`
	EndTime      time.Time `json:"endTime" db:"end_time"`
	LocationName string    `json:"locationName" db:"location_name"`
	Address      string    `json:"address" db:"address"`
	Latitude     *float64  `json:"latitude" db:"latitude"`
	Longitude    *float64  `json:"longitude" db:"longitude"`
	MapLink      string    `json:"mapLink" db:"map_link"`
	CreatedBy    int64     `json:"createdBy" db:"created_by"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (e *Event) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// DeriveMapLink fills MapLink when it is empty, preferring coordinates over the address.
func (e *Event) DeriveMapLink() {
	if e.MapLink != "" {
		return
	}
	switch {
	case e.HasCoordinates():
		e.MapLink = mapsBaseURL + formatCoordinate(*e.Latitude) + "," + formatCoordinate(*e.Longitude)
	case e.Address != "":
		e.MapLink = mapsBaseURL + url.QueryEscape(e.Address)
	}
}

// formatCoordinate renders the shortest decimal form of f, always with a fractional
// part, so 40 becomes "40.0".
func formatCoordinate(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// RSVPCounts holds per-status RSVP totals for one event.
type RSVPCounts struct {
	Going    int `json:"going"`
	Maybe    int `json:"maybe"`
	NotGoing int `json:"notGoing"`
}

// EventWithCounts is an event row plus its RSVP counts and, for proximity searches,
// the distance from the search point.
type EventWithCounts struct {
	Event
	Counts     RSVPCounts `json:"counts"`
	DistanceKm *float64   `json:"distanceKm,omitempty"`
}

// EventChange is returned by a committed update: the row as it was and as it is now.
// Previous is nil for a newly created event.
type EventChange struct {
	Previous *Event
	Current  *Event
}
