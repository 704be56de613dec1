package models

import "time"

// SummaryMaxLength is the column width of notifications.summary.
const SummaryMaxLength = 255

// Notification is an in-app message for one user about one event.
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	EventID   int64     `json:"eventId" db:"event_id"`
	Summary   string    `json:"summary" db:"summary"`
	Link      string    `json:"link" db:"link"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Recipient is a going attendee as seen by the notifier. A user without a profile row
// is reported with OptedOut false.
type Recipient struct {
	UserID   int64
	Email    string
	OptedOut bool
}
