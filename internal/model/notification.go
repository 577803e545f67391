package model

import "time"

// Notification represents a row in the `notifications` table.  Rows
// are written by the ride-event consumer and read by their owning
// user from the notification endpoints.
type Notification struct {
	ID        uint64
	UserID    uint64
	RideID    uint64
	Message   string
	Read      bool
	CreatedAt time.Time
}
