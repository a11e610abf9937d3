package notification

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// TypeInApp is the only delivery channel today; the column is free-form so
// EMAIL/SMS senders can join later without a schema change.
const TypeInApp = "IN_APP"

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"userId"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	Read      bool       `json:"read"`
	Metadata  *Metadata  `json:"metadata,omitempty"`
	SentAt    *time.Time `json:"sentAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Metadata ties a notification back to the appointment and event that
// produced it.
type Metadata struct {
	AppointmentID uuid.UUID `json:"appointmentId"`
	EventType     string    `json:"eventType"`
	CancelledBy   string    `json:"cancelledBy,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Page is one page of a user's notification list plus the counters the
// client renders in the bell badge.
type Page struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	Unread        int            `json:"unread"`
}
