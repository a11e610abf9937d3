package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRejected  Status = "REJECTED"
)

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Date      time.Time // calendar date of the visit
	Time      string    // HH:MM
	Reason    string
	Status    Status
	Notes     *string

	// Set when status moves to CANCELLED or REJECTED.
	CancelledBy   *auth.Role
	CancelledByID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Detail is an appointment enriched with directory display fields for list
// views. Enrichment is best effort: a failed lookup leaves the names empty
// and the caller renders "Unknown".
type Detail struct {
	Appointment
	PatientName          string `json:"patientName"`
	PatientEmail         string `json:"patientEmail"`
	DoctorName           string `json:"doctorName"`
	DoctorEmail          string `json:"doctorEmail"`
	DoctorSpecialization string `json:"doctorSpecialization"`
}
