// Package event defines the domain event envelope appended to the durable
// log whenever an appointment changes state, plus the Kafka producer and
// consumer-group runner that move it.
package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
)

type Type string

const (
	TypeCreated   Type = "appointment.created"
	TypeApproved  Type = "appointment.approved"
	TypeCancelled Type = "appointment.cancelled"
	TypeRejected  Type = "appointment.rejected"
	TypeCompleted Type = "appointment.completed"
)

func (t Type) Valid() bool {
	switch t {
	case TypeCreated, TypeApproved, TypeCancelled, TypeRejected, TypeCompleted:
		return true
	}
	return false
}

// Envelope is the immutable record of a completed state transition. Display
// fields are denormalized from the directory at emission time so consumers
// never need a lookup of their own. Events for one appointment share a log
// partition key and are consumed in emission order.
type Envelope struct {
	Type          Type      `json:"type"`
	AppointmentID uuid.UUID `json:"appointmentId"`
	PatientID     uuid.UUID `json:"patientId"`
	DoctorID      uuid.UUID `json:"doctorId"`

	Date string `json:"date"`
	Time string `json:"time"`

	PatientName  string `json:"patientName,omitempty"`
	PatientEmail string `json:"patientEmail,omitempty"`
	DoctorName   string `json:"doctorName,omitempty"`
	DoctorEmail  string `json:"doctorEmail,omitempty"`

	// CANCELLED only
	CancelledBy   auth.Role  `json:"cancelledBy,omitempty"`
	CancelledByID *uuid.UUID `json:"cancelledById,omitempty"`

	// REJECTED only
	RejectedBy      *uuid.UUID `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

var (
	errUnknownType   = errors.New("unknown event type")
	errMissingFields = errors.New("missing required event fields")
)

// Validate enforces the per-type schema at the log boundary. Producers call
// it before appending; consumers call it before handling, so a malformed
// message is rejected in one place instead of duck-typed downstream.
func (e Envelope) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("%w: %q", errUnknownType, e.Type)
	}
	if e.AppointmentID == uuid.Nil || e.PatientID == uuid.Nil || e.DoctorID == uuid.Nil {
		return fmt.Errorf("%w: appointmentId/patientId/doctorId", errMissingFields)
	}
	if e.Date == "" || e.Time == "" {
		return fmt.Errorf("%w: date/time", errMissingFields)
	}
	if e.Type == TypeCancelled && !e.CancelledBy.Valid() {
		return fmt.Errorf("%w: cancelledBy", errMissingFields)
	}
	if e.Type == TypeRejected && e.RejectedBy == nil {
		return fmt.Errorf("%w: rejectedBy", errMissingFields)
	}
	return nil
}
