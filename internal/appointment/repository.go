package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotTaken           = errors.New("This time slot is already booked")
)

// StatusUpdate describes one accepted transition. The repository applies it
// with a compare-and-swap on the current status so a concurrent transition
// loses cleanly instead of clobbering.
type StatusUpdate struct {
	To            Status
	Notes         *string // COALESCEd over the existing notes when nil
	CancelledBy   *auth.Role
	CancelledByID *uuid.UUID
}

// Repository contains all DB interactions needed by the service.
type Repository interface {
	// Create inserts a PENDING appointment. Returns ErrSlotTaken when another
	// live booking already holds the (doctor, date, time) slot; the store's
	// unique index makes this atomic under concurrent creates.
	Create(ctx context.Context, appt *Appointment) (*Appointment, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// UpdateStatus transitions id from the given status. Returns
	// ErrAppointmentNotFound when the row is missing or no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from Status, upd StatusUpdate) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)

	// HardDelete physically removes the row. Legacy unsafe path; cancel is
	// the normal flow.
	HardDelete(ctx context.Context, id uuid.UUID) error
}
