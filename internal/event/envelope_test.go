package event

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
)

func validEnvelope(t Type) Envelope {
	actor := uuid.New()
	ev := Envelope{
		Type:          t,
		AppointmentID: uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      uuid.New(),
		Date:          "2025-03-01",
		Time:          "09:00",
		PatientName:   "Ana Silva",
		DoctorName:    "Grace Okafor",
		Timestamp:     time.Now(),
	}
	switch t {
	case TypeCancelled:
		ev.CancelledBy = auth.RolePatient
		ev.CancelledByID = &actor
	case TypeRejected:
		ev.RejectedBy = &actor
	}
	return ev
}

func TestValidateAcceptsEveryType(t *testing.T) {
	for _, typ := range []Type{TypeCreated, TypeApproved, TypeCancelled, TypeRejected, TypeCompleted} {
		if err := validEnvelope(typ).Validate(); err != nil {
			t.Errorf("%s: unexpected error %v", typ, err)
		}
	}
}

func TestValidateRejectsUnknownType(t *testing.T) {
	ev := validEnvelope(TypeCreated)
	ev.Type = "appointment.exploded"
	if err := ev.Validate(); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestValidateRejectsMissingIDs(t *testing.T) {
	ev := validEnvelope(TypeCreated)
	ev.PatientID = uuid.Nil
	if err := ev.Validate(); err == nil {
		t.Error("expected error for missing patient id")
	}
}

func TestValidateRejectsMissingSchedule(t *testing.T) {
	ev := validEnvelope(TypeApproved)
	ev.Time = ""
	if err := ev.Validate(); err == nil {
		t.Error("expected error for missing time")
	}
}

func TestValidateCancelledRequiresActorRole(t *testing.T) {
	ev := validEnvelope(TypeCancelled)
	ev.CancelledBy = ""
	if err := ev.Validate(); err == nil {
		t.Error("expected error for cancellation without actor role")
	}
}

func TestValidateRejectedRequiresActor(t *testing.T) {
	ev := validEnvelope(TypeRejected)
	ev.RejectedBy = nil
	if err := ev.Validate(); err == nil {
		t.Error("expected error for rejection without actor")
	}
}
