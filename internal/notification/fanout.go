package notification

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/event"
	redisclient "github.com/medisync/medisync/internal/redis"
)

// Broadcaster publishes a notification to the realtime bus for the push
// gateway to deliver.
type Broadcaster interface {
	Broadcast(ctx context.Context, n Notification) error
}

// Namespace for deterministic notification ids: one event for one recipient
// always maps to the same id, so redelivered events upsert instead of
// duplicating.
var idNamespace = uuid.MustParse("b1f8d3f4-52ab-4c5e-9d16-7a90f2e64a11")

func deterministicID(appointmentID uuid.UUID, eventType event.Type, recipient uuid.UUID) uuid.UUID {
	seed := fmt.Sprintf("%s|%s|%s", appointmentID, eventType, recipient)
	return uuid.NewSHA1(idNamespace, []byte(seed))
}

// Fanout translates one domain event into per-recipient notification rows,
// busts each recipient's list cache and publishes the row to the broadcast
// bus. Processing is idempotent per (appointment, event type, recipient).
type Fanout struct {
	repo        Repository
	cache       redisclient.Cache
	broadcaster Broadcaster
	now         func() time.Time
}

func NewFanout(repo Repository, cache redisclient.Cache, broadcaster Broadcaster) *Fanout {
	return &Fanout{
		repo:        repo,
		cache:       cache,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// HandleEvent implements event.Handler.
func (f *Fanout) HandleEvent(ctx context.Context, ev event.Envelope) error {
	for _, d := range derive(ev) {
		if err := f.deliver(ctx, ev, d); err != nil {
			return err
		}
	}
	return nil
}

// draft is one recipient's rendered notification before persistence.
type draft struct {
	recipient uuid.UUID
	title     string
	message   string
	metadata  Metadata
}

func (f *Fanout) deliver(ctx context.Context, ev event.Envelope, d draft) error {
	sentAt := f.now()
	n := Notification{
		ID:       deterministicID(ev.AppointmentID, ev.Type, d.recipient),
		UserID:   d.recipient,
		Type:     TypeInApp,
		Title:    d.title,
		Message:  d.message,
		Status:   StatusSent,
		Metadata: &d.metadata,
		SentAt:   &sentAt,
	}

	inserted, err := f.repo.Insert(ctx, &n)
	if err != nil {
		return fmt.Errorf("persist notification for %s: %w", d.recipient, err)
	}
	if !inserted {
		// Redelivered event; the row and its broadcast already happened.
		log.Printf("fanout: duplicate %s for appointment %s recipient %s, skipping", ev.Type, ev.AppointmentID, d.recipient)
		return nil
	}

	if err := f.cache.DeletePrefix(ctx, "notifications:"+d.recipient.String()+":"); err != nil {
		log.Printf("fanout: cache invalidation for %s: %v", d.recipient, err)
	}

	if err := f.broadcaster.Broadcast(ctx, n); err != nil {
		// Realtime delivery is best effort; the row is already queryable.
		log.Printf("fanout: broadcast %s to %s: %v", n.ID, d.recipient, err)
	}

	return nil
}

// derive renders the per-recipient notifications for one event.
func derive(ev event.Envelope) []draft {
	date := formatDate(ev.Date)
	tod := formatTime(ev.Time)

	meta := Metadata{
		AppointmentID: ev.AppointmentID,
		EventType:     metadataTag(ev.Type),
	}

	switch ev.Type {
	case event.TypeCreated:
		doctorName := orFallback(ev.DoctorName, "your doctor")
		patientName := orFallback(ev.PatientName, "a patient")
		return []draft{
			{
				recipient: ev.PatientID,
				title:     "Appointment Created",
				message:   fmt.Sprintf("Your appointment request with Dr. %s on %s at %s has been submitted and is pending approval.", doctorName, date, tod),
				metadata:  meta,
			},
			{
				recipient: ev.DoctorID,
				title:     "New Appointment Request",
				message:   fmt.Sprintf("You have a new appointment request from %s on %s at %s.", patientName, date, tod),
				metadata:  meta,
			},
		}

	case event.TypeApproved:
		return []draft{{
			recipient: ev.PatientID,
			title:     "Appointment Approved",
			message:   fmt.Sprintf("Your appointment on %s at %s has been approved!", date, tod),
			metadata:  meta,
		}}

	case event.TypeCompleted:
		return []draft{{
			recipient: ev.PatientID,
			title:     "Appointment Completed",
			message:   fmt.Sprintf("Your appointment on %s has been marked as completed.", date),
			metadata:  meta,
		}}

	case event.TypeRejected:
		doctorName := orFallback(ev.DoctorName, "Doctor")
		patientName := orFallback(ev.PatientName, "Patient")
		reason := ""
		if ev.RejectionReason != "" {
			reason = " Reason: " + ev.RejectionReason
			meta.Reason = ev.RejectionReason
		}
		return []draft{
			{
				recipient: ev.PatientID,
				title:     "Appointment Rejected",
				message:   fmt.Sprintf("Your appointment request on %s at %s has been rejected by Dr. %s.%s", date, tod, doctorName, reason),
				metadata:  meta,
			},
			{
				recipient: ev.DoctorID,
				title:     "Appointment Rejected",
				message:   fmt.Sprintf("You have rejected the appointment request from %s on %s at %s.", patientName, date, tod),
				metadata:  meta,
			},
		}

	case event.TypeCancelled:
		doctorName := orFallback(ev.DoctorName, "Doctor")
		patientName := orFallback(ev.PatientName, "Patient")
		meta.CancelledBy = string(ev.CancelledBy)

		var patientMsg, doctorMsg string
		switch ev.CancelledBy {
		case auth.RolePatient:
			patientMsg = fmt.Sprintf("Your appointment on %s at %s has been cancelled by you.", date, tod)
			doctorMsg = fmt.Sprintf("Appointment with %s on %s at %s has been cancelled by the patient.", patientName, date, tod)
		case auth.RoleDoctor:
			patientMsg = fmt.Sprintf("Your appointment on %s at %s has been cancelled by Dr. %s.", date, tod, doctorName)
			doctorMsg = fmt.Sprintf("Appointment with %s on %s at %s has been cancelled by you.", patientName, date, tod)
		case auth.RoleAdmin:
			patientMsg = fmt.Sprintf("Your appointment on %s at %s has been cancelled by an administrator.", date, tod)
			doctorMsg = fmt.Sprintf("Appointment with %s on %s at %s has been cancelled by an administrator.", patientName, date, tod)
		default:
			patientMsg = fmt.Sprintf("Your appointment on %s at %s has been cancelled.", date, tod)
			doctorMsg = fmt.Sprintf("Appointment with %s on %s at %s has been cancelled.", patientName, date, tod)
		}

		return []draft{
			{recipient: ev.PatientID, title: "Appointment Cancelled", message: patientMsg, metadata: meta},
			{recipient: ev.DoctorID, title: "Appointment Cancelled", message: doctorMsg, metadata: meta},
		}
	}

	return nil
}

func metadataTag(t event.Type) string {
	switch t {
	case event.TypeCreated:
		return "APPOINTMENT_CREATED"
	case event.TypeApproved:
		return "APPOINTMENT_APPROVED"
	case event.TypeCancelled:
		return "APPOINTMENT_CANCELLED"
	case event.TypeRejected:
		return "APPOINTMENT_REJECTED"
	case event.TypeCompleted:
		return "APPOINTMENT_COMPLETED"
	}
	return string(t)
}

func formatDate(raw string) string {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "scheduled date"
	}
	return t.Format("Monday, January 2, 2006")
}

func formatTime(raw string) string {
	if raw == "" {
		return "scheduled time"
	}
	return raw
}

func orFallback(s, fallback string) string {
	if s == "" || s == "Unknown" {
		return fallback
	}
	return s
}
