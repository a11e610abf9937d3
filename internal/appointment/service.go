package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/directory"
	"github.com/medisync/medisync/internal/event"
	redisclient "github.com/medisync/medisync/internal/redis"
)

var (
	// Validation
	ErrInvalidDoctor = errors.New("Valid doctor ID is required")
	ErrInvalidDate   = errors.New("Valid date is required")
	ErrPastDate      = errors.New("Appointment date must be in the future")
	ErrInvalidTime   = errors.New("Valid time in HH:MM format is required")
	ErrInvalidReason = errors.New("Reason must be between 3 and 500 characters")

	// Authorization
	ErrOnlyPatientsCreate  = errors.New("Only patients can create appointments")
	ErrNotAssignedApprove  = errors.New("Only the assigned doctor can approve appointments")
	ErrNotAssignedReject   = errors.New("Only the assigned doctor can reject appointments")
	ErrNotAssignedComplete = errors.New("Only the assigned doctor can complete appointments")
	ErrUnauthorized        = errors.New("Unauthorized access")
	ErrAdminOnly           = errors.New("Admin access required")

	// State conflicts
	ErrOnlyPendingApprove   = errors.New("Only pending appointments can be approved")
	ErrOnlyPendingReject    = errors.New("Only pending appointments can be rejected")
	ErrOnlyApprovedComplete = errors.New("Only approved appointments can be completed")
	ErrCancelCompleted      = errors.New("Cannot cancel completed appointments")
	ErrAlreadyClosed        = errors.New("Appointment is already cancelled or rejected")

	// Not found
	ErrDoctorNotFound = errors.New("Doctor not found")
)

var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

const dateLayout = "2006-01-02"

type CreateInput struct {
	DoctorID uuid.UUID
	Date     string // 2006-01-02
	Time     string // HH:MM
	Reason   string
}

// Service owns the appointment state machine. Every accepted transition writes
// the guarded update to the store, then runs an explicit post-commit hook list:
// cache invalidation for the affected views, then one domain event append.
// Hook failures never fail the command; the committed row is the authoritative
// fact and a failed append only degrades notification delivery.
type Service struct {
	repo     Repository
	dir      directory.Lookup
	cache    redisclient.Cache
	producer event.Producer

	listTTL  time.Duration // patient/doctor views
	adminTTL time.Duration // appointments:all
	now      func() time.Time
}

func NewService(repo Repository, dir directory.Lookup, cache redisclient.Cache, producer event.Producer, listTTL, adminTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		dir:      dir,
		cache:    cache,
		producer: producer,
		listTTL:  listTTL,
		adminTTL: adminTTL,
		now:      time.Now,
	}
}

// Cache keys for the read views every transition must invalidate.
func patientKey(id uuid.UUID) string { return "appointments:patient:" + id.String() }
func doctorKey(id uuid.UUID) string  { return "appointments:doctor:" + id.String() }

const allKey = "appointments:all"

// Create books a PENDING appointment for the calling patient. The slot
// conflict check is not a prior SELECT: the insert itself fails on the live
// slot unique index, so concurrent creates for one slot yield one winner.
func (s *Service) Create(ctx context.Context, actor auth.Identity, in CreateInput) (*Appointment, error) {
	if actor.Role != auth.RolePatient {
		return nil, ErrOnlyPatientsCreate
	}
	if in.DoctorID == uuid.Nil {
		return nil, ErrInvalidDoctor
	}
	date, err := time.Parse(dateLayout, in.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	today := s.now().Truncate(24 * time.Hour)
	if date.Before(today) {
		return nil, ErrPastDate
	}
	if !timePattern.MatchString(in.Time) {
		return nil, ErrInvalidTime
	}
	if len(in.Reason) < 3 || len(in.Reason) > 500 {
		return nil, ErrInvalidReason
	}

	doctor, err := s.dir.GetUser(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("verify doctor: %w", err)
	}
	if doctor.Role != string(auth.RoleDoctor) {
		return nil, ErrDoctorNotFound
	}

	created, err := s.repo.Create(ctx, &Appointment{
		PatientID: actor.UserID,
		DoctorID:  in.DoctorID,
		Date:      date,
		Time:      in.Time,
		Reason:    in.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.runPostCommit(ctx, created, func(ev *event.Envelope) {
		ev.Type = event.TypeCreated
	})

	return created, nil
}

// Approve moves PENDING to APPROVED. Actor must be the assigned doctor.
func (s *Service) Approve(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.DoctorID {
		return nil, ErrNotAssignedApprove
	}
	if appt.Status != StatusPending {
		return nil, ErrOnlyPendingApprove
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusUpdate{To: StatusApproved})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race with another transition.
			return nil, ErrOnlyPendingApprove
		}
		return nil, fmt.Errorf("approve appointment: %w", err)
	}

	s.runPostCommit(ctx, updated, func(ev *event.Envelope) {
		ev.Type = event.TypeApproved
	})

	return updated, nil
}

// Reject moves PENDING to REJECTED. Actor must be the assigned doctor; an
// optional reason is stored in notes and carried on the event.
func (s *Service) Reject(ctx context.Context, actor auth.Identity, id uuid.UUID, reason *string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.DoctorID {
		return nil, ErrNotAssignedReject
	}
	if appt.Status != StatusPending {
		return nil, ErrOnlyPendingReject
	}

	role := auth.RoleDoctor
	actorID := actor.UserID

	updated, err := s.repo.UpdateStatus(ctx, id, StatusPending, StatusUpdate{
		To:            StatusRejected,
		Notes:         reason,
		CancelledBy:   &role,
		CancelledByID: &actorID,
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrOnlyPendingReject
		}
		return nil, fmt.Errorf("reject appointment: %w", err)
	}

	s.runPostCommit(ctx, updated, func(ev *event.Envelope) {
		ev.Type = event.TypeRejected
		ev.RejectedBy = &actorID
		if reason != nil {
			ev.RejectionReason = *reason
		}
	})

	return updated, nil
}

// Complete moves APPROVED to COMPLETED. Actor must be the assigned doctor;
// optional visit notes are recorded.
func (s *Service) Complete(ctx context.Context, actor auth.Identity, id uuid.UUID, notes *string) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.DoctorID {
		return nil, ErrNotAssignedComplete
	}
	if appt.Status != StatusApproved {
		return nil, ErrOnlyApprovedComplete
	}

	updated, err := s.repo.UpdateStatus(ctx, id, StatusApproved, StatusUpdate{
		To:    StatusCompleted,
		Notes: notes,
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrOnlyApprovedComplete
		}
		return nil, fmt.Errorf("complete appointment: %w", err)
	}

	s.runPostCommit(ctx, updated, func(ev *event.Envelope) {
		ev.Type = event.TypeCompleted
	})

	return updated, nil
}

// Cancel moves PENDING or APPROVED to CANCELLED. The patient, the assigned
// doctor, or an admin may cancel; the acting role and user are recorded.
func (s *Service) Cancel(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.PatientID && actor.UserID != appt.DoctorID && actor.Role != auth.RoleAdmin {
		return nil, ErrUnauthorized
	}
	if appt.Status == StatusCompleted {
		return nil, ErrCancelCompleted
	}
	if appt.Status == StatusCancelled || appt.Status == StatusRejected {
		return nil, ErrAlreadyClosed
	}

	role := actor.Role
	actorID := actor.UserID

	updated, err := s.repo.UpdateStatus(ctx, id, appt.Status, StatusUpdate{
		To:            StatusCancelled,
		CancelledBy:   &role,
		CancelledByID: &actorID,
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrAlreadyClosed
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.runPostCommit(ctx, updated, func(ev *event.Envelope) {
		ev.Type = event.TypeCancelled
		ev.CancelledBy = role
		ev.CancelledByID = &actorID
	})

	return updated, nil
}

// GetByID returns one appointment to a participant or an admin.
func (s *Service) GetByID(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.UserID != appt.PatientID && actor.UserID != appt.DoctorID && actor.Role != auth.RoleAdmin {
		return nil, ErrUnauthorized
	}
	return appt, nil
}

// ListMine returns the caller's appointments, newest visit first, enriched
// with directory display fields. Cache-fronted per user.
func (s *Service) ListMine(ctx context.Context, actor auth.Identity) ([]Detail, error) {
	var (
		key  string
		load func(context.Context) ([]Appointment, error)
	)

	switch actor.Role {
	case auth.RolePatient:
		key = patientKey(actor.UserID)
		load = func(ctx context.Context) ([]Appointment, error) { return s.repo.ListByPatient(ctx, actor.UserID) }
	case auth.RoleDoctor:
		key = doctorKey(actor.UserID)
		load = func(ctx context.Context) ([]Appointment, error) { return s.repo.ListByDoctor(ctx, actor.UserID) }
	default:
		return nil, ErrUnauthorized
	}

	return s.cachedList(ctx, key, s.listTTL, load)
}

// ListAll returns every appointment. Admin only, cache-fronted.
func (s *Service) ListAll(ctx context.Context, actor auth.Identity) ([]Detail, error) {
	if actor.Role != auth.RoleAdmin {
		return nil, ErrAdminOnly
	}
	return s.cachedList(ctx, allKey, s.adminTTL, s.repo.ListAll)
}

// HardDelete physically removes a row. Legacy unsafe path: no event, no
// status history, admin only.
func (s *Service) HardDelete(ctx context.Context, actor auth.Identity, id uuid.UUID) error {
	if actor.Role != auth.RoleAdmin {
		return ErrAdminOnly
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.HardDelete(ctx, id); err != nil {
		return err
	}

	log.Printf("appointment %s hard-deleted by admin %s (legacy path, no event emitted)", id, actor.UserID)

	s.invalidateViews(ctx, appt.PatientID, appt.DoctorID)
	return nil
}

func (s *Service) cachedList(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]Appointment, error)) ([]Detail, error) {
	if raw, ok, err := s.cache.Get(ctx, key); err == nil && ok {
		var details []Detail
		if err := json.Unmarshal(raw, &details); err == nil {
			return details, nil
		}
	}

	appts, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	details := s.enrich(ctx, appts)

	if raw, err := json.Marshal(details); err == nil {
		if err := s.cache.Set(ctx, key, raw, ttl); err != nil {
			log.Printf("cache set %s: %v", key, err)
		}
	}

	return details, nil
}

// enrich attaches display fields per row. Lookups are bounded by the
// directory client's timeout and degrade to empty fields rather than failing
// the whole query.
func (s *Service) enrich(ctx context.Context, appts []Appointment) []Detail {
	details := make([]Detail, 0, len(appts))
	for _, a := range appts {
		d := Detail{Appointment: a}

		if patient, err := s.dir.GetUser(ctx, a.PatientID); err == nil {
			d.PatientName = patient.DisplayName()
			d.PatientEmail = patient.Email
		} else {
			d.PatientName = "Unknown"
		}
		if doctor, err := s.dir.GetUser(ctx, a.DoctorID); err == nil {
			d.DoctorName = doctor.DisplayName()
			d.DoctorEmail = doctor.Email
			d.DoctorSpecialization = doctor.Specialization
		} else {
			d.DoctorName = "Unknown"
		}

		details = append(details, d)
	}
	return details
}

// runPostCommit executes the side effects of a committed transition: bust the
// three read views, then append exactly one domain event carrying display
// data fetched from the directory at this moment. Each hook is independently
// logged on failure and none can fail the command.
func (s *Service) runPostCommit(ctx context.Context, appt *Appointment, fill func(*event.Envelope)) {
	s.invalidateViews(ctx, appt.PatientID, appt.DoctorID)

	ev := event.Envelope{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		Date:          appt.Date.Format(dateLayout),
		Time:          appt.Time,
		Timestamp:     s.now(),
	}

	if patient, err := s.dir.GetUser(ctx, appt.PatientID); err == nil {
		ev.PatientName = patient.DisplayName()
		ev.PatientEmail = patient.Email
	} else {
		ev.PatientName = "Unknown"
	}
	if doctor, err := s.dir.GetUser(ctx, appt.DoctorID); err == nil {
		ev.DoctorName = doctor.DisplayName()
		ev.DoctorEmail = doctor.Email
	} else {
		ev.DoctorName = "Unknown"
	}

	fill(&ev)

	if err := s.producer.Publish(ctx, ev); err != nil {
		log.Printf("post-commit event append %s for appointment %s failed, delivery degraded: %v", ev.Type, appt.ID, err)
	}
}

func (s *Service) invalidateViews(ctx context.Context, patientID, doctorID uuid.UUID) {
	keys := []string{patientKey(patientID), doctorKey(doctorID), allKey}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		log.Printf("post-commit cache invalidation %v failed: %v", keys, err)
	}
}
