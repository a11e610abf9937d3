package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/medisync/medisync/internal/appointment"
	"github.com/medisync/medisync/internal/notification"
)

// respondError translates domain sentinels into HTTP statuses. Anything
// unrecognized is logged and hidden behind a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, appointment.ErrInvalidDoctor),
		errors.Is(err, appointment.ErrInvalidDate),
		errors.Is(err, appointment.ErrPastDate),
		errors.Is(err, appointment.ErrInvalidTime),
		errors.Is(err, appointment.ErrInvalidReason):
		writeError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, appointment.ErrOnlyPatientsCreate),
		errors.Is(err, appointment.ErrNotAssignedApprove),
		errors.Is(err, appointment.ErrNotAssignedReject),
		errors.Is(err, appointment.ErrNotAssignedComplete),
		errors.Is(err, appointment.ErrUnauthorized),
		errors.Is(err, appointment.ErrAdminOnly):
		writeError(w, http.StatusForbidden, err.Error())

	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "Appointment not found")
	case errors.Is(err, appointment.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, notification.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "Notification not found")

	case errors.Is(err, appointment.ErrSlotTaken),
		errors.Is(err, appointment.ErrOnlyPendingApprove),
		errors.Is(err, appointment.ErrOnlyPendingReject),
		errors.Is(err, appointment.ErrOnlyApprovedComplete),
		errors.Is(err, appointment.ErrCancelCompleted),
		errors.Is(err, appointment.ErrAlreadyClosed):
		writeError(w, http.StatusConflict, err.Error())

	default:
		log.Printf("request_id=%s unhandled error: %v", RequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
