package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/appointment"
	"github.com/medisync/medisync/internal/auth"
)

const dateLayout = "2006-01-02"

type createAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctorId"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Reason   string    `json:"reason"`
}

type rejectAppointmentRequest struct {
	Reason *string `json:"reason"`
}

type completeAppointmentRequest struct {
	Notes *string `json:"notes"`
}

type appointmentResponse struct {
	ID            uuid.UUID  `json:"id"`
	PatientID     uuid.UUID  `json:"patientId"`
	DoctorID      uuid.UUID  `json:"doctorId"`
	Date          string     `json:"date"`
	Time          string     `json:"time"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	Notes         *string    `json:"notes,omitempty"`
	CancelledBy   *auth.Role `json:"cancelledBy,omitempty"`
	CancelledByID *uuid.UUID `json:"cancelledById,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toAppointmentResponse(a *appointment.Appointment) appointmentResponse {
	return appointmentResponse{
		ID:            a.ID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		Date:          a.Date.Format(dateLayout),
		Time:          a.Time,
		Reason:        a.Reason,
		Status:        string(a.Status),
		Notes:         a.Notes,
		CancelledBy:   a.CancelledBy,
		CancelledByID: a.CancelledByID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

type appointmentDetailResponse struct {
	appointmentResponse
	PatientName          string `json:"patientName"`
	PatientEmail         string `json:"patientEmail"`
	DoctorName           string `json:"doctorName"`
	DoctorEmail          string `json:"doctorEmail"`
	DoctorSpecialization string `json:"doctorSpecialization"`
}

func toDetailResponses(details []appointment.Detail) []appointmentDetailResponse {
	out := make([]appointmentDetailResponse, 0, len(details))
	for i := range details {
		d := &details[i]
		out = append(out, appointmentDetailResponse{
			appointmentResponse:  toAppointmentResponse(&d.Appointment),
			PatientName:          d.PatientName,
			PatientEmail:         d.PatientEmail,
			DoctorName:           d.DoctorName,
			DoctorEmail:          d.DoctorEmail,
			DoctorSpecialization: d.DoctorSpecialization,
		})
	}
	return out
}
