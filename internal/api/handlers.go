package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medisync/medisync/internal/appointment"
	"github.com/medisync/medisync/internal/auth"
)

type AppointmentHandler struct {
	svc *appointment.Service
}

func NewAppointmentHandler(svc *appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

func (h *AppointmentHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	appt, err := h.svc.Create(r.Context(), actor, appointment.CreateInput{
		DoctorID: req.DoctorID,
		Date:     req.Date,
		Time:     req.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) listAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	details, err := h.svc.ListAll(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointments": toDetailResponses(details)})
}

func (h *AppointmentHandler) listMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	details, err := h.svc.ListMine(r.Context(), actor)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointments": toDetailResponses(details)})
}

func (h *AppointmentHandler) getByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appt, err := h.svc.GetByID(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) approve(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appt, err := h.svc.Approve(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) reject(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	// Body is optional; a missing or empty body rejects without a reason.
	var req rejectAppointmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	appt, err := h.svc.Reject(r.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	var req completeAppointmentRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	appt, err := h.svc.Complete(r.Context(), actor, id, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	appt, err := h.svc.Cancel(r.Context(), actor, id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"appointment": toAppointmentResponse(appt)})
}

func (h *AppointmentHandler) hardDelete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid appointment ID")
		return
	}

	if err := h.svc.HardDelete(r.Context(), actor, id); err != nil {
		respondError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Appointment deleted successfully")
}
