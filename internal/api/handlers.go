package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/telehealth-coordination/internal/access"
	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
)

var errDoctorProfileMissing = fmt.Errorf("doctor profile %w, complete registration first", apperror.ErrNotFound)

func bookAppointmentHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req appointment.BookingInput
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		// Patients always book as themselves.
		if id, ok := access.FromContext(r.Context()); ok && id.Role == access.RolePatient {
			req.PatientID = id.UserID
		}

		appt, err := svc.Book(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, BookResponse{
			Success:       true,
			AppointmentID: appt.ID,
			Message:       "Appointment booked successfully. The doctor will be notified by email.",
		})
	}
}

func getAppointmentHandler(svc AppointmentService, doctors DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, err := svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}

		if err := canView(r, appt, doctors); err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentResponse{Success: true, Appointment: appt})
	}
}

// canView lets admins read any appointment and everyone else only the ones
// they are the patient or the doctor of.
func canView(r *http.Request, appt *appointment.Appointment, doctors DoctorService) error {
	id, _ := access.FromContext(r.Context())

	switch id.Role {
	case access.RoleAdmin:
		return nil
	case access.RolePatient:
		if appt.PatientID != "" && appt.PatientID == id.UserID {
			return nil
		}
	case access.RoleDoctor:
		d, err := doctors.GetByExternalID(r.Context(), id.UserID)
		if err != nil && !errors.Is(err, doctor.ErrDoctorNotFound) {
			return err
		}
		if d != nil && d.ID == appt.DoctorID {
			return nil
		}
	}
	return fmt.Errorf("appointment %w", apperror.ErrForbidden)
}

func doctorAppointmentsHandler(svc AppointmentService, doctors DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := currentDoctor(r, doctors)
		if err != nil {
			handleError(w, r, err)
			return
		}

		list, err := svc.ListByDoctor(r.Context(), d.ID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentListResponse{Success: true, Appointments: nonNil(list), Total: len(list)})
	}
}

func patientAppointmentsHandler(svc AppointmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := access.FromContext(r.Context())

		list, err := svc.ListByPatient(r.Context(), id.UserID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, AppointmentListResponse{Success: true, Appointments: nonNil(list), Total: len(list)})
	}
}

func decideAppointmentHandler(svc AppointmentService, doctors DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DecisionRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		d, err := currentDoctor(r, doctors)
		if err != nil {
			handleError(w, r, err)
			return
		}

		res, err := svc.Decide(r.Context(), chi.URLParam(r, "id"), appointment.Decision(req.Decision), d.ID)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, decisionResponse(res))
	}
}

func decisionResponse(res *appointment.DecisionResult) DecisionResponse {
	status := string(res.Appointment.Status)
	resp := DecisionResponse{
		Success:  true,
		Status:   status,
		Notified: res.Notification.Delivered,
	}

	kind := "Confirmation"
	if res.Appointment.Status == appointment.StatusRejected {
		kind = "Rejection"
	}

	if res.Notification.Delivered {
		resp.Message = fmt.Sprintf("Appointment %s. %s email sent to the patient.", status, kind)
	} else {
		resp.Message = fmt.Sprintf("Appointment %s, but the email notification failed. Please contact the patient directly.", status)
		resp.NotificationError = res.Notification.ErrorMessage()
	}
	return resp
}

// currentDoctor resolves the doctor profile of the signed-in user.
func currentDoctor(r *http.Request, doctors DoctorService) (*doctor.Doctor, error) {
	id, _ := access.FromContext(r.Context())

	d, err := doctors.GetByExternalID(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, errDoctorProfileMissing
		}
		return nil, err
	}
	return d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
