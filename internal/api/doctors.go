package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/telehealth-coordination/internal/access"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
)

func listDoctorsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		doctors, err := svc.List(r.Context(), doctor.Filter{
			Specialty: q.Get("specialty"),
			Search:    q.Get("search"),
		})
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, DoctorListResponse{Success: true, Doctors: nonNil(doctors), Total: len(doctors)})
	}
}

func getDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DoctorResponse{Success: true, Doctor: d})
	}
}

func getProfileHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := currentDoctor(r, svc)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DoctorResponse{Success: true, Doctor: d})
	}
}

func registerProfileHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req doctor.CreateParams
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		id, _ := access.FromContext(r.Context())

		// Self-registration always starts active.
		req.Status = ""

		d, res, err := svc.Register(r.Context(), id.UserID, req)
		if err != nil {
			handleError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, RegisterDoctorResponse{
			Success:           true,
			Doctor:            d,
			WelcomeEmailSent:  res.Delivered,
			NotificationError: res.ErrorMessage(),
		})
	}
}

func createDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req doctor.CreateParams
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		d, err := svc.Create(r.Context(), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, DoctorResponse{Success: true, Doctor: d})
	}
}

func updateDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req doctor.Update
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		d, err := svc.Update(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, DoctorResponse{Success: true, Doctor: d})
	}
}

func deleteDoctorHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
	}
}

func doctorStatsHandler(svc DoctorService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(r.Context())
		if err != nil {
			handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, StatsResponse{Success: true, Stats: stats})
	}
}
