package api

import (
	"errors"
	"net/http"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/notification"
)

func sendEmailHandler(n Notifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmailRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "invalid JSON in request body")
			return
		}

		event, ok := notification.ParseEventType(req.Type)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_type", "invalid email type")
			return
		}

		res := n.Send(r.Context(), event, notification.Payload{
			Appointment: req.Appointment,
			Doctor:      req.Doctor,
		})
		if res.Err != nil {
			handleSendError(w, r, res.Err)
			return
		}

		writeJSON(w, http.StatusOK, EmailResponse{
			Success:   true,
			Message:   "Email sent successfully",
			MessageID: res.MessageID,
		})
	}
}

func handleSendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, apperror.ErrInvalidType):
		writeError(w, http.StatusBadRequest, "invalid_type", "invalid email type")
	case errors.Is(err, apperror.ErrMissingPayload):
		writeError(w, http.StatusBadRequest, "missing_payload", err.Error())
	case errors.Is(err, apperror.ErrNotConfigured):
		writeError(w, http.StatusInternalServerError, "not_configured", "notification transport not configured")
	case errors.Is(err, apperror.ErrDelivery):
		writeError(w, http.StatusInternalServerError, "delivery_failed", err.Error())
	default:
		handleError(w, r, err)
	}
}
