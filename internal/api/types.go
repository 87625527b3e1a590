package api

import (
	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/notification"
)

type ErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

type BookResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointmentId"`
	Message       string `json:"message"`
}

type AppointmentResponse struct {
	Success     bool                     `json:"success"`
	Appointment *appointment.Appointment `json:"appointment"`
}

type AppointmentListResponse struct {
	Success      bool                      `json:"success"`
	Appointments []appointment.Appointment `json:"appointments"`
	Total        int                       `json:"total"`
}

type DecisionRequest struct {
	Decision string `json:"decision"`
}

// DecisionResponse reports the committed status first and the patient email
// outcome second; a failed email does not make the request fail.
type DecisionResponse struct {
	Success           bool   `json:"success"`
	Status            string `json:"status"`
	Notified          bool   `json:"notified"`
	Message           string `json:"message"`
	NotificationError string `json:"notificationError,omitempty"`
}

type DoctorResponse struct {
	Success bool           `json:"success"`
	Doctor  *doctor.Doctor `json:"doctor"`
}

type DoctorListResponse struct {
	Success bool            `json:"success"`
	Doctors []doctor.Doctor `json:"doctors"`
	Total   int             `json:"total"`
}

type RegisterDoctorResponse struct {
	Success           bool           `json:"success"`
	Doctor            *doctor.Doctor `json:"doctor"`
	WelcomeEmailSent  bool           `json:"welcomeEmailSent"`
	NotificationError string         `json:"notificationError,omitempty"`
}

type StatsResponse struct {
	Success bool         `json:"success"`
	Stats   doctor.Stats `json:"stats"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type EmailRequest struct {
	Type        string                           `json:"type"`
	Appointment *notification.AppointmentPayload `json:"appointment,omitempty"`
	Doctor      *notification.DoctorPayload      `json:"doctor,omitempty"`
}

type EmailResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}
