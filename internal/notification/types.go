package notification

import (
	"fmt"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
)

type EventType string

const (
	EventDoctorWelcome           EventType = "doctor-welcome"
	EventAppointmentRequest      EventType = "appointment-request"
	EventAppointmentConfirmation EventType = "appointment-confirmation"
	EventAppointmentRejection    EventType = "appointment-rejection"
)

// Older web clients post camelCase names.
var legacyEventNames = map[string]EventType{
	"doctorWelcome":           EventDoctorWelcome,
	"appointmentRequest":      EventAppointmentRequest,
	"appointmentConfirmation": EventAppointmentConfirmation,
	"appointmentRejection":    EventAppointmentRejection,
}

// ParseEventType accepts the canonical kebab-case names and their legacy
// camelCase aliases.
func ParseEventType(s string) (EventType, bool) {
	switch t := EventType(s); t {
	case EventDoctorWelcome, EventAppointmentRequest, EventAppointmentConfirmation, EventAppointmentRejection:
		return t, true
	}
	t, ok := legacyEventNames[s]
	return t, ok
}

// AppointmentPayload is the appointment data an email is rendered from.
type AppointmentPayload struct {
	ID              string `json:"id"`
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail"`
	PatientPhone    string `json:"patientPhone,omitempty"`
	DoctorName      string `json:"doctorName"`
	DoctorEmail     string `json:"doctorEmail"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Reason          string `json:"reason"`
	Symptoms        string `json:"symptoms,omitempty"`
	ConsultationFee int    `json:"consultationFee"`
	Status          string `json:"status,omitempty"`
	DoctorNotes     string `json:"doctorNotes,omitempty"`
	MeetingLink     string `json:"meetingLink,omitempty"`
}

type DoctorPayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Specialty       string `json:"specialty"`
	ConsultationFee int    `json:"consultationFee"`
}

type Payload struct {
	Appointment *AppointmentPayload `json:"appointment,omitempty"`
	Doctor      *DoctorPayload      `json:"doctor,omitempty"`
}

// Result is the outcome of one Send. Failures are carried in Err rather
// than returned, so callers can log them without branching on control flow.
type Result struct {
	Delivered bool
	MessageID string
	Err       error
}

func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func failed(err error) Result {
	return Result{Err: err}
}

// recipient resolves who receives the email for an event and checks the
// payload the event needs is present.
func recipient(event EventType, p Payload) (string, error) {
	switch event {
	case EventDoctorWelcome:
		if p.Doctor == nil {
			return "", fmt.Errorf("%w: doctor required for %s", apperror.ErrMissingPayload, event)
		}
		return p.Doctor.Email, nil
	case EventAppointmentRequest:
		if p.Appointment == nil {
			return "", fmt.Errorf("%w: appointment required for %s", apperror.ErrMissingPayload, event)
		}
		return p.Appointment.DoctorEmail, nil
	case EventAppointmentConfirmation, EventAppointmentRejection:
		if p.Appointment == nil {
			return "", fmt.Errorf("%w: appointment required for %s", apperror.ErrMissingPayload, event)
		}
		return p.Appointment.PatientEmail, nil
	default:
		return "", apperror.ErrInvalidType
	}
}
