package appointment

import (
	"time"

	"github.com/hackgods/telehealth-coordination/internal/notification"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func (d Decision) Valid() bool {
	return d == DecisionApprove || d == DecisionReject
}

const (
	NoteApproved = "Appointment confirmed"
	NoteRejected = "Doctor is not available at the requested time"
)

// Appointment is one booking request. The doctor name, email and fee are a
// snapshot taken at booking time and do not follow later doctor edits.
type Appointment struct {
	ID              string    `json:"id"`
	PatientID       string    `json:"patientId,omitempty"`
	PatientName     string    `json:"patientName"`
	PatientEmail    string    `json:"patientEmail"`
	PatientPhone    string    `json:"patientPhone,omitempty"`
	DoctorID        string    `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	DoctorEmail     string    `json:"doctorEmail"`
	AppointmentDate string    `json:"appointmentDate"`
	AppointmentTime string    `json:"appointmentTime"`
	Reason          string    `json:"reason"`
	Symptoms        string    `json:"symptoms,omitempty"`
	ConsultationFee int       `json:"consultationFee"`
	Status          Status    `json:"status"`
	DoctorNotes     string    `json:"doctorNotes,omitempty"`
	MeetingLink     string    `json:"meetingLink,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// BookingInput is what a patient submits. DoctorID is required; the doctor
// name and email stored on the appointment always come from the directory.
type BookingInput struct {
	PatientID       string `json:"patientId,omitempty"`
	PatientName     string `json:"patientName"`
	PatientEmail    string `json:"patientEmail"`
	PatientPhone    string `json:"patientPhone,omitempty"`
	DoctorID        string `json:"doctorId,omitempty"`
	DoctorName      string `json:"doctorName,omitempty"`
	DoctorEmail     string `json:"doctorEmail,omitempty"`
	AppointmentDate string `json:"appointmentDate"`
	AppointmentTime string `json:"appointmentTime"`
	Reason          string `json:"reason"`
	Symptoms        string `json:"symptoms,omitempty"`
	ConsultationFee *int   `json:"consultationFee,omitempty"`
}

// DecisionPatch is the set of fields a decision writes.
type DecisionPatch struct {
	Status      Status
	DoctorNotes string
	MeetingLink string
}

// DecisionResult pairs the committed appointment with the outcome of the
// patient notification that followed it.
type DecisionResult struct {
	Appointment  *Appointment
	Notification notification.Result
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *string
	Payload       []byte
	CreatedAt     time.Time
}

func (a *Appointment) NotificationPayload() *notification.AppointmentPayload {
	return &notification.AppointmentPayload{
		ID:              a.ID,
		PatientName:     a.PatientName,
		PatientEmail:    a.PatientEmail,
		PatientPhone:    a.PatientPhone,
		DoctorName:      a.DoctorName,
		DoctorEmail:     a.DoctorEmail,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		Reason:          a.Reason,
		Symptoms:        a.Symptoms,
		ConsultationFee: a.ConsultationFee,
		Status:          string(a.Status),
		DoctorNotes:     a.DoctorNotes,
		MeetingLink:     a.MeetingLink,
	}
}
