package appointment

import (
	"strings"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/validate"
)

// normalized trims every text field and lower-cases the patient email.
func (in BookingInput) normalized() BookingInput {
	in.PatientID = strings.TrimSpace(in.PatientID)
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.PatientEmail = strings.ToLower(strings.TrimSpace(in.PatientEmail))
	in.PatientPhone = strings.TrimSpace(in.PatientPhone)
	in.DoctorID = strings.TrimSpace(in.DoctorID)
	in.DoctorName = strings.TrimSpace(in.DoctorName)
	in.DoctorEmail = strings.ToLower(strings.TrimSpace(in.DoctorEmail))
	in.AppointmentDate = strings.TrimSpace(in.AppointmentDate)
	in.AppointmentTime = strings.TrimSpace(in.AppointmentTime)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Symptoms = strings.TrimSpace(in.Symptoms)
	return in
}

// validate runs the booking checks in order and stops at the first failing
// one. Date and time are checked for shape only.
func (in BookingInput) validate() error {
	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"patientName", in.PatientName},
		{"patientEmail", in.PatientEmail},
		{"doctorId", in.DoctorID},
		{"appointmentDate", in.AppointmentDate},
		{"appointmentTime", in.AppointmentTime},
		{"reason", in.Reason},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperror.Missing(missing...)
	}

	if !validate.Email(in.PatientEmail) {
		return apperror.Invalid("invalid email format")
	}
	if !validate.Date(in.AppointmentDate) {
		return apperror.Invalid("invalid date format, use YYYY-MM-DD")
	}
	if !validate.Time(in.AppointmentTime) {
		return apperror.Invalid("invalid time format, use HH:MM")
	}
	if in.ConsultationFee != nil && *in.ConsultationFee < 0 {
		return apperror.Invalid("consultation fee must not be negative")
	}
	return nil
}
