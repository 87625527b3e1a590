package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	productName       = "MEDIBOT"
	supportEmail      = "support@medibot.com"
	notProvided       = "Not provided"
	defaultNoteReject = "Unfortunately the doctor is not available at the requested time."
)

// Message is a rendered email ready for a Mailer.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

type view struct {
	Product      string
	Support      string
	Greeting     string
	Appointment  *AppointmentPayload
	Doctor       *DoctorPayload
	PatientPhone string
	Date         string
	Notes        string
	JoinURL      string
	DashboardURL string
}

const htmlLayoutStart = `<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
`

const htmlLayoutEnd = `<hr style="margin: 20px 0;">
<p style="font-size: 12px; color: #666;">This is an automated message from {{.Product}}. Please do not reply to this email.<br>For support, contact us at {{.Support}}</p>
</div>
</body>
</html>`

var htmlTemplates = map[EventType]string{
	EventAppointmentRequest: `<h1>{{.Product}} - New Appointment Request</h1>
<h2>Hello {{.Greeting}},</h2>
<p>You have received a new appointment request from a patient.</p>
<h3>Patient Information</h3>
<p><strong>Name:</strong> {{.Appointment.PatientName}}</p>
<p><strong>Email:</strong> {{.Appointment.PatientEmail}}</p>
<p><strong>Phone:</strong> {{.PatientPhone}}</p>
<h3>Appointment Details</h3>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Appointment.AppointmentTime}}</p>
<p><strong>Consultation Fee:</strong> ${{.Appointment.ConsultationFee}}</p>
<h3>Medical Information</h3>
<p><strong>Reason for Visit:</strong> {{.Appointment.Reason}}</p>
{{if .Appointment.Symptoms}}<p><strong>Symptoms:</strong> {{.Appointment.Symptoms}}</p>
{{end}}<p><a href="{{.DashboardURL}}">Review this request on your dashboard</a></p>
`,
	EventAppointmentConfirmation: `<h1>Appointment Confirmed!</h1>
<h2>Hello {{.Appointment.PatientName}},</h2>
<p>Great news! Your appointment has been confirmed by {{.Appointment.DoctorName}}.</p>
<h3>Appointment Details</h3>
<p><strong>Doctor:</strong> {{.Appointment.DoctorName}}</p>
<p><strong>Date:</strong> {{.Date}}</p>
<p><strong>Time:</strong> {{.Appointment.AppointmentTime}}</p>
<p><strong>Consultation Fee:</strong> ${{.Appointment.ConsultationFee}}</p>
<p><strong>Appointment ID:</strong> #{{.Appointment.ID}}</p>
<p><strong>Doctor's note:</strong> {{.Notes}}</p>
<p><a href="{{.JoinURL}}">Join Video Consultation</a></p>
<ul>
<li>Please join the video call 5 minutes before your scheduled time</li>
<li>Ensure you have a stable internet connection</li>
<li>Have your medical history and current medications ready</li>
</ul>
`,
	EventAppointmentRejection: `<h1>Appointment Update</h1>
<h2>Hello {{.Appointment.PatientName}},</h2>
<p>Your appointment request with {{.Appointment.DoctorName}} on {{.Date}} at {{.Appointment.AppointmentTime}} could not be confirmed.</p>
<p><strong>Doctor's note:</strong> {{.Notes}}</p>
<p>You can book another time or choose a different doctor at <a href="{{.DashboardURL}}">{{.DashboardURL}}</a>.</p>
`,
	EventDoctorWelcome: `<h1>Welcome to {{.Product}}</h1>
<h2>Hello {{.Greeting}},</h2>
<p>Your doctor profile has been created.</p>
<p><strong>Specialty:</strong> {{.Doctor.Specialty}}</p>
<p><strong>Consultation Fee:</strong> ${{.Doctor.ConsultationFee}}</p>
<p>Appointment requests from patients will arrive by email and on <a href="{{.DashboardURL}}">your dashboard</a>.</p>
`,
}

var textTemplates = map[EventType]string{
	EventAppointmentRequest: `Hello {{.Greeting}},

You have received a new appointment request.

Patient: {{.Appointment.PatientName}} <{{.Appointment.PatientEmail}}>
Phone: {{.PatientPhone}}
Date: {{.Date}}
Time: {{.Appointment.AppointmentTime}}
Consultation fee: ${{.Appointment.ConsultationFee}}
Reason: {{.Appointment.Reason}}
{{if .Appointment.Symptoms}}Symptoms: {{.Appointment.Symptoms}}
{{end}}
Review it at {{.DashboardURL}}
`,
	EventAppointmentConfirmation: `Hello {{.Appointment.PatientName}},

Your appointment with {{.Appointment.DoctorName}} is confirmed.

Date: {{.Date}}
Time: {{.Appointment.AppointmentTime}}
Consultation fee: ${{.Appointment.ConsultationFee}}
Appointment ID: #{{.Appointment.ID}}
Note: {{.Notes}}

Join the video consultation: {{.JoinURL}}
`,
	EventAppointmentRejection: `Hello {{.Appointment.PatientName}},

Your appointment request with {{.Appointment.DoctorName}} on {{.Date}} at {{.Appointment.AppointmentTime}} could not be confirmed.

Note: {{.Notes}}

Book another time at {{.DashboardURL}}
`,
	EventDoctorWelcome: `Hello {{.Greeting}},

Your {{.Product}} doctor profile has been created.
Specialty: {{.Doctor.Specialty}}
Consultation fee: ${{.Doctor.ConsultationFee}}

Your dashboard: {{.DashboardURL}}
`,
}

var subjects = map[EventType]func(v view) string{
	EventAppointmentRequest: func(v view) string {
		return "New Appointment Request - " + v.Appointment.PatientName
	},
	EventAppointmentConfirmation: func(v view) string {
		return "Appointment Confirmed - " + v.Appointment.DoctorName
	},
	EventAppointmentRejection: func(v view) string {
		return "Appointment Request Update - " + v.Appointment.DoctorName
	},
	EventDoctorWelcome: func(v view) string {
		return "Welcome to " + productName
	},
}

var (
	parsedHTML = map[EventType]*htmltemplate.Template{}
	parsedText = map[EventType]*texttemplate.Template{}
)

func init() {
	for event, body := range htmlTemplates {
		parsedHTML[event] = htmltemplate.Must(htmltemplate.New(string(event)).Parse(htmlLayoutStart + body + htmlLayoutEnd))
	}
	for event, body := range textTemplates {
		parsedText[event] = texttemplate.Must(texttemplate.New(string(event)).Parse(body))
	}
}

// Render builds the email for an event. It is pure: the only failures are an
// unknown event type and a payload missing the entity the event is about.
func Render(event EventType, p Payload, baseURL string) (Message, error) {
	to, err := recipient(event, p)
	if err != nil {
		return Message{}, err
	}

	v := buildView(event, p, strings.TrimRight(baseURL, "/"))

	var htmlBuf, textBuf bytes.Buffer
	if err := parsedHTML[event].Execute(&htmlBuf, v); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", event, err)
	}
	if err := parsedText[event].Execute(&textBuf, v); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", event, err)
	}

	return Message{
		To:      to,
		Subject: subjects[event](v),
		HTML:    htmlBuf.String(),
		Text:    textBuf.String(),
	}, nil
}

func buildView(event EventType, p Payload, baseURL string) view {
	v := view{
		Product:     productName,
		Support:     supportEmail,
		Appointment: p.Appointment,
		Doctor:      p.Doctor,
	}

	switch event {
	case EventAppointmentRequest, EventDoctorWelcome:
		v.DashboardURL = baseURL + "/doctor/dashboard"
	default:
		v.DashboardURL = baseURL + "/patient/dashboard"
	}

	if a := p.Appointment; a != nil {
		v.Greeting = doctorGreeting(a.DoctorName)
		v.PatientPhone = fallback(a.PatientPhone, notProvided)
		v.Date = formatDate(a.AppointmentDate)
		v.JoinURL = fallback(a.MeetingLink, baseURL+"/video-call/"+a.ID)
		if event == EventAppointmentRejection {
			v.Notes = fallback(a.DoctorNotes, defaultNoteReject)
		} else {
			v.Notes = fallback(a.DoctorNotes, notProvided)
		}
	}
	if d := p.Doctor; d != nil && event == EventDoctorWelcome {
		v.Greeting = doctorGreeting(d.Name)
	}

	return v
}

// doctorGreeting turns "Dr. Sarah Johnson" into "Dr. Johnson".
func doctorGreeting(name string) string {
	fields := strings.Fields(name)
	if len(fields) > 0 && strings.EqualFold(strings.TrimSuffix(fields[0], "."), "dr") {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return "Doctor"
	}
	return "Dr. " + fields[len(fields)-1]
}

// formatDate renders YYYY-MM-DD as "Monday, January 2, 2006". Dates only
// pass a format check at booking, so anything unparsable is shown verbatim.
func formatDate(s string) string {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fallback(s, notProvided)
	}
	return d.Format("Monday, January 2, 2006")
}

func fallback(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
