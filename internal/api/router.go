package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/access"
	"github.com/hackgods/telehealth-coordination/internal/appointment"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/notification"
)

type AppointmentService interface {
	Book(ctx context.Context, in appointment.BookingInput) (*appointment.Appointment, error)
	Decide(ctx context.Context, id string, decision appointment.Decision, actingDoctorID string) (*appointment.DecisionResult, error)
	GetAppointment(ctx context.Context, id string) (*appointment.Appointment, error)
	ListByDoctor(ctx context.Context, doctorID string) ([]appointment.Appointment, error)
	ListByPatient(ctx context.Context, patientID string) ([]appointment.Appointment, error)
}

type DoctorService interface {
	Create(ctx context.Context, p doctor.CreateParams) (*doctor.Doctor, error)
	Register(ctx context.Context, externalID string, p doctor.CreateParams) (*doctor.Doctor, notification.Result, error)
	List(ctx context.Context, f doctor.Filter) ([]doctor.Doctor, error)
	Get(ctx context.Context, id string) (*doctor.Doctor, error)
	GetByExternalID(ctx context.Context, externalID string) (*doctor.Doctor, error)
	Update(ctx context.Context, id string, u doctor.Update) (*doctor.Doctor, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (doctor.Stats, error)
}

type Notifier interface {
	Send(ctx context.Context, event notification.EventType, p notification.Payload) notification.Result
}

type RouterConfig struct {
	Appointments AppointmentService
	Doctors      DoctorService
	Notifier     Notifier
	Gate         *access.Gate
	Identity     access.IdentityProvider
	Checks       []DependencyCheck
	Logger       zerolog.Logger
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cfg.Gate.Middleware(cfg.Identity))

	// Health and metrics endpoints
	health := NewHealthHandler(cfg.Checks, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/notifications/email", sendEmailHandler(cfg.Notifier))

	// Any signed-in role
	r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments, cfg.Doctors))
	r.Get("/doctors", listDoctorsHandler(cfg.Doctors))
	r.Get("/doctors/{id}", getDoctorHandler(cfg.Doctors))

	r.Route("/doctor", func(r chi.Router) {
		r.Get("/profile", getProfileHandler(cfg.Doctors))
		r.Post("/profile", registerProfileHandler(cfg.Doctors))
		r.Get("/appointments", doctorAppointmentsHandler(cfg.Appointments, cfg.Doctors))
		r.Post("/appointments/{id}/decision", decideAppointmentHandler(cfg.Appointments, cfg.Doctors))
	})

	r.Get("/patient/appointments", patientAppointmentsHandler(cfg.Appointments))

	r.Route("/admin/doctors", func(r chi.Router) {
		r.Post("/", createDoctorHandler(cfg.Doctors))
		r.Get("/stats", doctorStatsHandler(cfg.Doctors))
		r.Patch("/{id}", updateDoctorHandler(cfg.Doctors))
		r.Delete("/{id}", deleteDoctorHandler(cfg.Doctors))
	})

	return r
}
