package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/config"
	"github.com/hackgods/telehealth-coordination/internal/doctor"
	"github.com/hackgods/telehealth-coordination/internal/events"
	"github.com/hackgods/telehealth-coordination/internal/metrics"
	"github.com/hackgods/telehealth-coordination/internal/notification"
	redisclient "github.com/hackgods/telehealth-coordination/internal/redis"
)

// Notifier is the part of the notification dispatcher the lifecycle uses.
type Notifier interface {
	Send(ctx context.Context, event notification.EventType, p notification.Payload) notification.Result
}

// DoctorLookup resolves the doctor a booking names.
type DoctorLookup interface {
	GetByID(ctx context.Context, id string) (*doctor.Doctor, error)
}

type Service struct {
	repo      Repository
	doctors   DoctorLookup
	locker    redisclient.Locker
	notifier  Notifier
	publisher events.Publisher
	cfg       config.Config
	logger    zerolog.Logger

	inflight sync.WaitGroup
}

func NewService(
	repo Repository,
	doctors DoctorLookup,
	locker redisclient.Locker,
	notifier Notifier,
	publisher events.Publisher,
	cfg config.Config,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:      repo,
		doctors:   doctors,
		locker:    locker,
		notifier:  notifier,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger.With().Str("component", "appointment").Logger(),
	}
}

// Book validates and stores a new pending appointment, then notifies the
// doctor in the background. A failed notification never fails the booking.
func (s *Service) Book(ctx context.Context, in BookingInput) (*Appointment, error) {
	in = in.normalized()
	if err := in.validate(); err != nil {
		return nil, err
	}

	if err := s.resolveDoctor(ctx, &in); err != nil {
		return nil, err
	}

	appt := &Appointment{
		ID:              uuid.NewString(),
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		PatientEmail:    in.PatientEmail,
		PatientPhone:    in.PatientPhone,
		DoctorID:        in.DoctorID,
		DoctorName:      in.DoctorName,
		DoctorEmail:     in.DoctorEmail,
		AppointmentDate: in.AppointmentDate,
		AppointmentTime: in.AppointmentTime,
		Reason:          in.Reason,
		Symptoms:        in.Symptoms,
		Status:          StatusPending,
	}
	if in.ConsultationFee != nil {
		appt.ConsultationFee = *in.ConsultationFee
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	metrics.AppointmentTransitions.WithLabelValues(string(StatusPending)).Inc()
	s.logEvent(ctx, created.ID, events.AppointmentRequested, map[string]any{
		"doctor_id":        created.DoctorID,
		"patient_email":    created.PatientEmail,
		"appointment_date": created.AppointmentDate,
		"appointment_time": created.AppointmentTime,
	})

	s.dispatchAsync(ctx, notification.EventAppointmentRequest, created)

	return created, nil
}

// resolveDoctor checks the chosen doctor is in the directory and active, and
// copies its name and email onto the booking. A caller-supplied fee is kept.
func (s *Service) resolveDoctor(ctx context.Context, in *BookingInput) error {
	d, err := s.doctors.GetByID(ctx, in.DoctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return err
		}
		return fmt.Errorf("load doctor: %w", err)
	}
	if d.Status != doctor.StatusActive {
		return apperror.Invalid("doctor is not accepting appointments")
	}

	in.DoctorName = d.Name
	in.DoctorEmail = d.Email
	if in.ConsultationFee == nil {
		fee := d.ConsultationFee
		in.ConsultationFee = &fee
	}
	return nil
}

// Decide moves a pending appointment to approved or rejected and notifies the
// patient. The transition runs under a per-appointment lock and is committed
// with a compare-and-swap on the pending status, so of two concurrent or
// repeated decisions exactly one wins and the other gets a conflict.
// An empty actingDoctorID skips the ownership check.
func (s *Service) Decide(ctx context.Context, id string, decision Decision, actingDoctorID string) (*DecisionResult, error) {
	if !decision.Valid() {
		return nil, apperror.Invalid("decision must be approve or reject")
	}

	var decided *Appointment

	err := s.locker.WithLock(ctx, "appointment:"+id, func(lockCtx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(lockCtx, id)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				return err
			}
			return fmt.Errorf("load appointment: %w", err)
		}

		if actingDoctorID != "" && appt.DoctorID != actingDoctorID {
			return ErrNotAppointmentOwner
		}
		if appt.Status != StatusPending {
			return ErrAlreadyDecided
		}

		updated, err := s.repo.UpdateDecision(lockCtx, appt.ID, StatusPending, s.patchFor(decision, appt.ID))
		if err != nil {
			// The row exists, so a miss means the status moved on.
			if errors.Is(err, ErrAppointmentNotFound) {
				return ErrAlreadyDecided
			}
			return fmt.Errorf("record decision: %w", err)
		}

		decided = updated

		eventType := events.AppointmentApproved
		if decision == DecisionReject {
			eventType = events.AppointmentRejected
		}
		s.logEvent(lockCtx, updated.ID, eventType, map[string]any{
			"doctor_id": updated.DoctorID,
			"decision":  string(decision),
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrDecisionInProgress
		}
		return nil, err
	}

	metrics.AppointmentTransitions.WithLabelValues(string(decided.Status)).Inc()

	event := notification.EventAppointmentConfirmation
	if decided.Status == StatusRejected {
		event = notification.EventAppointmentRejection
	}

	sendCtx, cancel := s.notifyContext(ctx)
	defer cancel()
	res := s.notifier.Send(sendCtx, event, notification.Payload{Appointment: decided.NotificationPayload()})

	return &DecisionResult{Appointment: decided, Notification: res}, nil
}

func (s *Service) patchFor(decision Decision, id string) DecisionPatch {
	if decision == DecisionApprove {
		return DecisionPatch{
			Status:      StatusApproved,
			DoctorNotes: NoteApproved,
			MeetingLink: s.MeetingLink(id),
		}
	}
	return DecisionPatch{
		Status:      StatusRejected,
		DoctorNotes: NoteRejected,
	}
}

// MeetingLink is the video consultation URL for an appointment.
func (s *Service) MeetingLink(id string) string {
	return s.cfg.AppBaseURL + "/video-call/" + id
}

// GetAppointment retrieves an appointment by ID
func (s *Service) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID string) ([]Appointment, error) {
	appointments, err := s.repo.ListAppointmentsByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return appointments, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	appointments, err := s.repo.ListAppointmentsByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appointments, nil
}

// Wait blocks until every background notification started by Book has
// finished.
func (s *Service) Wait() {
	s.inflight.Wait()
}

func (s *Service) dispatchAsync(ctx context.Context, event notification.EventType, appt *Appointment) {
	payload := notification.Payload{Appointment: appt.NotificationPayload()}
	detached := context.WithoutCancel(ctx)

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()

		sendCtx, cancel := s.notifyContext(detached)
		defer cancel()

		res := s.notifier.Send(sendCtx, event, payload)
		if res.Err != nil {
			s.logger.Warn().
				Err(res.Err).
				Str("appointment_id", appt.ID).
				Msg("doctor was not notified of new appointment")
		}
	}()
}

// notifyContext detaches the send from the request so a client hanging up
// does not abort a delivery already under way.
func (s *Service) notifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if s.cfg.NotifyTimeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, s.cfg.NotifyTimeout)
}

func (s *Service) logEvent(ctx context.Context, appointmentID string, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	apptID := appointmentID
	now := time.Now()

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     now,
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Str("appointment_id", appointmentID).Msg("failed to insert event log")
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:          eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		OccurredAt:    now,
	}); err != nil {
		s.logger.Warn().Err(err).Str("event", eventType).Str("appointment_id", appointmentID).Msg("failed to publish event")
	}
}
