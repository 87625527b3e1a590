package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
	"github.com/hackgods/telehealth-coordination/internal/events"
	"github.com/hackgods/telehealth-coordination/internal/notification"
	"github.com/hackgods/telehealth-coordination/internal/validate"
)

// Notifier is the part of the notification dispatcher the directory uses.
type Notifier interface {
	Send(ctx context.Context, event notification.EventType, p notification.Payload) notification.Result
}

type Service struct {
	repo      Repository
	notifier  Notifier
	publisher events.Publisher
	logger    zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger.With().Str("component", "doctor").Logger(),
	}
}

// Create stores a new doctor, filling every omitted optional field with its
// default.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Doctor, error) {
	p = p.normalized()
	if err := p.validate(); err != nil {
		return nil, err
	}

	d := p.build(uuid.NewString())
	if err := s.repo.Create(ctx, d); err != nil {
		if errors.Is(err, ErrDuplicateDoctor) {
			return nil, err
		}
		return nil, fmt.Errorf("create doctor: %w", err)
	}

	s.logger.Info().Str("doctor_id", d.ID).Str("specialty", d.Specialty).Msg("doctor created")
	return d, nil
}

// Register creates the profile of a signed-in doctor, binding the identity
// provider id to it, publishes DOCTOR_REGISTERED and sends the welcome email.
// The welcome outcome is returned for display only.
func (s *Service) Register(ctx context.Context, externalID string, p CreateParams) (*Doctor, notification.Result, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, notification.Result{}, apperror.Invalid("identity is required to register a doctor profile")
	}
	if _, err := s.repo.GetByExternalID(ctx, externalID); err == nil {
		return nil, notification.Result{}, ErrDuplicateDoctor
	} else if !errors.Is(err, ErrDoctorNotFound) {
		return nil, notification.Result{}, fmt.Errorf("check existing profile: %w", err)
	}
	if strings.TrimSpace(p.Email) != "" {
		if _, err := s.GetByEmail(ctx, p.Email); err == nil {
			return nil, notification.Result{}, ErrEmailTaken
		} else if !errors.Is(err, ErrDoctorNotFound) {
			return nil, notification.Result{}, fmt.Errorf("check email: %w", err)
		}
	}

	p.ExternalID = externalID
	d, err := s.Create(ctx, p)
	if err != nil {
		return nil, notification.Result{}, err
	}

	s.publishRegistered(ctx, d)

	res := s.notifier.Send(context.WithoutCancel(ctx), notification.EventDoctorWelcome, notification.Payload{Doctor: d.NotificationPayload()})
	return d, res, nil
}

func (s *Service) publishRegistered(ctx context.Context, d *Doctor) {
	payload, err := json.Marshal(map[string]any{
		"doctor_id":   d.ID,
		"external_id": d.ExternalID,
		"specialty":   d.Specialty,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal doctor event")
		return
	}
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.DoctorRegistered,
		Payload:    payload,
		OccurredAt: time.Now(),
	}); err != nil {
		s.logger.Warn().Err(err).Str("doctor_id", d.ID).Msg("failed to publish event")
	}
}

// List returns active doctors matching every non-empty filter field.
func (s *Service) List(ctx context.Context, f Filter) ([]Doctor, error) {
	all, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}

	result := make([]Doctor, 0, len(all))
	for _, d := range all {
		if f.Matches(d) {
			result = append(result, d)
		}
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByExternalID(ctx context.Context, externalID string) (*Doctor, error) {
	return s.repo.GetByExternalID(ctx, externalID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Doctor, error) {
	return s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Service) Update(ctx context.Context, id string, u Update) (*Doctor, error) {
	if err := u.validate(); err != nil {
		return nil, err
	}
	d, err := s.repo.Update(ctx, id, u)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update doctor: %w", err)
	}
	return d, nil
}

// Delete hard-deletes the doctor record. Appointments referencing it are
// left as they are.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return err
		}
		return fmt.Errorf("delete doctor: %w", err)
	}
	s.logger.Info().Str("doctor_id", id).Msg("doctor deleted")
	return nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.repo.CountByStatus(ctx)
}

// Matches applies the specialty and search filters, both case-insensitive
// substring matches. The specialty value "all" disables that filter.
func (f Filter) Matches(d Doctor) bool {
	specialty := strings.ToLower(d.Specialty)

	if want := strings.ToLower(strings.TrimSpace(f.Specialty)); want != "" && want != "all" {
		if !strings.Contains(specialty, want) {
			return false
		}
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		if !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(specialty, q) {
			return false
		}
	}

	return true
}

func (d *Doctor) NotificationPayload() *notification.DoctorPayload {
	return &notification.DoctorPayload{
		ID:              d.ID,
		Name:            d.Name,
		Email:           d.Email,
		Specialty:       d.Specialty,
		ConsultationFee: d.ConsultationFee,
	}
}

func (p CreateParams) normalized() CreateParams {
	p.ExternalID = strings.TrimSpace(p.ExternalID)
	p.Name = strings.TrimSpace(p.Name)
	p.Specialty = strings.TrimSpace(p.Specialty)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = strings.TrimSpace(p.Phone)
	p.LicenseNumber = strings.TrimSpace(p.LicenseNumber)
	return p
}

func (p CreateParams) validate() error {
	var missing []string
	if p.Name == "" {
		missing = append(missing, "name")
	}
	if p.Specialty == "" {
		missing = append(missing, "specialty")
	}
	if p.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return apperror.Missing(missing...)
	}
	if !validate.Email(p.Email) {
		return apperror.Invalid("invalid email format")
	}
	if p.ConsultationFee != nil && *p.ConsultationFee < 0 {
		return apperror.Invalid("consultation fee must not be negative")
	}
	if p.Status != "" && !p.Status.Valid() {
		return apperror.Invalid("status must be active or inactive")
	}
	return nil
}

func (p CreateParams) build(id string) *Doctor {
	d := &Doctor{
		ID:              id,
		ExternalID:      p.ExternalID,
		Name:            p.Name,
		Specialty:       p.Specialty,
		Email:           p.Email,
		Phone:           p.Phone,
		LicenseNumber:   p.LicenseNumber,
		Experience:      p.Experience,
		Education:       p.Education,
		About:           p.About,
		Image:           p.Image,
		Languages:       nonEmpty(p.Languages, DefaultLanguages),
		Availability:    nonEmpty(p.Availability, DefaultAvailability),
		ConsultationFee: DefaultConsultationFee,
		Rating:          DefaultRating,
		TotalReviews:    0,
		Status:          StatusActive,
	}
	if p.ConsultationFee != nil {
		d.ConsultationFee = *p.ConsultationFee
	}
	if p.Image == "" {
		d.Image = DefaultImage
	}
	if p.Status != "" {
		d.Status = p.Status
	}
	return d
}

func (u Update) validate() error {
	if u.Empty() {
		return apperror.Invalid("no fields to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return apperror.Invalid("name must not be empty")
	}
	if u.Specialty != nil && strings.TrimSpace(*u.Specialty) == "" {
		return apperror.Invalid("specialty must not be empty")
	}
	if u.Languages != nil && len(*u.Languages) == 0 {
		return apperror.Invalid("at least one language is required")
	}
	if u.ConsultationFee != nil && *u.ConsultationFee < 0 {
		return apperror.Invalid("consultation fee must not be negative")
	}
	if u.Status != nil && !u.Status.Valid() {
		return apperror.Invalid("status must be active or inactive")
	}
	return nil
}

func nonEmpty(values, def []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), def...)
	}
	return out
}
