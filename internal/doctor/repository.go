package doctor

import (
	"context"
	"fmt"

	"github.com/hackgods/telehealth-coordination/internal/apperror"
)

var (
	ErrDoctorNotFound  = fmt.Errorf("doctor %w", apperror.ErrNotFound)
	ErrDuplicateDoctor = fmt.Errorf("doctor with this email or external id already exists: %w", apperror.ErrConflict)
	ErrEmailTaken      = fmt.Errorf("email is already used by another doctor profile: %w", apperror.ErrConflict)
)

// Repository is the persistence contract of the doctor directory.
type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id string) (*Doctor, error)
	GetByExternalID(ctx context.Context, externalID string) (*Doctor, error)
	GetByEmail(ctx context.Context, email string) (*Doctor, error)

	// ListActive returns active doctors in creation order.
	ListActive(ctx context.Context) ([]Doctor, error)

	// Update patches the non-nil fields and returns the stored doctor.
	Update(ctx context.Context, id string, u Update) (*Doctor, error)
	// Delete removes the doctor. Appointments keep their snapshot.
	Delete(ctx context.Context, id string) error

	CountByStatus(ctx context.Context) (Stats, error)
}

// Apply copies the non-nil fields of u onto d.
func (u Update) Apply(d *Doctor) {
	if u.Name != nil {
		d.Name = *u.Name
	}
	if u.Specialty != nil {
		d.Specialty = *u.Specialty
	}
	if u.Phone != nil {
		d.Phone = *u.Phone
	}
	if u.LicenseNumber != nil {
		d.LicenseNumber = *u.LicenseNumber
	}
	if u.Experience != nil {
		d.Experience = *u.Experience
	}
	if u.Education != nil {
		d.Education = *u.Education
	}
	if u.About != nil {
		d.About = *u.About
	}
	if u.Image != nil {
		d.Image = *u.Image
	}
	if u.Languages != nil {
		d.Languages = append([]string(nil), (*u.Languages)...)
	}
	if u.Availability != nil {
		d.Availability = append([]string(nil), (*u.Availability)...)
	}
	if u.ConsultationFee != nil {
		d.ConsultationFee = *u.ConsultationFee
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
}
